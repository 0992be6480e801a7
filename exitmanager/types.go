package exitmanager

import (
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type ExitKind string

const (
	Standard ExitKind = "standard"
	InFlight ExitKind = "in_flight"
)

// ExitStatus is a state of the exit lifecycle.
type ExitStatus string

const (
	Unexited        ExitStatus = "unexited"
	ExitQueued      ExitStatus = "exit_queued"
	InFlightStarted ExitStatus = "in_flight_started"
	Piggybacked     ExitStatus = "piggybacked"
	ExitProcessed   ExitStatus = "exit_processed"
)

// Exit is a journal entry for an exit started by this client.
type Exit struct {
	ExitId   *big.Int
	Kind     ExitKind
	Status   ExitStatus
	Owner    ethcommon.Address
	Currency ethcommon.Address

	// UtxoPos is the exited output for standard exits, zero for in-flight ones.
	UtxoPos *big.Int
	// TxBytes is the output tx of a standard exit or the in-flight tx.
	TxBytes     []byte
	OutputIndex uint64

	TxHash     ethcommon.Hash // last root-chain tx that moved the exit
	ExitableAt uint64
}

// StartedExit is returned once an exit transaction is confirmed.
type StartedExit struct {
	ExitId     *big.Int
	ExitableAt uint64
	TxHash     ethcommon.Hash
}

// ProcessedExits is returned by ProcessExits.
type ProcessedExits struct {
	TxHash ethcommon.Hash
	// ExitIds are the exits that left the queue.
	ExitIds []*big.Int
}

type sqlExit struct {
	ExitId      string
	Kind        string
	Status      string
	Owner       string
	Currency    string
	UtxoPos     string
	TxBytes     []byte
	OutputIndex uint64
	TxHash      string
	ExitableAt  uint64
}

func (s *sqlExit) encode(e *Exit) *sqlExit {
	utxoPos := e.UtxoPos
	if utxoPos == nil {
		utxoPos = new(big.Int)
	}
	txBytes := e.TxBytes
	if txBytes == nil {
		txBytes = []byte{}
	}

	s.ExitId = e.ExitId.String()
	s.Kind = string(e.Kind)
	s.Status = string(e.Status)
	s.Owner = common.Trim0xPrefix(e.Owner.Hex())
	s.Currency = common.Trim0xPrefix(e.Currency.Hex())
	s.UtxoPos = utxoPos.String()
	s.TxBytes = txBytes
	s.OutputIndex = e.OutputIndex
	s.TxHash = common.Trim0xPrefix(e.TxHash.Hex())
	s.ExitableAt = e.ExitableAt
	return s
}

func (s *sqlExit) decode() (*Exit, error) {
	exitId, ok := new(big.Int).SetString(s.ExitId, 10)
	if !ok {
		return nil, fmt.Errorf("invalid exit id in journal: %s", s.ExitId)
	}
	utxoPos, ok := new(big.Int).SetString(s.UtxoPos, 10)
	if !ok {
		return nil, fmt.Errorf("invalid utxo position in journal: %s", s.UtxoPos)
	}

	return &Exit{
		ExitId:      exitId,
		Kind:        ExitKind(s.Kind),
		Status:      ExitStatus(s.Status),
		Owner:       ethcommon.HexToAddress(s.Owner),
		Currency:    ethcommon.HexToAddress(s.Currency),
		UtxoPos:     utxoPos,
		TxBytes:     s.TxBytes,
		OutputIndex: s.OutputIndex,
		TxHash:      ethcommon.HexToHash(s.TxHash),
		ExitableAt:  s.ExitableAt,
	}, nil
}
