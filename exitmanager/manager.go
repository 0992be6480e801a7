package exitmanager

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/etherman"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
)

var ErrExitAlreadyStarted = errors.New("exit already started")

// ExitManager starts, piggybacks and processes exits on the root chain and
// journals every exit it moves.
type ExitManager struct {
	cfg     *Config
	root    etherman.RootChain
	watcher Watcher
	db      *ExitDB

	sleep func(ctx context.Context, d time.Duration) error
}

func NewExitManager(cfg *Config, root etherman.RootChain, watcher Watcher, db *ExitDB) *ExitManager {
	return &ExitManager{
		cfg:     cfg,
		root:    root,
		watcher: watcher,
		db:      db,
		sleep:   sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *ExitManager) HasExitQueue(ctx context.Context, currency ethcommon.Address) (bool, error) {
	return m.root.HasToken(ctx, currency)
}

func (m *ExitManager) AddExitQueue(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address) (*types.Receipt, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}
	tx, err := m.root.AddToken(ctx, auth, currency)
	if err != nil {
		return nil, err
	}
	return m.root.WaitForRootchainTransaction(ctx, tx.Hash(), m.cfg.Wait)
}

// EnsureExitQueue adds the exit queue of currency unless it exists. It
// reports whether a queue was added.
func (m *ExitManager) EnsureExitQueue(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address) (bool, error) {
	has, err := m.HasExitQueue(ctx, currency)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	if _, err := m.AddExitQueue(ctx, auth, currency); err != nil {
		return false, err
	}
	logger.WithField("currency", currency.Hex()).Info("exit queue added")
	return true, nil
}

// StartStandardExit exits utxo with its inclusion proof from the watcher.
func (m *ExitManager) StartStandardExit(ctx context.Context, auth *bind.TransactOpts, utxo plasma.Utxo) (*StartedExit, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}

	data, err := m.watcher.GetExitData(ctx, utxo.UtxoPos())
	if err != nil {
		return nil, err
	}
	utxoPos := data.UtxoPos
	if utxoPos == nil {
		utxoPos = utxo.UtxoPos()
	}
	pos, err := plasma.DecodePosition(utxoPos)
	if err != nil {
		return nil, err
	}

	isDeposit := plasma.IsDeposit(pos.BlockNumber)
	exitId, err := plasma.StandardExitId(isDeposit, data.TxBytes, utxoPos)
	if err != nil {
		return nil, err
	}

	exit, err := m.fresh(ctx, exitId)
	if err != nil {
		return nil, err
	}

	tx, err := m.root.StartStandardExit(ctx, auth, utxoPos, data.TxBytes, data.Proof)
	if err != nil {
		return nil, err
	}
	receipt, err := m.root.WaitForRootchainTransaction(ctx, tx.Hash(), m.cfg.Wait)
	if err != nil {
		return nil, err
	}

	exitableAt, err := m.exitableAt(ctx, receipt.BlockNumber, pos.BlockNumber)
	if err != nil {
		return nil, err
	}

	exit.Kind = Standard
	exit.Owner = utxo.Owner
	exit.Currency = utxo.Currency
	exit.UtxoPos = utxoPos
	exit.TxBytes = data.TxBytes
	exit.OutputIndex = pos.OutputIndex
	exit.TxHash = tx.Hash()
	exit.ExitableAt = exitableAt
	if err := m.record(ctx, exit, EventStartStandard); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"exitId":     exitId.String(),
		"utxo":       pos.String(),
		"exitableAt": exitableAt,
	}).Info("standard exit started")

	return &StartedExit{ExitId: exitId, ExitableAt: exitableAt, TxHash: tx.Hash()}, nil
}

// StartInFlightExit exits a signed transaction that need not be included
// in a child block.
func (m *ExitManager) StartInFlightExit(ctx context.Context, auth *bind.TransactOpts, signedTxBytes []byte) (*StartedExit, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}
	stx, err := plasma.DecodeSignedTransaction(signedTxBytes)
	if err != nil {
		return nil, err
	}

	data, err := m.watcher.InFlightExitGetData(ctx, signedTxBytes)
	if err != nil {
		return nil, err
	}
	exitId, err := plasma.InFlightExitId(data.InFlightTx)
	if err != nil {
		return nil, err
	}

	exit, err := m.fresh(ctx, exitId)
	if err != nil {
		return nil, err
	}

	tx, err := m.root.StartInFlightExit(ctx, auth, inFlightExitArgs(data))
	if err != nil {
		return nil, err
	}
	receipt, err := m.root.WaitForRootchainTransaction(ctx, tx.Hash(), m.cfg.Wait)
	if err != nil {
		return nil, err
	}

	// the exit is scheduled by its youngest input
	youngest := new(big.Int)
	for _, p := range data.InputUtxosPos {
		if p != nil && p.Cmp(youngest) > 0 {
			youngest = p
		}
	}
	youngestPos, err := plasma.DecodePosition(youngest)
	if err != nil {
		return nil, err
	}
	exitableAt, err := m.exitableAt(ctx, receipt.BlockNumber, youngestPos.BlockNumber)
	if err != nil {
		return nil, err
	}

	exit.Kind = InFlight
	exit.Owner = auth.From
	if len(stx.Outputs) > 0 {
		exit.Currency = stx.Outputs[0].Currency
	}
	exit.TxBytes = data.InFlightTx
	exit.TxHash = tx.Hash()
	exit.ExitableAt = exitableAt
	if err := m.record(ctx, exit, EventStartInFlight); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"exitId":     exitId.String(),
		"inputs":     len(data.InputUtxosPos),
		"exitableAt": exitableAt,
	}).Info("in-flight exit started")

	return &StartedExit{ExitId: exitId, ExitableAt: exitableAt, TxHash: tx.Hash()}, nil
}

// Piggyback claims the first output of inFlightTx owned by owner. inFlightTx
// may be signed or unsigned.
func (m *ExitManager) Piggyback(ctx context.Context, auth *bind.TransactOpts, inFlightTx []byte, owner ethcommon.Address) (*StartedExit, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}

	tx, err := decodeAnyTransaction(inFlightTx)
	if err != nil {
		return nil, err
	}
	outputIndex, ok := tx.OutputIndexOf(owner)
	if !ok {
		return nil, fmt.Errorf("%w: no output of %s", plasma.ErrOutputNotFound, owner.Hex())
	}

	txBytes, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	exitId, err := plasma.InFlightExitId(txBytes)
	if err != nil {
		return nil, err
	}

	exit, found, err := m.db.GetExit(ctx, exitId)
	if err != nil {
		return nil, err
	}
	if !found {
		// started elsewhere, e.g. by the sender
		exit = &Exit{ExitId: exitId, Kind: InFlight, Status: InFlightStarted, TxBytes: txBytes}
	}
	if !canAdvance(exit.Status, EventPiggyback) {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, EventPiggyback, exit.Status)
	}

	sent, err := m.root.PiggybackInFlightExitOnOutput(ctx, auth, txBytes, uint16(outputIndex))
	if err != nil {
		return nil, err
	}
	if _, err := m.root.WaitForRootchainTransaction(ctx, sent.Hash(), m.cfg.Wait); err != nil {
		return nil, err
	}

	exit.Owner = owner
	exit.Currency = tx.Outputs[outputIndex].Currency
	exit.OutputIndex = uint64(outputIndex)
	exit.TxHash = sent.Hash()
	if err := m.record(ctx, exit, EventPiggyback); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"exitId":      exitId.String(),
		"outputIndex": outputIndex,
	}).Info("piggybacked in-flight exit")

	return &StartedExit{ExitId: exitId, ExitableAt: exit.ExitableAt, TxHash: sent.Hash()}, nil
}

func (m *ExitManager) GetExitQueue(ctx context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error) {
	return m.root.GetExitQueue(ctx, currency)
}

// ProcessExits finalises up to maxExits exits of currency. A non-zero
// topExitId must be the queue front or ErrExitQueueStale is returned without
// sending anything. Journaled exits that leave the queue become processed.
func (m *ExitManager) ProcessExits(
	ctx context.Context,
	auth *bind.TransactOpts,
	currency ethcommon.Address,
	topExitId *big.Int,
	maxExits uint64,
) (*ProcessedExits, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}
	if topExitId == nil {
		topExitId = new(big.Int)
	}

	before, err := m.root.GetExitQueue(ctx, currency)
	if err != nil {
		return nil, err
	}
	if topExitId.Sign() != 0 {
		if len(before) == 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, new(big.Int))
		}
		if before[0].ExitId.Cmp(topExitId) != 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, before[0].ExitId)
		}
	}

	tx, err := m.root.ProcessExits(ctx, auth, currency, topExitId, maxExits)
	if err != nil {
		return nil, err
	}
	if _, err := m.root.WaitForRootchainTransaction(ctx, tx.Hash(), m.cfg.Wait); err != nil {
		return nil, err
	}

	after, err := m.root.GetExitQueue(ctx, currency)
	if err != nil {
		return nil, err
	}
	remaining := make(map[string]struct{}, len(after))
	for _, e := range after {
		remaining[e.ExitId.String()] = struct{}{}
	}

	result := &ProcessedExits{TxHash: tx.Hash(), ExitIds: []*big.Int{}}
	for _, e := range before {
		if _, ok := remaining[e.ExitId.String()]; ok {
			continue
		}
		result.ExitIds = append(result.ExitIds, e.ExitId)

		exit, found, err := m.db.GetExit(ctx, e.ExitId)
		if err != nil {
			return nil, err
		}
		if !found || !canAdvance(exit.Status, EventProcess) {
			continue
		}
		exit.TxHash = tx.Hash()
		if err := m.record(ctx, exit, EventProcess); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logger.Fields{
		"currency":  currency.Hex(),
		"processed": len(result.ExitIds),
	}).Info("processed exits")

	return result, nil
}

func (m *ExitManager) GetExitTime(ctx context.Context, exitRequestBlock, submissionBlock uint64) (*etherman.ExitTime, error) {
	return m.root.GetExitTime(ctx, exitRequestBlock, submissionBlock)
}

// WaitForChallengePeriod sleeps for two minimum exit periods.
func (m *ExitManager) WaitForChallengePeriod(ctx context.Context) error {
	period, err := m.root.MinExitPeriod(ctx)
	if err != nil {
		return err
	}
	d := 2 * time.Duration(period.Int64()) * time.Second
	logger.WithField("duration", d.String()).Info("waiting for challenge period")
	return m.sleep(ctx, d)
}

// Exits lists the journaled exits, all of them when owner is nil.
func (m *ExitManager) Exits(ctx context.Context, owner *ethcommon.Address) ([]*Exit, error) {
	if owner == nil {
		return m.db.GetExits(ctx)
	}
	return m.db.GetExitsByOwner(ctx, *owner)
}

// fresh returns a new journal entry for exitId, failing when the exit was
// already started by this client.
func (m *ExitManager) fresh(ctx context.Context, exitId *big.Int) (*Exit, error) {
	exit, found, err := m.db.GetExit(ctx, exitId)
	if err != nil {
		return nil, err
	}
	if found && exit.Status != Unexited {
		return nil, fmt.Errorf("%w: %s is %s", ErrExitAlreadyStarted, exitId, exit.Status)
	}
	return &Exit{ExitId: exitId, Status: Unexited, UtxoPos: new(big.Int)}, nil
}

func (m *ExitManager) record(ctx context.Context, exit *Exit, event string) error {
	if err := advance(ctx, exit, event); err != nil {
		return err
	}
	return m.db.UpsertExit(ctx, exit)
}

// exitableAt follows the framework: the exit request time plus one period,
// and for non-deposit outputs no earlier than the child block time plus two.
func (m *ExitManager) exitableAt(ctx context.Context, requestBlock *big.Int, blknum uint64) (uint64, error) {
	requestTs, err := m.root.BlockTimestamp(ctx, requestBlock)
	if err != nil {
		return 0, err
	}
	period, err := m.root.MinExitPeriod(ctx)
	if err != nil {
		return 0, err
	}

	isDeposit := plasma.IsDeposit(blknum)
	var submissionTs uint64
	if !isDeposit {
		submissionTs, err = m.root.ChildBlockTimestamp(ctx, blknum)
		if err != nil {
			return 0, err
		}
	}
	return plasma.ExitableAt(requestTs, submissionTs, period.Uint64(), isDeposit), nil
}

func inFlightExitArgs(data *childchain.InFlightExitData) rootchain.StartInFlightExitArgs {
	args := rootchain.StartInFlightExitArgs{
		InFlightTx:              data.InFlightTx,
		InputTxs:                make([][]byte, len(data.InputTxs)),
		InputUtxosPos:           data.InputUtxosPos,
		InputTxsInclusionProofs: make([][]byte, len(data.InputTxsInclusionProofs)),
		InFlightTxWitnesses:     make([][]byte, len(data.InFlightTxSigs)),
	}
	for i, b := range data.InputTxs {
		args.InputTxs[i] = b
	}
	for i, b := range data.InputTxsInclusionProofs {
		args.InputTxsInclusionProofs[i] = b
	}
	for i, b := range data.InFlightTxSigs {
		args.InFlightTxWitnesses[i] = b
	}
	return args
}

func decodeAnyTransaction(b []byte) (*plasma.Transaction, error) {
	tx, err := plasma.DecodeTransaction(b)
	if err == nil {
		return tx, nil
	}
	stx, serr := plasma.DecodeSignedTransaction(b)
	if serr != nil {
		return nil, err
	}
	return &stx.Transaction, nil
}
