package plasma

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChildBlockInterval separates operator-submitted block numbers (multiples of
// it) from deposit block numbers (everything in between).
const ChildBlockInterval = 1000

const (
	exitIdBits       = 160
	priorityTxPosBit = 160
	priorityTimeBit  = 214
	txPosBits        = priorityTimeBit - priorityTxPosBit
)

var (
	exitIdMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), exitIdBits), big.NewInt(1))
	txPosMask  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), txPosBits), big.NewInt(1))
	inFlightId = new(big.Int).Lsh(big.NewInt(1), exitIdBits-1)
)

// IsDeposit reports whether blknum belongs to a deposit block.
func IsDeposit(blknum uint64) bool {
	return blknum%ChildBlockInterval != 0
}

// StandardExitId mirrors the exit game's id derivation. Deposit outputs mix
// the utxo position into the hash because deposit txs can repeat.
func StandardExitId(isDeposit bool, txBytes []byte, utxoPos *big.Int) (*big.Int, error) {
	if len(txBytes) == 0 {
		return nil, ErrEmptyTxBytes
	}
	pos, err := DecodePosition(utxoPos)
	if err != nil {
		return nil, err
	}

	var hash []byte
	if isDeposit {
		hash = crypto.Keccak256(txBytes, math.U256Bytes(new(big.Int).Set(utxoPos)))
	} else {
		hash = crypto.Keccak256(txBytes)
	}

	exitId := new(big.Int).Rsh(new(big.Int).SetBytes(hash), 105)
	exitId.Or(exitId, new(big.Int).Lsh(new(big.Int).SetUint64(pos.OutputIndex), 152))
	if exitId.BitLen() > exitIdBits {
		return nil, fmt.Errorf("exit id overflows: output index %d", pos.OutputIndex)
	}
	return exitId, nil
}

// InFlightExitId sets the top bit so in-flight ids never collide with standard ones.
func InFlightExitId(txBytes []byte) (*big.Int, error) {
	if len(txBytes) == 0 {
		return nil, ErrEmptyTxBytes
	}
	exitId := new(big.Int).Rsh(new(big.Int).SetBytes(crypto.Keccak256(txBytes)), 256-(exitIdBits-1))
	return exitId.Or(exitId, inFlightId), nil
}

func IsInFlightExitId(exitId *big.Int) bool {
	return exitId != nil && exitId.Bit(exitIdBits-1) == 1
}

// ExitPriority packs exitableAt | txPos | exitId into the queue key.
func ExitPriority(exitableAt uint64, txPos, exitId *big.Int) *big.Int {
	p := new(big.Int).Lsh(new(big.Int).SetUint64(exitableAt), priorityTimeBit)
	p.Or(p, new(big.Int).Lsh(new(big.Int).And(txPos, txPosMask), priorityTxPosBit))
	return p.Or(p, new(big.Int).And(exitId, exitIdMask))
}

// ExitQueueEntry is one element of a per-currency exit queue.
type ExitQueueEntry struct {
	Priority   *big.Int
	ExitableAt uint64
	TxPos      *big.Int
	ExitId     *big.Int
}

func ParseExitPriority(priority *big.Int) ExitQueueEntry {
	exitableAt := new(big.Int).Rsh(priority, priorityTimeBit)
	txPos := new(big.Int).Rsh(priority, priorityTxPosBit)
	return ExitQueueEntry{
		Priority:   new(big.Int).Set(priority),
		ExitableAt: exitableAt.Uint64(),
		TxPos:      txPos.And(txPos, txPosMask),
		ExitId:     new(big.Int).And(priority, exitIdMask),
	}
}

// SortExitQueue orders entries soonest-exitable first.
func SortExitQueue(entries []ExitQueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority.Cmp(entries[j].Priority) < 0
	})
}

// ExitableAt follows the framework's exitable timestamp calculator. now and
// blockTimestamp are unix seconds, minExitPeriod in seconds.
func ExitableAt(now, blockTimestamp, minExitPeriod uint64, isDeposit bool) uint64 {
	if isDeposit {
		return now + minExitPeriod
	}
	fromBlock := blockTimestamp + 2*minExitPeriod
	fromNow := now + minExitPeriod
	if fromBlock > fromNow {
		return fromBlock
	}
	return fromNow
}
