package plasma

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

const (
	// BlockOffset and TxOffset are the multipliers used by the plasma
	// framework to pack (blknum, txindex, oindex) into a single uint256.
	BlockOffset = 1_000_000_000
	TxOffset    = 10_000

	MaxTxIndex     = BlockOffset/TxOffset - 1
	MaxOutputIndex = TxOffset - 1
)

var (
	bigBlockOffset = big.NewInt(BlockOffset)
	bigTxOffset    = big.NewInt(TxOffset)
)

// Position identifies an output on the child chain.
type Position struct {
	BlockNumber uint64
	TxIndex     uint64
	OutputIndex uint64
}

func NewPosition(blknum, txindex, oindex uint64) (Position, error) {
	if txindex > MaxTxIndex {
		return Position{}, fmt.Errorf("tx index out of range: %d", txindex)
	}
	if oindex > MaxOutputIndex {
		return Position{}, fmt.Errorf("output index out of range: %d", oindex)
	}
	return Position{BlockNumber: blknum, TxIndex: txindex, OutputIndex: oindex}, nil
}

// UtxoPos returns blknum * 1e9 + txindex * 1e4 + oindex.
func (p Position) UtxoPos() *big.Int {
	pos := new(big.Int).Mul(new(big.Int).SetUint64(p.BlockNumber), bigBlockOffset)
	pos.Add(pos, new(big.Int).Mul(new(big.Int).SetUint64(p.TxIndex), bigTxOffset))
	return pos.Add(pos, new(big.Int).SetUint64(p.OutputIndex))
}

// TxPos is the position of the transaction holding the output, i.e. utxoPos / 1e4.
func (p Position) TxPos() *big.Int {
	return new(big.Int).Div(p.UtxoPos(), bigTxOffset)
}

// Word is the utxoPos as a 32-byte big-endian word, the form used for tx inputs.
func (p Position) Word() [32]byte {
	var w [32]byte
	copy(w[:], math.U256Bytes(p.UtxoPos()))
	return w
}

func (p Position) IsZero() bool {
	return p.BlockNumber == 0 && p.TxIndex == 0 && p.OutputIndex == 0
}

func (p Position) Equal(o Position) bool {
	return p.BlockNumber == o.BlockNumber && p.TxIndex == o.TxIndex && p.OutputIndex == o.OutputIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%d/%d/%d", p.BlockNumber, p.TxIndex, p.OutputIndex)
}

// DecodePosition unpacks an encoded utxoPos.
func DecodePosition(utxoPos *big.Int) (Position, error) {
	if utxoPos == nil || utxoPos.Sign() < 0 {
		return Position{}, fmt.Errorf("invalid utxo position: %v", utxoPos)
	}

	blknum, rest := new(big.Int).QuoRem(utxoPos, bigBlockOffset, new(big.Int))
	if !blknum.IsUint64() {
		return Position{}, fmt.Errorf("block number out of range: %v", blknum)
	}
	txindex, oindex := new(big.Int).QuoRem(rest, bigTxOffset, new(big.Int))

	return Position{
		BlockNumber: blknum.Uint64(),
		TxIndex:     txindex.Uint64(),
		OutputIndex: oindex.Uint64(),
	}, nil
}

func positionFromWord(w [32]byte) (Position, error) {
	return DecodePosition(new(big.Int).SetBytes(w[:]))
}
