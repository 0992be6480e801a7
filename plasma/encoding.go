package plasma

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Wire layout of a payment transaction:
//
//	[txType, [utxoPos...], [[outputType, [outputGuard, currency, amount]]...], txData, metadata]
//
// A signed transaction prepends the list of signatures.

type rlpOutputData struct {
	OutputGuard common.Address
	Currency    common.Address
	Amount      *big.Int
}

type rlpOutput struct {
	OutputType uint64
	Data       rlpOutputData
}

type rlpTx struct {
	TxType   uint64
	Inputs   [][32]byte
	Outputs  []rlpOutput
	TxData   uint64
	Metadata [32]byte
}

type rlpSignedTx struct {
	Sigs     []Signature
	TxType   uint64
	Inputs   [][32]byte
	Outputs  []rlpOutput
	TxData   uint64
	Metadata [32]byte
}

var ErrEmptyTxBytes = errors.New("empty transaction bytes")

func (tx *Transaction) toRLP() (*rlpTx, error) {
	if len(tx.Inputs) > MaxInputs {
		return nil, ErrInvalidTx("too many inputs: %d", len(tx.Inputs))
	}
	if len(tx.Outputs) > MaxOutputs {
		return nil, ErrInvalidTx("too many outputs: %d", len(tx.Outputs))
	}

	r := &rlpTx{
		TxType:   tx.TxType,
		Inputs:   make([][32]byte, 0, len(tx.Inputs)),
		Outputs:  make([]rlpOutput, 0, len(tx.Outputs)),
		Metadata: tx.Metadata,
	}
	for _, in := range tx.Inputs {
		r.Inputs = append(r.Inputs, in.Word())
	}
	for i, out := range tx.Outputs {
		if out.Amount == nil || out.Amount.Sign() < 0 {
			return nil, ErrInvalidTx("output %d has invalid amount", i)
		}
		r.Outputs = append(r.Outputs, rlpOutput{
			OutputType: out.OutputType,
			Data: rlpOutputData{
				OutputGuard: out.Owner,
				Currency:    out.Currency,
				Amount:      out.Amount,
			},
		})
	}
	return r, nil
}

func fromRLP(txType uint64, inputs [][32]byte, outputs []rlpOutput, metadata [32]byte) (*Transaction, error) {
	tx := &Transaction{
		TxType:   txType,
		Inputs:   make([]Utxo, 0, len(inputs)),
		Outputs:  make([]Output, 0, len(outputs)),
		Metadata: metadata,
	}
	for _, w := range inputs {
		pos, err := positionFromWord(w)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, Utxo{Position: pos})
	}
	for _, out := range outputs {
		tx.Outputs = append(tx.Outputs, Output{
			OutputType: out.OutputType,
			Owner:      out.Data.OutputGuard,
			Currency:   out.Data.Currency,
			Amount:     out.Data.Amount,
		})
	}
	return tx, nil
}

// Encode returns the canonical RLP bytes of the unsigned transaction.
func (tx *Transaction) Encode() ([]byte, error) {
	r, err := tx.toRLP()
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(r)
}

// Hash is keccak256 of the unsigned encoding, the child chain tx hash.
func (tx *Transaction) Hash() (common.Hash, error) {
	b, err := tx.Encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(b), nil
}

// Encode returns the RLP bytes with the signature list prepended.
func (stx *SignedTransaction) Encode() ([]byte, error) {
	if len(stx.Signatures) != len(stx.Inputs) {
		return nil, ErrSigCountMismatch(len(stx.Inputs), len(stx.Signatures))
	}
	r, err := stx.Transaction.toRLP()
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&rlpSignedTx{
		Sigs:     stx.Signatures,
		TxType:   r.TxType,
		Inputs:   r.Inputs,
		Outputs:  r.Outputs,
		TxData:   r.TxData,
		Metadata: r.Metadata,
	})
}

func DecodeTransaction(b []byte) (*Transaction, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTxBytes
	}
	var r rlpTx
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	return fromRLP(r.TxType, r.Inputs, r.Outputs, r.Metadata)
}

func DecodeSignedTransaction(b []byte) (*SignedTransaction, error) {
	if len(b) == 0 {
		return nil, ErrEmptyTxBytes
	}
	var r rlpSignedTx
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	tx, err := fromRLP(r.TxType, r.Inputs, r.Outputs, r.Metadata)
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{Transaction: *tx, Signatures: r.Sigs}, nil
}

// EncodeDeposit encodes the single-output, input-less transaction sent to a vault.
func EncodeDeposit(owner, currency common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidTx("deposit amount must be positive")
	}
	tx := &Transaction{
		TxType: PaymentTxType,
		Outputs: []Output{{
			OutputType: PaymentOutputType,
			Owner:      owner,
			Currency:   currency,
			Amount:     amount,
		}},
		Metadata: NullMetadata,
	}
	return tx.Encode()
}
