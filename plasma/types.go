package plasma

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	MaxInputs  = 4
	MaxOutputs = 4

	PaymentTxType     = 1
	PaymentOutputType = 1

	SignatureLength = 65

	// Vault ids registered in the plasma framework.
	EthVaultId   = 1
	Erc20VaultId = 2
)

// EthCurrency is the sentinel currency of the native asset.
var EthCurrency = common.Address{}

// NullMetadata is the metadata used when the caller provides none.
var NullMetadata = [32]byte{}

func IsEth(currency common.Address) bool {
	return currency == EthCurrency
}

// VaultId returns the vault that holds the given currency on the root chain.
func VaultId(currency common.Address) int64 {
	if IsEth(currency) {
		return EthVaultId
	}
	return Erc20VaultId
}

// Utxo is an unspent output owned by Owner.
type Utxo struct {
	Position

	Owner    common.Address
	Currency common.Address
	Amount   *big.Int
}

// PaymentRequest asks the builder to pay Amount of Currency to Recipient.
type PaymentRequest struct {
	Recipient common.Address
	Currency  common.Address
	Amount    *big.Int
}

type Fee struct {
	Currency common.Address
	Amount   *big.Int
}

type Output struct {
	OutputType uint64
	Owner      common.Address // output guard
	Currency   common.Address
	Amount     *big.Int
}

// Transaction is an unsigned payment transaction. Inputs carry full utxo
// records when built locally and positions only when decoded.
type Transaction struct {
	TxType   uint64
	Inputs   []Utxo
	Outputs  []Output
	Fee      Fee
	Metadata [32]byte
}

type Signature [SignatureLength]byte

func (s Signature) Bytes() []byte {
	return s[:]
}

// SignedTransaction carries one signature per input, in input order.
type SignedTransaction struct {
	Transaction
	Signatures []Signature
}

// Balances maps currency to total amount.
type Balances map[common.Address]*big.Int

// Get returns the amount held in currency, zero when absent.
func (b Balances) Get(currency common.Address) *big.Int {
	if amount, ok := b[currency]; ok && amount != nil {
		return new(big.Int).Set(amount)
	}
	return new(big.Int)
}

func (b Balances) Add(currency common.Address, amount *big.Int) {
	if amount == nil {
		return
	}
	if cur, ok := b[currency]; ok && cur != nil {
		b[currency] = new(big.Int).Add(cur, amount)
		return
	}
	b[currency] = new(big.Int).Set(amount)
}

// Positions returns the input positions in order.
func (tx *Transaction) Positions() []Position {
	positions := make([]Position, len(tx.Inputs))
	for i, in := range tx.Inputs {
		positions[i] = in.Position
	}
	return positions
}

// OutputIndexOf returns the index of the first output guarded by owner.
func (tx *Transaction) OutputIndexOf(owner common.Address) (int, bool) {
	for i, out := range tx.Outputs {
		if out.Owner == owner {
			return i, true
		}
	}
	return -1, false
}

// ImpliedFee recomputes the fee paid in currency as inputs minus outputs.
// inputs must carry amounts; decoded transactions only know positions.
func ImpliedFee(inputs []Utxo, outputs []Output, currency common.Address) *big.Int {
	fee := new(big.Int)
	for _, in := range inputs {
		if in.Currency == currency && in.Amount != nil {
			fee.Add(fee, in.Amount)
		}
	}
	for _, out := range outputs {
		if out.Currency == currency && out.Amount != nil {
			fee.Sub(fee, out.Amount)
		}
	}
	return fee
}
