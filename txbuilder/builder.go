package txbuilder

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// Build assembles a payment transaction spending inputs owned by owner.
//
// Outputs are the payments in the given order followed by one change output
// per currency with a positive remainder, sorted by currency. Inputs are put
// in ascending utxo position so the encoding does not depend on the order the
// caller collected them in.
func Build(
	owner common.Address,
	inputs []plasma.Utxo,
	payments []plasma.PaymentRequest,
	fee plasma.Fee,
	metadata [32]byte,
) (*plasma.Transaction, error) {
	if err := checkInputs(owner, inputs, 1); err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, plasma.ErrInvalidTx("no payments")
	}

	funded := plasma.Balances{}
	for _, in := range inputs {
		funded.Add(in.Currency, in.Amount)
	}

	required := plasma.Balances{}
	for i, p := range payments {
		if p.Amount == nil || p.Amount.Sign() <= 0 {
			return nil, plasma.ErrInvalidTx("payment %d has non-positive amount", i)
		}
		required.Add(p.Currency, p.Amount)
	}
	if fee.Amount != nil {
		if fee.Amount.Sign() < 0 {
			return nil, plasma.ErrInvalidTx("negative fee")
		}
		if fee.Amount.Sign() > 0 {
			required.Add(fee.Currency, fee.Amount)
		}
	}

	for currency, amount := range required {
		have, ok := funded[currency]
		if !ok {
			return nil, plasma.ErrInvalidTx("no funded input for currency %s", currency.Hex())
		}
		if have.Cmp(amount) < 0 {
			return nil, plasma.ErrInvalidTx("inputs of %s hold %s, need %s", currency.Hex(), have, amount)
		}
	}
	for currency := range funded {
		if _, ok := required[currency]; !ok {
			return nil, plasma.ErrInvalidTx("input currency %s is not spent by any payment or fee", currency.Hex())
		}
	}

	outputs := make([]plasma.Output, 0, plasma.MaxOutputs)
	for _, p := range payments {
		outputs = append(outputs, plasma.Output{
			OutputType: plasma.PaymentOutputType,
			Owner:      p.Recipient,
			Currency:   p.Currency,
			Amount:     new(big.Int).Set(p.Amount),
		})
	}
	for _, currency := range sortedCurrencies(funded) {
		change := new(big.Int).Sub(funded[currency], required[currency])
		if change.Sign() == 0 {
			continue
		}
		outputs = append(outputs, plasma.Output{
			OutputType: plasma.PaymentOutputType,
			Owner:      owner,
			Currency:   currency,
			Amount:     change,
		})
	}
	if len(outputs) > plasma.MaxOutputs {
		return nil, plasma.ErrInvalidTx("%d outputs including change, at most %d allowed", len(outputs), plasma.MaxOutputs)
	}

	feeAmount := new(big.Int)
	if fee.Amount != nil {
		feeAmount.Set(fee.Amount)
	}

	tx := &plasma.Transaction{
		TxType:   plasma.PaymentTxType,
		Inputs:   canonicalInputs(inputs),
		Outputs:  outputs,
		Fee:      plasma.Fee{Currency: fee.Currency, Amount: feeAmount},
		Metadata: metadata,
	}

	logger.WithFields(logger.Fields{
		"owner":   owner.Hex(),
		"inputs":  len(tx.Inputs),
		"outputs": len(tx.Outputs),
		"fee":     feeAmount.String(),
	}).Debug("built payment transaction")

	return tx, nil
}

// BuildMerge joins 2 to 4 outputs of one currency into a single output back
// to owner. Merges pay no fee.
func BuildMerge(owner common.Address, inputs []plasma.Utxo) (*plasma.Transaction, error) {
	if len(inputs) < 2 {
		return nil, plasma.ErrTooFewUtxos
	}
	if err := checkInputs(owner, inputs, 2); err != nil {
		return nil, err
	}

	currency := inputs[0].Currency
	total := new(big.Int)
	for _, in := range inputs {
		if in.Currency != currency {
			return nil, plasma.ErrInvalidTx("merge inputs mix currencies %s and %s", currency.Hex(), in.Currency.Hex())
		}
		total.Add(total, in.Amount)
	}

	return &plasma.Transaction{
		TxType: plasma.PaymentTxType,
		Inputs: canonicalInputs(inputs),
		Outputs: []plasma.Output{{
			OutputType: plasma.PaymentOutputType,
			Owner:      owner,
			Currency:   currency,
			Amount:     total,
		}},
		Fee:      plasma.Fee{Currency: currency, Amount: new(big.Int)},
		Metadata: plasma.NullMetadata,
	}, nil
}

// BuildDeposit returns the encoded deposit transaction for a vault.
func BuildDeposit(owner, currency common.Address, amount *big.Int) ([]byte, error) {
	return plasma.EncodeDeposit(owner, currency, amount)
}

func checkInputs(owner common.Address, inputs []plasma.Utxo, min int) error {
	if len(inputs) < min {
		return plasma.ErrInvalidTx("need at least %d input(s), got %d", min, len(inputs))
	}
	if len(inputs) > plasma.MaxInputs {
		return plasma.ErrInvalidTx("%d inputs, at most %d allowed", len(inputs), plasma.MaxInputs)
	}

	seen := make(map[plasma.Position]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.Position]; ok {
			return plasma.ErrInvalidTx("duplicate input %s", in.Position)
		}
		seen[in.Position] = struct{}{}

		if in.Owner != owner {
			return plasma.ErrInvalidTx("input %s owned by %s, not %s", in.Position, in.Owner.Hex(), owner.Hex())
		}
		if in.Amount == nil || in.Amount.Sign() <= 0 {
			return plasma.ErrInvalidTx("input %s has non-positive amount", in.Position)
		}
	}
	return nil
}

func canonicalInputs(inputs []plasma.Utxo) []plasma.Utxo {
	sorted := make([]plasma.Utxo, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UtxoPos().Cmp(sorted[j].UtxoPos()) < 0
	})
	return sorted
}

func sortedCurrencies(b plasma.Balances) []common.Address {
	currencies := make([]common.Address, 0, len(b))
	for c := range b {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool {
		return bytes.Compare(currencies[i][:], currencies[j][:]) < 0
	})
	return currencies
}
