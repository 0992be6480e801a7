/*
This file contains filter/select operations on UTXO sets.
*/
package utxo

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
)

func Sum(utxos []plasma.Utxo) *big.Int {
	total := new(big.Int)
	for _, u := range utxos {
		if u.Amount != nil {
			total.Add(total, u.Amount)
		}
	}
	return total
}

func FilterByCurrency(utxos []plasma.Utxo, currency common.Address) []plasma.Utxo {
	var res []plasma.Utxo
	for _, u := range utxos {
		if u.Currency == currency {
			res = append(res, u)
		}
	}
	return res
}

func FilterByOwner(utxos []plasma.Utxo, owner common.Address) []plasma.Utxo {
	var res []plasma.Utxo
	for _, u := range utxos {
		if u.Owner == owner {
			res = append(res, u)
		}
	}
	return res
}

// SortByAmountDesc sorts largest first, ties broken by position so the
// selection is deterministic.
func SortByAmountDesc(utxos []plasma.Utxo) {
	sort.SliceStable(utxos, func(i, j int) bool {
		if c := utxos[i].Amount.Cmp(utxos[j].Amount); c != 0 {
			return c > 0
		}
		return utxos[i].UtxoPos().Cmp(utxos[j].UtxoPos()) < 0
	})
}

func sortByAmountAsc(utxos []plasma.Utxo) {
	sort.SliceStable(utxos, func(i, j int) bool {
		if c := utxos[i].Amount.Cmp(utxos[j].Amount); c != 0 {
			return c < 0
		}
		return utxos[i].UtxoPos().Cmp(utxos[j].UtxoPos()) < 0
	})
}

// Required sums payments and fee per currency.
func Required(payments []plasma.PaymentRequest, fee plasma.Fee) (plasma.Balances, error) {
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
	return required, nil
}

// SelectInputs picks, per currency, the largest outputs of owner until
// payments plus fee are covered. The whole selection must fit in one
// transaction.
func SelectInputs(
	utxos []plasma.Utxo,
	owner common.Address,
	payments []plasma.PaymentRequest,
	fee plasma.Fee,
) ([]plasma.Utxo, error) {
	required, err := Required(payments, fee)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		return nil, plasma.ErrInvalidTx("nothing to pay")
	}

	owned := FilterByOwner(utxos, owner)

	currencies := make([]common.Address, 0, len(required))
	for c := range required {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool {
		return bytes.Compare(currencies[i][:], currencies[j][:]) < 0
	})

	var selected []plasma.Utxo
	for _, currency := range currencies {
		need := required[currency]
		candidates := FilterByCurrency(owned, currency)
		if Sum(candidates).Cmp(need) < 0 {
			return nil, fmt.Errorf("%w: %s of %s available, %s required",
				plasma.ErrInsufficientFunds, Sum(candidates), currency.Hex(), need)
		}

		SortByAmountDesc(candidates)
		covered := new(big.Int)
		for _, u := range candidates {
			selected = append(selected, u)
			covered.Add(covered, u.Amount)
			if covered.Cmp(need) >= 0 {
				break
			}
		}
	}

	if len(selected) > plasma.MaxInputs {
		return nil, fmt.Errorf("%w: covering the payment needs %d inputs, at most %d fit in a transaction",
			plasma.ErrInsufficientFunds, len(selected), plasma.MaxInputs)
	}
	return selected, nil
}

// SelectMerge picks up to four outputs of currency, smallest first.
func SelectMerge(utxos []plasma.Utxo, currency common.Address) ([]plasma.Utxo, error) {
	candidates := FilterByCurrency(utxos, currency)
	if len(candidates) < 2 {
		return nil, fmt.Errorf("%w: %d utxo(s) of %s, merge needs at least 2",
			plasma.ErrTooFewUtxos, len(candidates), currency.Hex())
	}

	sortByAmountAsc(candidates)
	if len(candidates) > plasma.MaxInputs {
		candidates = candidates[:plasma.MaxInputs]
	}
	return candidates, nil
}
