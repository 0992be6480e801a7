package utxo

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenX = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeSource struct {
	utxos []plasma.Utxo
	err   error
	calls int
}

func (f *fakeSource) GetUtxos(_ context.Context, address common.Address) ([]plasma.Utxo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return FilterByOwner(f.utxos, address), nil
}

func (f *fakeSource) GetBalance(ctx context.Context, address common.Address) (plasma.Balances, error) {
	utxos, err := f.GetUtxos(ctx, address)
	if err != nil {
		return nil, err
	}
	b := plasma.Balances{}
	for _, u := range utxos {
		b.Add(u.Currency, u.Amount)
	}
	return b, nil
}

func mk(blknum uint64, who, currency common.Address, amount int64) plasma.Utxo {
	pos, _ := plasma.NewPosition(blknum, 0, 0)
	return plasma.Utxo{Position: pos, Owner: who, Currency: currency, Amount: big.NewInt(amount)}
}

func pay(currency common.Address, amount int64) []plasma.PaymentRequest {
	return []plasma.PaymentRequest{{Recipient: other, Currency: currency, Amount: big.NewInt(amount)}}
}

func TestSelectInputsTwelveFromTenAndFive(t *testing.T) {
	utxos := []plasma.Utxo{mk(1000, owner, tokenX, 10), mk(2000, owner, tokenX, 5)}

	selected, err := SelectInputs(utxos, owner, pay(tokenX, 12), plasma.Fee{Currency: tokenX, Amount: big.NewInt(0)})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, big.NewInt(15), Sum(selected))
}

func TestSelectInputsLargestFirst(t *testing.T) {
	utxos := []plasma.Utxo{
		mk(1000, owner, tokenX, 1),
		mk(2000, owner, tokenX, 8),
		mk(3000, owner, tokenX, 4),
		mk(4000, owner, plasma.EthCurrency, 9),
	}

	selected, err := SelectInputs(utxos, owner, pay(tokenX, 8), plasma.Fee{Currency: plasma.EthCurrency, Amount: big.NewInt(2)})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	// eth sorts before tokenX
	assert.Equal(t, plasma.EthCurrency, selected[0].Currency)
	assert.Equal(t, big.NewInt(8), selected[1].Amount)
}

func TestSelectInputsInsufficient(t *testing.T) {
	utxos := []plasma.Utxo{
		mk(1000, owner, tokenX, 10),
		mk(2000, owner, tokenX, 5),
		mk(3000, other, tokenX, 100),
	}
	noFee := plasma.Fee{Currency: tokenX, Amount: big.NewInt(0)}

	_, err := SelectInputs(utxos, owner, pay(tokenX, 16), noFee)
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)

	_, err = SelectInputs(utxos, owner, pay(tokenX, 15), plasma.Fee{Currency: tokenX, Amount: big.NewInt(1)})
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)

	_, err = SelectInputs(utxos, owner, pay(plasma.EthCurrency, 1), noFee)
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)

	_, err = SelectInputs(nil, owner, pay(tokenX, 1), noFee)
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)

	// enough in total but spread over more than four outputs
	dust := []plasma.Utxo{
		mk(1, owner, tokenX, 1), mk(2, owner, tokenX, 1), mk(3, owner, tokenX, 1),
		mk(4, owner, tokenX, 1), mk(5, owner, tokenX, 1),
	}
	_, err = SelectInputs(dust, owner, pay(tokenX, 5), noFee)
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)

	_, err = SelectInputs(utxos, owner, pay(tokenX, 0), noFee)
	assert.ErrorIs(t, err, plasma.ErrInvalidTransaction)
}

func TestSelectMerge(t *testing.T) {
	_, err := SelectMerge(nil, tokenX)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)

	_, err = SelectMerge([]plasma.Utxo{mk(1000, owner, tokenX, 1)}, tokenX)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)

	_, err = SelectMerge([]plasma.Utxo{mk(1000, owner, tokenX, 1), mk(2000, owner, plasma.EthCurrency, 1)}, tokenX)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)

	utxos := []plasma.Utxo{
		mk(1000, owner, tokenX, 50),
		mk(2000, owner, tokenX, 3),
		mk(3000, owner, tokenX, 7),
		mk(4000, owner, tokenX, 1),
		mk(5000, owner, tokenX, 2),
	}
	selected, err := SelectMerge(utxos, tokenX)
	require.NoError(t, err)
	require.Len(t, selected, 4)
	assert.Equal(t, big.NewInt(13), Sum(selected))
}

func TestManagerRefetches(t *testing.T) {
	src := &fakeSource{utxos: []plasma.Utxo{
		mk(1000, owner, tokenX, 10),
		mk(2000, owner, plasma.EthCurrency, 5),
	}}
	m := NewManager(src)
	ctx := context.Background()

	utxos, err := m.GetUtxosByCurrency(ctx, owner, tokenX)
	require.NoError(t, err)
	assert.Len(t, utxos, 1)

	balances, err := m.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), balances.Get(plasma.EthCurrency))

	src.utxos = append(src.utxos, mk(3000, owner, tokenX, 4))
	utxos, err = m.GetUtxosByCurrency(ctx, owner, tokenX)
	require.NoError(t, err)
	assert.Len(t, utxos, 2)
	assert.Equal(t, 3, src.calls)

	selected, err := m.SelectInputs(ctx, owner, pay(tokenX, 12), plasma.Fee{Currency: tokenX, Amount: big.NewInt(1)})
	require.NoError(t, err)
	assert.Len(t, selected, 2)

	_, err = m.SelectMerge(ctx, owner, plasma.EthCurrency)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)

	boom := errors.New("boom")
	src.err = boom
	_, err = m.GetUtxos(ctx, owner)
	assert.ErrorIs(t, err, boom)
}
