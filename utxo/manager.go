package utxo

import (
	"context"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// Source is the authoritative store of unspent outputs, normally the watcher.
type Source interface {
	GetUtxos(ctx context.Context, address common.Address) ([]plasma.Utxo, error)
	GetBalance(ctx context.Context, address common.Address) (plasma.Balances, error)
}

// Manager answers UTXO queries for an address. Nothing is cached: every call
// goes back to the source.
type Manager struct {
	source Source
}

func NewManager(source Source) *Manager {
	return &Manager{source: source}
}

func (m *Manager) GetUtxos(ctx context.Context, address common.Address) ([]plasma.Utxo, error) {
	return m.source.GetUtxos(ctx, address)
}

func (m *Manager) GetUtxosByCurrency(ctx context.Context, address, currency common.Address) ([]plasma.Utxo, error) {
	utxos, err := m.source.GetUtxos(ctx, address)
	if err != nil {
		return nil, err
	}
	return FilterByCurrency(utxos, currency), nil
}

func (m *Manager) GetBalance(ctx context.Context, address common.Address) (plasma.Balances, error) {
	return m.source.GetBalance(ctx, address)
}

// SelectInputs fetches owner's outputs and selects inputs covering payments and fee.
func (m *Manager) SelectInputs(
	ctx context.Context,
	owner common.Address,
	payments []plasma.PaymentRequest,
	fee plasma.Fee,
) ([]plasma.Utxo, error) {
	if _, err := Required(payments, fee); err != nil {
		return nil, err
	}

	utxos, err := m.source.GetUtxos(ctx, owner)
	if err != nil {
		return nil, err
	}

	selected, err := SelectInputs(utxos, owner, payments, fee)
	if err != nil {
		logger.WithFields(logger.Fields{
			"owner":     owner.Hex(),
			"available": len(utxos),
		}).Debugf("input selection failed: %v", err)
		return nil, err
	}
	return selected, nil
}

// SelectMerge fetches owner's outputs and selects a merge set of currency.
func (m *Manager) SelectMerge(ctx context.Context, owner, currency common.Address) ([]plasma.Utxo, error) {
	utxos, err := m.source.GetUtxos(ctx, owner)
	if err != nil {
		return nil, err
	}
	return SelectMerge(FilterByOwner(utxos, owner), currency)
}
