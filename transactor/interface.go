package transactor

import (
	"context"
	"math/big"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/utxo"
	"github.com/ethereum/go-ethereum/common"
)

// ChildChain is the watcher as seen by the transactor. It is implemented by
// childchain.Client.
type ChildChain interface {
	utxo.Source

	Submit(ctx context.Context, stx *plasma.SignedTransaction) (*childchain.Receipt, error)
	WaitForBalance(ctx context.Context, address, currency common.Address, expected *big.Int, poll childchain.PollConfig) error
	WaitForUtxo(ctx context.Context, address common.Address, pos plasma.Position, poll childchain.PollConfig) error
}

var _ ChildChain = (*childchain.Client)(nil)
