package exitmanager

import (
	"context"
	"math/big"

	"github.com/TEENet-io/plasma-go/childchain"
)

// Watcher serves the exit data the exit game needs. It is implemented by
// childchain.Client.
type Watcher interface {
	// GetExitData returns the output transaction and its inclusion proof.
	GetExitData(ctx context.Context, utxoPos *big.Int) (*childchain.ExitData, error)

	// InFlightExitGetData returns the in-flight transaction with its input
	// transactions, their positions and inclusion proofs, and the signatures.
	InFlightExitGetData(ctx context.Context, signedTxBytes []byte) (*childchain.InFlightExitData, error)
}

var _ Watcher = (*childchain.Client)(nil)
