package exitmanager

import (
	"context"
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MockWatcher serves exit data for transactions registered with AddOutputTx.
type MockWatcher struct {
	outputs map[string][]byte // utxoPos => tx holding the output
	Err     error
}

func NewMockWatcher() *MockWatcher {
	return &MockWatcher{outputs: map[string][]byte{}}
}

// AddOutputTx makes every output of tx, mined at (blknum, txindex), exitable.
func (w *MockWatcher) AddOutputTx(blknum, txindex uint64, tx *plasma.Transaction) error {
	b, err := tx.Encode()
	if err != nil {
		return err
	}
	for i := range tx.Outputs {
		pos, err := plasma.NewPosition(blknum, txindex, uint64(i))
		if err != nil {
			return err
		}
		w.outputs[pos.UtxoPos().String()] = b
	}
	return nil
}

func (w *MockWatcher) GetExitData(_ context.Context, utxoPos *big.Int) (*childchain.ExitData, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	b, ok := w.outputs[utxoPos.String()]
	if !ok {
		return nil, &childchain.WatcherError{
			Endpoint:    childchain.EndpointGetExitData,
			Code:        "exit:invalid",
			Description: fmt.Sprintf("no output at %s", utxoPos),
		}
	}
	return &childchain.ExitData{
		Proof:   make(hexutil.Bytes, 32*16),
		TxBytes: b,
		UtxoPos: new(big.Int).Set(utxoPos),
	}, nil
}

func (w *MockWatcher) InFlightExitGetData(_ context.Context, signedTxBytes []byte) (*childchain.InFlightExitData, error) {
	if w.Err != nil {
		return nil, w.Err
	}
	stx, err := plasma.DecodeSignedTransaction(signedTxBytes)
	if err != nil {
		return nil, err
	}
	inFlightTx, err := stx.Transaction.Encode()
	if err != nil {
		return nil, err
	}

	data := &childchain.InFlightExitData{InFlightTx: inFlightTx}
	for i, in := range stx.Inputs {
		utxoPos := in.UtxoPos()
		data.InputTxs = append(data.InputTxs, w.outputs[utxoPos.String()])
		data.InputUtxosPos = append(data.InputUtxosPos, utxoPos)
		data.InputTxsInclusionProofs = append(data.InputTxsInclusionProofs, make(hexutil.Bytes, 32*16))
		data.InFlightTxSigs = append(data.InFlightTxSigs, stx.Signatures[i].Bytes())
	}
	return data, nil
}

var _ Watcher = (*MockWatcher)(nil)
