package childchain

import (
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Watcher endpoints.
const (
	EndpointGetBalance        = "account.get_balance"
	EndpointGetUtxos          = "account.get_utxos"
	EndpointCreateTransaction = "transaction.create"
	EndpointGetExitData       = "utxo.get_exit_data"
	EndpointInFlightExitData  = "in_flight_exit.get_data"
	EndpointSubmit            = "transaction.submit"
)

type envelope struct {
	Version string              `json:"version,omitempty"`
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
}

// WatcherError is an error reported by the watcher inside a success=false
// envelope.
type WatcherError struct {
	Endpoint    string `json:"-"`
	Object      string `json:"object"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *WatcherError) Error() string {
	return fmt.Sprintf("watcher %s failed: %s (%s)", e.Endpoint, e.Code, e.Description)
}

type addressRequest struct {
	Address common.Address `json:"address"`
}

type balanceItem struct {
	Currency common.Address `json:"currency"`
	Amount   *big.Int       `json:"amount"`
}

type utxoItem struct {
	Blknum         uint64         `json:"blknum"`
	Txindex        uint64         `json:"txindex"`
	Oindex         uint64         `json:"oindex"`
	Owner          common.Address `json:"owner"`
	Currency       common.Address `json:"currency"`
	Amount         *big.Int       `json:"amount"`
	UtxoPos        *big.Int       `json:"utxo_pos,omitempty"`
	CreatingTxHash string         `json:"creating_txhash,omitempty"`
}

func (u *utxoItem) toUtxo() (plasma.Utxo, error) {
	pos, err := plasma.NewPosition(u.Blknum, u.Txindex, u.Oindex)
	if err != nil {
		return plasma.Utxo{}, err
	}
	if u.Amount == nil {
		return plasma.Utxo{}, fmt.Errorf("utxo %s has no amount", pos)
	}
	return plasma.Utxo{
		Position: pos,
		Owner:    u.Owner,
		Currency: u.Currency,
		Amount:   u.Amount,
	}, nil
}

type exitDataRequest struct {
	UtxoPos *big.Int `json:"utxo_pos"`
}

// ExitData is what the exit game needs to start a standard exit.
type ExitData struct {
	Proof   hexutil.Bytes `json:"proof"`
	TxBytes hexutil.Bytes `json:"txbytes"`
	UtxoPos *big.Int      `json:"utxo_pos"`
}

type txBytesRequest struct {
	TxBytes hexutil.Bytes `json:"txbytes"`
}

// InFlightExitData is the bundle needed to start an in-flight exit.
type InFlightExitData struct {
	InFlightTx              hexutil.Bytes   `json:"in_flight_tx"`
	InputTxs                []hexutil.Bytes `json:"input_txs"`
	InputUtxosPos           []*big.Int      `json:"input_utxos_pos"`
	InputTxsInclusionProofs []hexutil.Bytes `json:"input_txs_inclusion_proofs"`
	InFlightTxSigs          []hexutil.Bytes `json:"in_flight_tx_sigs"`
}

type submitRequest struct {
	Transaction hexutil.Bytes `json:"transaction"`
}

// Receipt is returned by transaction.submit.
type Receipt struct {
	BlockNumber uint64      `json:"blknum"`
	TxIndex     uint64      `json:"txindex"`
	TxHash      common.Hash `json:"txhash"`
}

type createPayment struct {
	Owner    common.Address `json:"owner"`
	Currency common.Address `json:"currency"`
	Amount   *big.Int       `json:"amount"`
}

type createFee struct {
	Currency common.Address `json:"currency"`
}

type createRequest struct {
	Owner    common.Address  `json:"owner"`
	Payments []createPayment `json:"payments"`
	Fee      createFee       `json:"fee"`
	Metadata string          `json:"metadata,omitempty"`
}

// CreatedTransaction is one transaction proposed by transaction.create.
type CreatedTransaction struct {
	TxBytes  hexutil.Bytes `json:"txbytes"`
	SignHash common.Hash   `json:"sign_hash"`
}

type CreateResult struct {
	// "complete" when a single transaction pays everything, "intermediate"
	// when the watcher suggests merges first.
	Result       string               `json:"result"`
	Transactions []CreatedTransaction `json:"transactions"`
}
