package childchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	logger "github.com/sirupsen/logrus"
)

var ErrEmptyWatcherURL = errors.New("watcher url is empty")

// Client talks to the watcher over its HTTP/JSON RPC. It keeps no state
// between calls.
type Client struct {
	cfg        *Config
	httpClient *http.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg.WatcherURL == "" {
		return nil, ErrEmptyWatcherURL
	}
	initPrometheusMetrics()

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) infoURL() string {
	return strings.TrimSuffix(c.cfg.WatcherURL, "/")
}

func (c *Client) securityURL() string {
	if c.cfg.WatcherProxyURL != "" {
		return strings.TrimSuffix(c.cfg.WatcherProxyURL, "/")
	}
	return c.infoURL()
}

func (c *Client) GetBalance(ctx context.Context, address common.Address) (plasma.Balances, error) {
	var items []balanceItem
	if err := c.post(ctx, c.infoURL(), EndpointGetBalance, &addressRequest{Address: address}, &items); err != nil {
		return nil, err
	}

	balances := plasma.Balances{}
	for _, item := range items {
		balances.Add(item.Currency, item.Amount)
	}
	return balances, nil
}

func (c *Client) GetUtxos(ctx context.Context, address common.Address) ([]plasma.Utxo, error) {
	var items []utxoItem
	if err := c.post(ctx, c.infoURL(), EndpointGetUtxos, &addressRequest{Address: address}, &items); err != nil {
		return nil, err
	}

	utxos := make([]plasma.Utxo, 0, len(items))
	for i := range items {
		u, err := items[i].toUtxo()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EndpointGetUtxos, err)
		}
		utxos = append(utxos, u)
	}
	return utxos, nil
}

// CreateTransaction asks the watcher to select inputs and build the
// transaction. The local builder is the primary path, this mirrors the
// watcher's own API.
func (c *Client) CreateTransaction(
	ctx context.Context,
	owner common.Address,
	payments []plasma.PaymentRequest,
	feeCurrency common.Address,
	metadata [32]byte,
) (*CreateResult, error) {
	req := &createRequest{
		Owner:    owner,
		Payments: make([]createPayment, 0, len(payments)),
		Fee:      createFee{Currency: feeCurrency},
	}
	for _, p := range payments {
		req.Payments = append(req.Payments, createPayment{Owner: p.Recipient, Currency: p.Currency, Amount: p.Amount})
	}
	if metadata != plasma.NullMetadata {
		req.Metadata = hexutil.Encode(metadata[:])
	}

	var res CreateResult
	if err := c.post(ctx, c.infoURL(), EndpointCreateTransaction, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetExitData(ctx context.Context, utxoPos *big.Int) (*ExitData, error) {
	var data ExitData
	if err := c.post(ctx, c.securityURL(), EndpointGetExitData, &exitDataRequest{UtxoPos: utxoPos}, &data); err != nil {
		return nil, err
	}
	if len(data.TxBytes) == 0 {
		return nil, fmt.Errorf("%s: empty txbytes for utxo %v", EndpointGetExitData, utxoPos)
	}
	return &data, nil
}

func (c *Client) InFlightExitGetData(ctx context.Context, signedTxBytes []byte) (*InFlightExitData, error) {
	if len(signedTxBytes) == 0 {
		return nil, plasma.ErrEmptyTxBytes
	}
	var data InFlightExitData
	if err := c.post(ctx, c.securityURL(), EndpointInFlightExitData, &txBytesRequest{TxBytes: signedTxBytes}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Submit sends a signed transaction. Only the encoding is checked locally;
// everything else is up to the child chain.
func (c *Client) Submit(ctx context.Context, stx *plasma.SignedTransaction) (*Receipt, error) {
	b, err := stx.Encode()
	if err != nil {
		return nil, err
	}
	return c.SubmitBytes(ctx, b)
}

func (c *Client) SubmitBytes(ctx context.Context, signedTxBytes []byte) (*Receipt, error) {
	if len(signedTxBytes) == 0 {
		return nil, plasma.ErrEmptyTxBytes
	}

	var receipt Receipt
	if err := c.post(ctx, c.securityURL(), EndpointSubmit, &submitRequest{Transaction: signedTxBytes}, &receipt); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"txhash":  receipt.TxHash.Hex(),
		"blknum":  receipt.BlockNumber,
		"txindex": receipt.TxIndex,
	}).Info("transaction submitted to child chain")

	return &receipt, nil
}

func (c *Client) post(ctx context.Context, baseURL, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		prometheusWatcherRequests.WithLabelValues(endpoint, "network_error").Inc()
		return fmt.Errorf("%w: %s: %v", plasma.ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		prometheusWatcherRequests.WithLabelValues(endpoint, "network_error").Inc()
		return fmt.Errorf("%w: %s: %v", plasma.ErrNetwork, endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		prometheusWatcherRequests.WithLabelValues(endpoint, "network_error").Inc()
		return fmt.Errorf("%w: %s: status %d, undecodable body: %v", plasma.ErrNetwork, endpoint, resp.StatusCode, err)
	}

	if !env.Success {
		prometheusWatcherRequests.WithLabelValues(endpoint, "watcher_error").Inc()
		werr := &WatcherError{Endpoint: endpoint}
		if err := json.Unmarshal(env.Data, werr); err != nil {
			werr.Code = "unknown"
			werr.Description = string(env.Data)
		}
		logger.WithFields(logger.Fields{
			"endpoint": endpoint,
			"code":     werr.Code,
		}).Error("watcher returned an error")
		return werr
	}

	prometheusWatcherRequests.WithLabelValues(endpoint, "ok").Inc()
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", endpoint, err)
	}
	return nil
}
