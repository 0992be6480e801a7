// This is a http type of reporter.
// It reads the child chain and the exit journal
// and publishes them on the http routes.

package reporter

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"sort"
	"strings"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/exitmanager"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/utxo"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ROUTE_HELLO      = "/hello"
	ROUTE_BALANCE    = "/balance"
	ROUTE_UTXOS      = "/utxos"
	ROUTE_EXIT_QUEUE = "/exit-queue"
	ROUTE_EXITS      = "/exits"
	ROUTE_METRICS    = "/metrics"
)

// ExitSource is implemented by exitmanager.ExitManager.
type ExitSource interface {
	GetExitQueue(ctx context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error)
	Exits(ctx context.Context, owner *ethcommon.Address) ([]*exitmanager.Exit, error)
}

var _ ExitSource = (*exitmanager.ExitManager)(nil)

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	accounts utxo.Source
	exits    ExitSource
}

func NewHttpReporter(serverIP string, serverPort string, accounts utxo.Source, exits ExitSource) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		accounts:   accounts,
		exits:      exits,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_BALANCE, h.Balance)
	router.GET(ROUTE_UTXOS, h.Utxos)
	router.GET(ROUTE_EXIT_QUEUE, h.ExitQueue)
	router.GET(ROUTE_EXITS, h.Exits)
	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() error {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	return router.Run(address)
}

func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

type balanceView struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

type utxoView struct {
	BlockNumber uint64 `json:"blknum"`
	TxIndex     uint64 `json:"txindex"`
	OutputIndex uint64 `json:"oindex"`
	UtxoPos     string `json:"utxo_pos"`
	Owner       string `json:"owner"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
}

type exitQueueView struct {
	ExitId     string `json:"exit_id"`
	ExitableAt uint64 `json:"exitable_at"`
	TxPos      string `json:"tx_pos"`
	Priority   string `json:"priority"`
}

type exitView struct {
	ExitId      string `json:"exit_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Owner       string `json:"owner"`
	Currency    string `json:"currency"`
	UtxoPos     string `json:"utxo_pos"`
	OutputIndex uint64 `json:"output_index"`
	TxHash      string `json:"tx_hash"`
	ExitableAt  uint64 `json:"exitable_at"`
}

func (h *HttpReporter) Balance(c *gin.Context) {
	address, ok := queryAddress(c, "address", true)
	if !ok {
		return
	}

	balances, err := h.accounts.GetBalance(c.Request.Context(), address)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	views := []balanceView{}
	for currency, amount := range balances {
		views = append(views, balanceView{Currency: currency.Hex(), Amount: amount.String()})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Currency < views[j].Currency })
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *HttpReporter) Utxos(c *gin.Context) {
	address, ok := queryAddress(c, "address", true)
	if !ok {
		return
	}

	utxos, err := h.accounts.GetUtxos(c.Request.Context(), address)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	if c.Query("currency") != "" {
		cur, ok := queryAddress(c, "currency", false)
		if !ok {
			return
		}
		utxos = utxo.FilterByCurrency(utxos, cur)
	}
	utxo.SortByAmountDesc(utxos)

	views := make([]utxoView, 0, len(utxos))
	for _, u := range utxos {
		views = append(views, utxoView{
			BlockNumber: u.BlockNumber,
			TxIndex:     u.TxIndex,
			OutputIndex: u.OutputIndex,
			UtxoPos:     u.UtxoPos().String(),
			Owner:       u.Owner.Hex(),
			Currency:    u.Currency.Hex(),
			Amount:      bigString(u.Amount),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// ExitQueue publishes the exit queue of ?currency, ETH when absent.
func (h *HttpReporter) ExitQueue(c *gin.Context) {
	currency, ok := queryAddress(c, "currency", false)
	if !ok {
		return
	}

	queue, err := h.exits.GetExitQueue(c.Request.Context(), currency)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	views := make([]exitQueueView, 0, len(queue))
	for _, e := range queue {
		views = append(views, exitQueueView{
			ExitId:     bigString(e.ExitId),
			ExitableAt: e.ExitableAt,
			TxPos:      bigString(e.TxPos),
			Priority:   bigString(e.Priority),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// Exits publishes the journaled exits, optionally of ?owner and in ?status.
func (h *HttpReporter) Exits(c *gin.Context) {
	var owner *ethcommon.Address
	if c.Query("owner") != "" {
		addr, ok := queryAddress(c, "owner", false)
		if !ok {
			return
		}
		owner = &addr
	}
	status := c.Query("status")

	exits, err := h.exits.Exits(c.Request.Context(), owner)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	views := []exitView{}
	for _, e := range exits {
		if status != "" && string(e.Status) != status {
			continue
		}
		views = append(views, exitView{
			ExitId:      bigString(e.ExitId),
			Kind:        string(e.Kind),
			Status:      string(e.Status),
			Owner:       e.Owner.Hex(),
			Currency:    e.Currency.Hex(),
			UtxoPos:     bigString(e.UtxoPos),
			OutputIndex: e.OutputIndex,
			TxHash:      e.TxHash.Hex(),
			ExitableAt:  e.ExitableAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// queryAddress parses the named query parameter, writing a 400 on failure.
// An absent optional parameter is the zero address.
func queryAddress(c *gin.Context, name string, required bool) (ethcommon.Address, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" && required {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be provided"})
		return ethcommon.Address{}, false
	}
	addr, err := common.ParseAddress(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return ethcommon.Address{}, false
	}
	return addr, true
}

// statusOf maps upstream failures: unreachable dependencies are 502s.
func statusOf(err error) int {
	if errors.Is(err, plasma.ErrNetwork) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
