package reporter

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/TEENet-io/plasma-go/exitmanager"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/transactor"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	alice = ethcommon.HexToAddress("0x1111111111111111111111111111111111111111")
	token = ethcommon.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fakeExits struct {
	queue []plasma.ExitQueueEntry
	exits []*exitmanager.Exit
	err   error
}

func (f *fakeExits) GetExitQueue(_ context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if currency != plasma.EthCurrency {
		return []plasma.ExitQueueEntry{}, nil
	}
	return f.queue, nil
}

func (f *fakeExits) Exits(_ context.Context, owner *ethcommon.Address) ([]*exitmanager.Exit, error) {
	if owner == nil {
		return f.exits, nil
	}
	var owned []*exitmanager.Exit
	for _, e := range f.exits {
		if e.Owner == *owner {
			owned = append(owned, e)
		}
	}
	return owned, nil
}

func newTestReporter() (*gin.Engine, *transactor.MockChildChain, *fakeExits) {
	gin.SetMode(gin.TestMode)

	child := transactor.NewMockChildChain(ethcommon.Address{})
	child.AddUtxo(1, alice, plasma.EthCurrency, 10)
	child.AddUtxo(2, alice, plasma.EthCurrency, 30)
	child.AddUtxo(3, alice, token, 7)

	exits := &fakeExits{
		queue: []plasma.ExitQueueEntry{
			plasma.ParseExitPriority(plasma.ExitPriority(100, big.NewInt(1), big.NewInt(42))),
		},
		exits: []*exitmanager.Exit{
			{ExitId: big.NewInt(42), Kind: exitmanager.Standard, Status: exitmanager.ExitQueued, Owner: alice, UtxoPos: big.NewInt(1_000_000_000), ExitableAt: 100},
			{ExitId: big.NewInt(43), Kind: exitmanager.InFlight, Status: exitmanager.Piggybacked, Owner: token, ExitableAt: 200},
		},
	}

	return NewHttpReporter("127.0.0.1", "0", child, exits).SetupRouter(), child, exits
}

type response[T any] struct {
	Data  []T    `json:"data"`
	Error string `json:"error"`
}

func get[T any](t *testing.T, router *gin.Engine, target string) (int, response[T]) {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	var resp response[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHello(t *testing.T) {
	router, _, _ := newTestReporter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, ROUTE_HELLO, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"world"}`, w.Body.String())
}

func TestBalanceRoute(t *testing.T) {
	router, _, _ := newTestReporter()

	code, resp := get[balanceView](t, router, ROUTE_BALANCE+"?address="+alice.Hex())
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, balanceView{Currency: plasma.EthCurrency.Hex(), Amount: "40"}, resp.Data[0])
	assert.Equal(t, balanceView{Currency: token.Hex(), Amount: "7"}, resp.Data[1])

	code, resp = get[balanceView](t, router, ROUTE_BALANCE)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "address")

	code, _ = get[balanceView](t, router, ROUTE_BALANCE+"?address=0x1234")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUtxosRoute(t *testing.T) {
	router, _, _ := newTestReporter()

	code, resp := get[utxoView](t, router, ROUTE_UTXOS+"?address="+alice.Hex())
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "30", resp.Data[0].Amount)
	assert.Equal(t, "2000000000", resp.Data[0].UtxoPos)

	code, resp = get[utxoView](t, router, ROUTE_UTXOS+"?address="+alice.Hex()+"&currency="+token.Hex())
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "7", resp.Data[0].Amount)
}

func TestExitQueueRoute(t *testing.T) {
	router, _, exits := newTestReporter()

	code, resp := get[exitQueueView](t, router, ROUTE_EXIT_QUEUE)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "42", resp.Data[0].ExitId)
	assert.Equal(t, uint64(100), resp.Data[0].ExitableAt)

	code, resp = get[exitQueueView](t, router, ROUTE_EXIT_QUEUE+"?currency="+token.Hex())
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data)

	exits.err = fmt.Errorf("%w: node down", plasma.ErrNetwork)
	code, _ = get[exitQueueView](t, router, ROUTE_EXIT_QUEUE)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestExitsRoute(t *testing.T) {
	router, _, _ := newTestReporter()

	code, resp := get[exitView](t, router, ROUTE_EXITS)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Data, 2)

	code, resp = get[exitView](t, router, ROUTE_EXITS+"?owner="+alice.Hex())
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "42", resp.Data[0].ExitId)
	assert.Equal(t, "exit_queued", resp.Data[0].Status)
	assert.Equal(t, "1000000000", resp.Data[0].UtxoPos)

	code, resp = get[exitView](t, router, ROUTE_EXITS+"?status=piggybacked")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "in_flight", resp.Data[0].Kind)
}

func TestMetricsRoute(t *testing.T) {
	router, _, _ := newTestReporter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, ROUTE_METRICS, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHttpReader(t *testing.T) {
	router, _, _ := newTestReporter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	reader := NewHttpReader(u.Hostname(), u.Port())

	hello, err := reader.GetHello()
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"world"}`, hello)

	body, err := reader.GetBalance(alice.Hex())
	require.NoError(t, err)
	assert.Contains(t, body, `"amount":"40"`)

	_, err = reader.GetUtxos("")
	assert.Error(t, err)

	body, err = reader.GetExits(alice.Hex())
	require.NoError(t, err)
	assert.Contains(t, body, `"exit_id":"42"`)

	body, err = reader.GetExitQueue("")
	require.NoError(t, err)
	assert.Contains(t, body, `"exitable_at":100`)
}
