package exitmanager

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/etherman"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/signers"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	m       *ExitManager
	root    *etherman.MockRootChain
	watcher *MockWatcher
	db      *ExitDB

	key   *ecdsa.PrivateKey
	owner ethcommon.Address
	auth  *bind.TransactOpts
}

func newTestEnv(t *testing.T) *testEnv {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	auth, err := signers.NewAuth(key, etherman.SimulatedChainID)
	require.NoError(t, err)

	root := etherman.NewMockRootChain()
	watcher := NewMockWatcher()
	db := newTestDB(t)

	return &testEnv{
		m:       NewExitManager(DefaultConfig(), root, watcher, db),
		root:    root,
		watcher: watcher,
		db:      db,
		key:     key,
		owner:   auth.From,
		auth:    auth,
	}
}

// addOutput mines a one-output tx paying amount of currency to owner at (blknum, 0, 0).
func (env *testEnv) addOutput(t *testing.T, blknum uint64, currency ethcommon.Address, amount int64) plasma.Utxo {
	tx := &plasma.Transaction{
		TxType: plasma.PaymentTxType,
		Outputs: []plasma.Output{{
			OutputType: plasma.PaymentOutputType,
			Owner:      env.owner,
			Currency:   currency,
			Amount:     big.NewInt(amount),
		}},
	}
	require.NoError(t, env.watcher.AddOutputTx(blknum, 0, tx))

	pos, err := plasma.NewPosition(blknum, 0, 0)
	require.NoError(t, err)
	return plasma.Utxo{Position: pos, Owner: env.owner, Currency: currency, Amount: big.NewInt(amount)}
}

func TestStartStandardExitDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	utxo := env.addOutput(t, 1, plasma.EthCurrency, 100)

	started, err := env.m.StartStandardExit(ctx, env.auth, utxo)
	require.NoError(t, err)

	data, err := env.watcher.GetExitData(ctx, utxo.UtxoPos())
	require.NoError(t, err)
	expectedId, err := plasma.StandardExitId(true, data.TxBytes, utxo.UtxoPos())
	require.NoError(t, err)
	assert.Equal(t, expectedId, started.ExitId)
	assert.Equal(t, env.root.Now+env.root.MinExit, started.ExitableAt)

	calls := env.root.CallsOf("startStandardExit")
	require.Len(t, calls, 1)
	assert.Equal(t, started.TxHash, calls[0].Tx.Hash())

	queue, err := env.m.GetExitQueue(ctx, plasma.EthCurrency)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, expectedId, queue[0].ExitId)
	assert.Equal(t, started.ExitableAt, queue[0].ExitableAt)

	exit, ok, err := env.db.GetExit(ctx, started.ExitId)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ExitQueued, exit.Status)
	assert.Equal(t, Standard, exit.Kind)
	assert.Equal(t, env.owner, exit.Owner)
	assert.Equal(t, 0, utxo.UtxoPos().Cmp(exit.UtxoPos))

	// exiting the same output again fails before sending
	_, err = env.m.StartStandardExit(ctx, env.auth, utxo)
	assert.ErrorIs(t, err, ErrExitAlreadyStarted)
	assert.Len(t, env.root.CallsOf("startStandardExit"), 1)
}

func TestStartStandardExitChildBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	utxo := env.addOutput(t, 1000, plasma.EthCurrency, 100)
	env.root.ChildBlocks[1000] = env.root.Now - 10

	started, err := env.m.StartStandardExit(ctx, env.auth, utxo)
	require.NoError(t, err)
	// block time + 2 periods beats now + 1 period
	assert.Equal(t, env.root.Now-10+2*env.root.MinExit, started.ExitableAt)
}

func TestStartStandardExitFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	utxo := env.addOutput(t, 1, plasma.EthCurrency, 100)

	_, err := env.m.StartStandardExit(ctx, nil, utxo)
	assert.ErrorIs(t, err, etherman.ErrNilTransactOpts)

	env.root.Revert["startStandardExit"] = true
	_, err = env.m.StartStandardExit(ctx, env.auth, utxo)
	assert.ErrorIs(t, err, plasma.ErrRootChainRejected)

	exits, err := env.m.Exits(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, exits)

	unknown, err := plasma.NewPosition(5, 0, 0)
	require.NoError(t, err)
	_, err = env.m.StartStandardExit(ctx, env.auth, plasma.Utxo{Position: unknown})
	var werr *childchain.WatcherError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, childchain.EndpointGetExitData, werr.Endpoint)
}

func (env *testEnv) signedSpend(t *testing.T, input plasma.Utxo, recipient ethcommon.Address) ([]byte, *plasma.SignedTransaction) {
	half := new(big.Int).Div(input.Amount, big.NewInt(2))
	tx := &plasma.Transaction{
		TxType: plasma.PaymentTxType,
		Inputs: []plasma.Utxo{input},
		Outputs: []plasma.Output{
			{OutputType: plasma.PaymentOutputType, Owner: recipient, Currency: input.Currency, Amount: half},
			{OutputType: plasma.PaymentOutputType, Owner: env.owner, Currency: input.Currency, Amount: new(big.Int).Sub(input.Amount, half)},
		},
	}
	stx, err := signers.NewSigner(env.root.Framework).SignAndBuild(tx, []*ecdsa.PrivateKey{env.key})
	require.NoError(t, err)
	b, err := stx.Encode()
	require.NoError(t, err)
	return b, stx
}

func TestInFlightExitAndPiggyback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := env.addOutput(t, 2000, plasma.EthCurrency, 100)
	env.root.ChildBlocks[2000] = env.root.Now - 1_000

	bob := ethcommon.HexToAddress("0x2222222222222222222222222222222222222222")
	signed, stx := env.signedSpend(t, input, bob)
	unsigned, err := stx.Transaction.Encode()
	require.NoError(t, err)
	expectedId, err := plasma.InFlightExitId(unsigned)
	require.NoError(t, err)

	started, err := env.m.StartInFlightExit(ctx, env.auth, signed)
	require.NoError(t, err)
	assert.Equal(t, expectedId, started.ExitId)
	assert.True(t, plasma.IsInFlightExitId(started.ExitId))
	assert.Equal(t, env.root.Now+env.root.MinExit, started.ExitableAt)

	calls := env.root.CallsOf("startInFlightExit")
	require.Len(t, calls, 1)
	args, ok := calls[0].Args[0].(rootchain.StartInFlightExitArgs)
	require.True(t, ok)
	assert.Equal(t, []*big.Int{input.UtxoPos()}, args.InputUtxosPos)
	assert.Len(t, args.InFlightTxWitnesses, 1)
	assert.Equal(t, unsigned, args.InFlightTx)

	exit, ok, err := env.db.GetExit(ctx, expectedId)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, InFlightStarted, exit.Status)

	// nobody else owns an output
	_, err = env.m.Piggyback(ctx, env.auth, signed, ethcommon.HexToAddress("0x9999999999999999999999999999999999999999"))
	assert.ErrorIs(t, err, plasma.ErrOutputNotFound)

	piggy, err := env.m.Piggyback(ctx, env.auth, signed, env.owner)
	require.NoError(t, err)
	assert.Equal(t, expectedId, piggy.ExitId)

	pcalls := env.root.CallsOf("piggybackInFlightExitOnOutput")
	require.Len(t, pcalls, 1)
	assert.Equal(t, uint16(1), pcalls[0].Args[1])
	assert.Equal(t, unsigned, pcalls[0].Args[0])

	exit, _, err = env.db.GetExit(ctx, expectedId)
	require.NoError(t, err)
	assert.Equal(t, Piggybacked, exit.Status)
	assert.Equal(t, uint64(1), exit.OutputIndex)

	_, err = env.m.Piggyback(ctx, env.auth, unsigned, env.owner)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.m.StartInFlightExit(ctx, env.auth, []byte{0x01})
	assert.ErrorIs(t, err, plasma.ErrInvalidTransaction)
}

func TestPiggybackUntrackedExit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := env.addOutput(t, 1, plasma.EthCurrency, 10)
	signed, _ := env.signedSpend(t, input, env.owner)

	_, err := env.m.Piggyback(ctx, env.auth, signed, env.owner)
	require.NoError(t, err)

	exits, err := env.m.Exits(ctx, &env.owner)
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, Piggybacked, exits[0].Status)
	// first output owned by the owner
	assert.Equal(t, uint64(0), exits[0].OutputIndex)
}

func TestProcessExits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.m.StartStandardExit(ctx, env.auth, env.addOutput(t, 1, plasma.EthCurrency, 100))
	require.NoError(t, err)
	env.root.Now += 5
	second, err := env.m.StartStandardExit(ctx, env.auth, env.addOutput(t, 2, plasma.EthCurrency, 50))
	require.NoError(t, err)

	queue, err := env.m.GetExitQueue(ctx, plasma.EthCurrency)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ExitId, queue[0].ExitId)

	// stale front fails without sending
	_, err = env.m.ProcessExits(ctx, env.auth, plasma.EthCurrency, second.ExitId, 1)
	assert.ErrorIs(t, err, plasma.ErrExitQueueStale)
	assert.Empty(t, env.root.CallsOf("processExits"))

	// nothing is exitable yet
	result, err := env.m.ProcessExits(ctx, env.auth, plasma.EthCurrency, first.ExitId, 10)
	require.NoError(t, err)
	assert.Empty(t, result.ExitIds)

	env.root.Now = second.ExitableAt
	result, err = env.m.ProcessExits(ctx, env.auth, plasma.EthCurrency, nil, 1)
	require.NoError(t, err)
	require.Len(t, result.ExitIds, 1)
	assert.Equal(t, first.ExitId, result.ExitIds[0])

	exit, _, err := env.db.GetExit(ctx, first.ExitId)
	require.NoError(t, err)
	assert.Equal(t, ExitProcessed, exit.Status)
	exit, _, err = env.db.GetExit(ctx, second.ExitId)
	require.NoError(t, err)
	assert.Equal(t, ExitQueued, exit.Status)

	result, err = env.m.ProcessExits(ctx, env.auth, plasma.EthCurrency, second.ExitId, 1)
	require.NoError(t, err)
	assert.Equal(t, []*big.Int{second.ExitId}, result.ExitIds)

	queue, err = env.m.GetExitQueue(ctx, plasma.EthCurrency)
	require.NoError(t, err)
	assert.Empty(t, queue)

	// the queue is empty, so any top exit id is stale
	_, err = env.m.ProcessExits(ctx, env.auth, plasma.EthCurrency, second.ExitId, 1)
	assert.ErrorIs(t, err, plasma.ErrExitQueueStale)
}

func TestEnsureExitQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	token := ethcommon.HexToAddress("0x3333333333333333333333333333333333333333")

	has, err := env.m.HasExitQueue(ctx, token)
	require.NoError(t, err)
	assert.False(t, has)

	added, err := env.m.EnsureExitQueue(ctx, env.auth, token)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = env.m.EnsureExitQueue(ctx, env.auth, token)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, env.root.CallsOf("addExitQueue"), 1)
}

func TestGetExitTime(t *testing.T) {
	env := newTestEnv(t)
	env.root.ChildBlocks[1000] = env.root.Now - 30

	et, err := env.m.GetExitTime(context.Background(), 123, 1000)
	require.NoError(t, err)
	assert.Equal(t, env.root.Now-30+2*env.root.MinExit, et.ScheduledFinalizationTime)
	assert.Equal(t, (2*env.root.MinExit-30+5)*1000, et.MsUntilFinalization)
}

func TestWaitForChallengePeriod(t *testing.T) {
	env := newTestEnv(t)

	var slept time.Duration
	env.m.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	require.NoError(t, env.m.WaitForChallengePeriod(context.Background()))
	assert.Equal(t, 2*time.Duration(env.root.MinExit)*time.Second, slept)

	env.m.sleep = sleep
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, env.m.WaitForChallengePeriod(ctx), context.Canceled)
}
