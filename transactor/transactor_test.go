package transactor

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/etherman"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/signers"
	"github.com/TEENet-io/plasma-go/txbuilder"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bob   = ethcommon.HexToAddress("0x2222222222222222222222222222222222222222")
	token = ethcommon.HexToAddress("0x3333333333333333333333333333333333333333")
)

type testEnv struct {
	tr    *Transactor
	root  *etherman.MockRootChain
	child *MockChildChain

	key   *ecdsa.PrivateKey
	alice ethcommon.Address
	auth  *bind.TransactOpts
}

func newTestEnv(t *testing.T) *testEnv {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	auth, err := signers.NewAuth(key, etherman.SimulatedChainID)
	require.NoError(t, err)

	root := etherman.NewMockRootChain()
	child := NewMockChildChain(root.Framework)
	return &testEnv{
		tr:    NewTransactor(DefaultConfig(), root, child),
		root:  root,
		child: child,
		key:   key,
		alice: auth.From,
		auth:  auth,
	}
}

func TestDepositEth(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.tr.Deposit(context.Background(), env.auth, plasma.EthCurrency, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, ethcommon.Hash{}, result.ApproveTxHash)
	assert.Empty(t, env.root.CallsOf("approve"))

	calls := env.root.CallsOf("deposit")
	require.Len(t, calls, 1)
	assert.Equal(t, result.DepositTxHash, calls[0].Tx.Hash())
	assert.Equal(t, big.NewInt(100), calls[0].Value)

	expected, err := txbuilder.BuildDeposit(env.alice, plasma.EthCurrency, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, expected, calls[0].Args[2])
}

func TestDepositErc20(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.tr.Deposit(ctx, env.auth, token, big.NewInt(40))
	require.NoError(t, err)
	assert.NotEqual(t, ethcommon.Hash{}, result.ApproveTxHash)

	require.Len(t, env.root.Calls, 2)
	assert.Equal(t, "approve", env.root.Calls[0].Method)
	assert.Equal(t, "deposit", env.root.Calls[1].Method)
	assert.Nil(t, env.root.Calls[1].Value)

	allowance, err := env.root.Allowance(ctx, token, env.alice)
	require.NoError(t, err)
	assert.Equal(t, 0, allowance.Sign())
}

func TestDepositFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tr.Deposit(ctx, env.auth, plasma.EthCurrency, big.NewInt(0))
	assert.ErrorIs(t, err, plasma.ErrInvalidTransaction)
	_, err = env.tr.Deposit(ctx, nil, plasma.EthCurrency, big.NewInt(1))
	assert.ErrorIs(t, err, etherman.ErrNilTransactOpts)
	assert.Empty(t, env.root.Calls)

	env.root.Revert["approve"] = true
	_, err = env.tr.Deposit(ctx, env.auth, token, big.NewInt(40))
	assert.ErrorIs(t, err, plasma.ErrRootChainRejected)
	assert.Empty(t, env.root.CallsOf("deposit"))
}

func TestTransfer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 10)
	env.child.AddUtxo(2, env.alice, plasma.EthCurrency, 5)

	submitted, err := env.tr.Transfer(ctx, env.key,
		[]plasma.PaymentRequest{{Recipient: bob, Currency: plasma.EthCurrency, Amount: big.NewInt(11)}},
		plasma.Fee{Currency: plasma.EthCurrency, Amount: big.NewInt(1)},
		plasma.NullMetadata,
	)
	require.NoError(t, err)
	require.Len(t, submitted.Tx.Inputs, 2)
	require.Len(t, submitted.Tx.Outputs, 2)
	assert.Equal(t, bob, submitted.Tx.Outputs[0].Owner)
	assert.Equal(t, big.NewInt(3), submitted.Tx.Outputs[1].Amount)

	require.NoError(t, env.tr.Signer().Verify(submitted.Tx))
	require.NoError(t, env.tr.WaitForOutput(ctx, submitted, 0))
	require.NoError(t, env.tr.WaitForBalance(ctx, env.alice, plasma.EthCurrency, big.NewInt(3)))
	require.NoError(t, env.tr.WaitForBalance(ctx, bob, plasma.EthCurrency, big.NewInt(11)))

	_, err = submitted.OutputPosition(4)
	assert.ErrorIs(t, err, plasma.ErrOutputNotFound)
	assert.ErrorIs(t, env.tr.WaitForBalance(ctx, bob, plasma.EthCurrency, big.NewInt(12)), plasma.ErrConfirmationTimeout)
}

func TestTransferInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 10)

	_, err := env.tr.Transfer(context.Background(), env.key,
		[]plasma.PaymentRequest{{Recipient: bob, Currency: plasma.EthCurrency, Amount: big.NewInt(10)}},
		plasma.Fee{Currency: plasma.EthCurrency, Amount: big.NewInt(1)},
		plasma.NullMetadata,
	)
	assert.ErrorIs(t, err, plasma.ErrInsufficientFunds)
	assert.Empty(t, env.child.Submitted)

	_, err = env.tr.Transfer(context.Background(), nil, nil, plasma.Fee{}, plasma.NullMetadata)
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestTransferRejectedByWatcher(t *testing.T) {
	env := newTestEnv(t)
	// the watcher has never seen this output
	u := env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 10)
	tx, err := txbuilder.Build(env.alice, []plasma.Utxo{u},
		[]plasma.PaymentRequest{{Recipient: bob, Currency: plasma.EthCurrency, Amount: big.NewInt(10)}},
		plasma.Fee{Currency: plasma.EthCurrency, Amount: big.NewInt(0)},
		plasma.NullMetadata,
	)
	require.NoError(t, err)
	tx.Inputs[0].Position.BlockNumber = 7

	_, err = env.tr.signAndSubmit(context.Background(), env.key, tx)
	var werr *childchain.WatcherError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "submit:utxo_not_found", werr.Code)
}

func TestMerge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 1)
	env.child.AddUtxo(2, env.alice, plasma.EthCurrency, 2)
	env.child.AddUtxo(3, env.alice, plasma.EthCurrency, 3)
	env.child.AddUtxo(4, env.alice, token, 9)

	submitted, err := env.tr.Merge(ctx, env.key, plasma.EthCurrency)
	require.NoError(t, err)
	assert.Len(t, submitted.Tx.Inputs, 3)
	require.Len(t, submitted.Tx.Outputs, 1)
	assert.Equal(t, big.NewInt(6), submitted.Tx.Outputs[0].Amount)

	utxos, err := env.tr.Utxos().GetUtxosByCurrency(ctx, env.alice, plasma.EthCurrency)
	require.NoError(t, err)
	assert.Len(t, utxos, 1)

	_, err = env.tr.Merge(ctx, env.key, plasma.EthCurrency)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)
	_, err = env.tr.Merge(ctx, env.key, token)
	assert.ErrorIs(t, err, plasma.ErrTooFewUtxos)
}

func TestSplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 10)

	submitted, err := env.tr.Split(ctx, env.key, plasma.EthCurrency,
		[]*big.Int{big.NewInt(3), big.NewInt(3)},
		plasma.Fee{Currency: plasma.EthCurrency, Amount: big.NewInt(1)},
	)
	require.NoError(t, err)
	require.Len(t, submitted.Tx.Outputs, 3)
	for _, out := range submitted.Tx.Outputs {
		assert.Equal(t, env.alice, out.Owner)
	}

	utxos, err := env.tr.Utxos().GetUtxos(ctx, env.alice)
	require.NoError(t, err)
	assert.Len(t, utxos, 3)
	require.NoError(t, env.tr.WaitForBalance(ctx, env.alice, plasma.EthCurrency, big.NewInt(9)))
}

func TestBalances(t *testing.T) {
	env := newTestEnv(t)
	env.child.AddUtxo(1, env.alice, plasma.EthCurrency, 10)
	env.child.AddUtxo(2, env.alice, token, 4)
	env.root.SetBalance(plasma.EthCurrency, env.alice, big.NewInt(1_000))
	env.root.SetBalance(token, env.alice, big.NewInt(77))

	balances, err := env.tr.Balances(context.Background(), env.alice, []ethcommon.Address{token, plasma.EthCurrency})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), balances.ChildChain.Get(plasma.EthCurrency))
	assert.Equal(t, big.NewInt(4), balances.ChildChain.Get(token))
	assert.Equal(t, big.NewInt(1_000), balances.RootChain.Get(plasma.EthCurrency))
	assert.Equal(t, big.NewInt(77), balances.RootChain.Get(token))
}
