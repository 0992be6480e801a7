package etherman

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"testing"
	"time"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/plasma"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWait(blocks uint64) RootchainWaitConfig {
	return RootchainWaitConfig{
		CheckInterval: 10 * time.Millisecond,
		BlocksToWait:  blocks,
		MaxRetries:    10,
	}
}

func newTestEtherman(t *testing.T, sim *SimulatedChain) *Etherman {
	etherman, err := NewEtherman(sim.Backend.Client(), &Config{PlasmaFrameworkAddress: common.RandEthAddress()})
	require.NoError(t, err)
	return etherman
}

func deployToken(t *testing.T, sim *SimulatedChain) (ethcommon.Address, *rootchain.ERC20) {
	owner := sim.Accounts[0]
	addr, _, token, err := rootchain.DeployERC20(owner, sim.Backend.Client(), owner.From)
	require.NoError(t, err)
	sim.Backend.Commit()
	return addr, token
}

func TestNewEthermanZeroAddress(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()

	_, err := NewEtherman(sim.Backend.Client(), &Config{})
	assert.ErrorIs(t, err, ErrZeroAddress)
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	err := ClassifyError(errors.New("execution reverted: Top exit ID of the queue is different"))
	assert.ErrorIs(t, err, plasma.ErrExitQueueStale)
	assert.NotErrorIs(t, err, plasma.ErrRootChainRejected)

	err = ClassifyError(errors.New("execution reverted: Output is already spent"))
	assert.ErrorIs(t, err, plasma.ErrRootChainRejected)

	err = ClassifyError(&url.Error{Op: "Post", URL: "http://localhost:8545", Err: errors.New("EOF")})
	assert.ErrorIs(t, err, plasma.ErrNetwork)

	err = ClassifyError(errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"))
	assert.ErrorIs(t, err, plasma.ErrNetwork)

	// already classified errors are kept as is
	wrapped := fmt.Errorf("%w: boom", plasma.ErrNetwork)
	assert.Equal(t, wrapped, ClassifyError(wrapped))

	other := errors.New("nonce too low")
	assert.Equal(t, other, ClassifyError(other))
}

func TestExitQueueFromHeap(t *testing.T) {
	later := plasma.ExitPriority(2_000, big.NewInt(7), big.NewInt(70))
	sooner := plasma.ExitPriority(1_000, big.NewInt(9), big.NewInt(90))

	entries := exitQueueFromHeap([]*big.Int{big.NewInt(0), later, sooner})
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1_000), entries[0].ExitableAt)
	assert.Equal(t, big.NewInt(90), entries[0].ExitId)
	assert.Equal(t, big.NewInt(70), entries[1].ExitId)

	assert.Empty(t, exitQueueFromHeap([]*big.Int{big.NewInt(0)}))
	assert.Empty(t, exitQueueFromHeap(nil))
}

func TestExitTime(t *testing.T) {
	// non-deposit: max(request + mep, submission + 2 * mep)
	et := exitTime(1_000, 900, 950, 100, false)
	assert.Equal(t, uint64(1_150), et.ScheduledFinalizationTime)
	assert.Equal(t, uint64(155_000), et.MsUntilFinalization)

	et = exitTime(1_000, 990, 0, 100, true)
	assert.Equal(t, uint64(1_090), et.ScheduledFinalizationTime)
	assert.Equal(t, uint64(95_000), et.MsUntilFinalization)

	// already exitable
	et = exitTime(5_000, 900, 950, 100, false)
	assert.Equal(t, uint64(0), et.MsUntilFinalization)
}

func TestWaitForRootchainTransaction(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)

	owner := sim.Accounts[0]
	_, deployTx, _, err := rootchain.DeployERC20(owner, sim.Backend.Client(), owner.From)
	require.NoError(t, err)
	sim.Backend.Commit()

	countdown := []uint64{}
	cfg := fastWait(2)
	cfg.OnCountdown = func(remaining uint64) {
		countdown = append(countdown, remaining)
		sim.Backend.Commit()
	}

	receipt, err := etherman.WaitForRootchainTransaction(context.Background(), deployTx.Hash(), cfg)
	require.NoError(t, err)
	assert.Equal(t, deployTx.Hash(), receipt.TxHash)
	assert.Equal(t, []uint64{2, 1}, countdown)
}

func TestWaitForRootchainTransactionReverted(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)
	_, token := deployToken(t, sim)

	// only the owner may mint; a fixed gas limit skips estimation so the
	// revert lands on chain
	opts := *sim.Accounts[1]
	opts.GasLimit = 200_000
	tx, err := token.Mint(&opts, opts.From, big.NewInt(1))
	require.NoError(t, err)
	sim.Backend.Commit()

	_, err = etherman.WaitForRootchainTransaction(context.Background(), tx.Hash(), fastWait(0))
	assert.ErrorIs(t, err, plasma.ErrRootChainRejected)
}

func TestWaitForRootchainTransactionTimeout(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)

	cfg := fastWait(1)
	cfg.MaxRetries = 2
	_, err := etherman.WaitForRootchainTransaction(context.Background(), ethcommon.Hash(common.RandBytes32()), cfg)
	assert.ErrorIs(t, err, plasma.ErrConfirmationTimeout)
}

func TestApproveToken(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)
	tokenAddr, token := deployToken(t, sim)

	erc20Vault := common.RandEthAddress()
	etherman.addresses.Add(fmt.Sprintf("vault/%d", plasma.Erc20VaultId), erc20Vault)

	owner := sim.Accounts[0]
	_, err := token.Mint(owner, owner.From, big.NewInt(1_000))
	require.NoError(t, err)
	sim.Backend.Commit()

	ctx := context.Background()
	balance, err := etherman.Erc20BalanceOf(ctx, tokenAddr, owner.From)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000), balance)

	tx, err := etherman.ApproveToken(ctx, owner, tokenAddr, big.NewInt(300))
	require.NoError(t, err)
	sim.Backend.Commit()
	_, err = etherman.WaitForRootchainTransaction(ctx, tx.Hash(), fastWait(0))
	require.NoError(t, err)

	allowance, err := etherman.Allowance(ctx, tokenAddr, owner.From)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), allowance)

	_, err = etherman.ApproveToken(ctx, owner, tokenAddr, big.NewInt(-1))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestDepositEth(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)

	ethVault := sim.Accounts[2].From
	etherman.addresses.Add(fmt.Sprintf("vault/%d", plasma.EthVaultId), ethVault)

	ctx := context.Background()
	before, err := etherman.BalanceOf(ctx, ethVault)
	require.NoError(t, err)

	opts := *sim.Accounts[0]
	opts.GasLimit = 100_000
	amount := big.NewInt(1_000_000_000)
	depositTx, err := plasma.EncodeDeposit(opts.From, plasma.EthCurrency, amount)
	require.NoError(t, err)

	tx, err := etherman.Deposit(ctx, &opts, plasma.EthCurrency, amount, depositTx)
	require.NoError(t, err)
	assert.Equal(t, amount, tx.Value())
	assert.Equal(t, depositTx, tx.Data())
	// the caller's transactor is left untouched
	assert.Nil(t, opts.Value)
	sim.Backend.Commit()

	_, err = etherman.WaitForRootchainTransaction(ctx, tx.Hash(), fastWait(0))
	require.NoError(t, err)

	after, err := etherman.BalanceOf(ctx, ethVault)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(before, amount), after)

	_, err = etherman.Deposit(ctx, &opts, plasma.EthCurrency, big.NewInt(0), depositTx)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestProcessExitsNilAuth(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()
	etherman := newTestEtherman(t, sim)

	_, err := etherman.ProcessExits(context.Background(), nil, plasma.EthCurrency, nil, 1)
	assert.ErrorIs(t, err, ErrNilTransactOpts)
}

func TestNewSimulatedChain(t *testing.T) {
	sim := NewSimulatedChain()
	defer sim.Backend.Close()

	assert.Len(t, sim.Accounts, simulatedAccounts)
	balance, err := sim.Backend.Client().BalanceAt(context.Background(), sim.Accounts[0].From, nil)
	assert.NoError(t, err)
	assert.Equal(t, "100000000000000000000", balance.String())

	id, err := sim.Backend.Client().ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SimulatedChainID, id)
}
