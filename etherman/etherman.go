package etherman

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

type ethereumClient interface {
	ethereum.BlockNumberReader
	ethereum.ChainIDReader
	ethereum.ChainReader
	ethereum.ChainStateReader
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.LogFilterer
	ethereum.TransactionReader
	ethereum.TransactionSender

	bind.DeployBackend
	bind.ContractBackend
}

const contractCacheSize = 64

// Etherman is the root-chain side of the client: the plasma framework, its
// vaults, exit game and exit queues.
type Etherman struct {
	client    ethereumClient
	cfg       *Config
	framework *rootchain.PlasmaFramework

	// vault, exit game and queue addresses never change once registered
	addresses *lru.Cache[string, ethcommon.Address]

	now func() time.Time
}

func NewEtherman(client ethereumClient, cfg *Config) (*Etherman, error) {
	if cfg.PlasmaFrameworkAddress == (ethcommon.Address{}) {
		return nil, fmt.Errorf("plasma framework: %w", ErrZeroAddress)
	}
	initPrometheusMetrics()

	framework, err := rootchain.NewPlasmaFramework(cfg.PlasmaFrameworkAddress, client)
	if err != nil {
		return nil, err
	}

	return &Etherman{
		client:    client,
		cfg:       cfg,
		framework: framework,
		addresses: lru.NewCache[string, ethcommon.Address](contractCacheSize),
		now:       time.Now,
	}, nil
}

func (etherman *Etherman) Client() ethereumClient {
	return etherman.client
}

func (etherman *Etherman) PlasmaFrameworkAddress() ethcommon.Address {
	return etherman.cfg.PlasmaFrameworkAddress
}

func (etherman *Etherman) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := etherman.client.ChainID(ctx)
	return id, ClassifyError(err)
}

func (etherman *Etherman) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := etherman.client.BlockNumber(ctx)
	return n, ClassifyError(err)
}

// BlockTimestamp returns the root-chain block time in unix seconds.
func (etherman *Etherman) BlockTimestamp(ctx context.Context, number *big.Int) (uint64, error) {
	header, err := etherman.client.HeaderByNumber(ctx, number)
	if err != nil {
		return 0, ClassifyError(err)
	}
	return header.Time, nil
}

// ChildBlockTimestamp returns when the child block was submitted to the framework.
func (etherman *Etherman) ChildBlockTimestamp(ctx context.Context, blknum uint64) (uint64, error) {
	block, err := etherman.framework.Blocks(&bind.CallOpts{Context: ctx}, new(big.Int).SetUint64(blknum))
	if err != nil {
		return 0, ClassifyError(err)
	}
	if block.Timestamp == nil {
		return 0, nil
	}
	return block.Timestamp.Uint64(), nil
}

// MinExitPeriod returns the framework's minimum exit period in seconds.
func (etherman *Etherman) MinExitPeriod(ctx context.Context) (*big.Int, error) {
	period, err := etherman.framework.MinExitPeriod(&bind.CallOpts{Context: ctx})
	return period, ClassifyError(err)
}

// BalanceOf returns the ETH balance of address on the root chain.
func (etherman *Etherman) BalanceOf(ctx context.Context, address ethcommon.Address) (*big.Int, error) {
	balance, err := etherman.client.BalanceAt(ctx, address, nil)
	return balance, ClassifyError(err)
}

func (etherman *Etherman) Erc20BalanceOf(ctx context.Context, token, address ethcommon.Address) (*big.Int, error) {
	contract, err := rootchain.NewERC20(token, etherman.client)
	if err != nil {
		return nil, err
	}
	balance, err := contract.BalanceOf(&bind.CallOpts{Context: ctx}, address)
	return balance, ClassifyError(err)
}

// Allowance returns how much of token the ERC20 vault may pull from owner.
func (etherman *Etherman) Allowance(ctx context.Context, token, owner ethcommon.Address) (*big.Int, error) {
	vault, err := etherman.vaultAddress(ctx, plasma.Erc20VaultId)
	if err != nil {
		return nil, err
	}
	contract, err := rootchain.NewERC20(token, etherman.client)
	if err != nil {
		return nil, err
	}
	allowance, err := contract.Allowance(&bind.CallOpts{Context: ctx}, owner, vault)
	return allowance, ClassifyError(err)
}

// ApproveToken lets the ERC20 vault pull amount of token from auth.From.
func (etherman *Etherman) ApproveToken(
	ctx context.Context,
	auth *bind.TransactOpts,
	token ethcommon.Address,
	amount *big.Int,
) (*types.Transaction, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	vault, err := etherman.vaultAddress(ctx, plasma.Erc20VaultId)
	if err != nil {
		return nil, err
	}
	contract, err := rootchain.NewERC20(token, etherman.client)
	if err != nil {
		return nil, err
	}

	tx, err := contract.Approve(withContext(ctx, auth, nil), vault, amount)
	return etherman.sent("approve", tx, err, logger.Fields{
		"token":  token.Hex(),
		"amount": amount.String(),
	})
}

// Deposit sends the encoded deposit transaction to the vault of currency.
// ETH deposits carry amount as value; ERC20 deposits need a prior approve.
func (etherman *Etherman) Deposit(
	ctx context.Context,
	auth *bind.TransactOpts,
	currency ethcommon.Address,
	amount *big.Int,
	depositTx []byte,
) (*types.Transaction, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNegativeAmount
	}

	vaultId := plasma.VaultId(currency)
	vaultAddr, err := etherman.vaultAddress(ctx, vaultId)
	if err != nil {
		return nil, err
	}
	vault, err := rootchain.NewVault(vaultAddr, etherman.client)
	if err != nil {
		return nil, err
	}

	var value *big.Int
	if plasma.IsEth(currency) {
		value = amount
	}
	tx, err := vault.Deposit(withContext(ctx, auth, value), depositTx)
	return etherman.sent("deposit", tx, err, logger.Fields{
		"currency": currency.Hex(),
		"amount":   amount.String(),
	})
}

// HasToken reports whether the exit queue of currency exists.
func (etherman *Etherman) HasToken(ctx context.Context, currency ethcommon.Address) (bool, error) {
	ok, err := etherman.framework.HasExitQueue(&bind.CallOpts{Context: ctx}, big.NewInt(plasma.VaultId(currency)), currency)
	return ok, ClassifyError(err)
}

// AddToken creates the exit queue of currency.
func (etherman *Etherman) AddToken(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address) (*types.Transaction, error) {
	tx, err := etherman.framework.AddExitQueue(withContext(ctx, auth, nil), big.NewInt(plasma.VaultId(currency)), currency)
	return etherman.sent("addExitQueue", tx, err, logger.Fields{"currency": currency.Hex()})
}

func (etherman *Etherman) vaultAddress(ctx context.Context, vaultId int64) (ethcommon.Address, error) {
	return etherman.resolve(fmt.Sprintf("vault/%d", vaultId), func() (ethcommon.Address, error) {
		return etherman.framework.Vaults(&bind.CallOpts{Context: ctx}, big.NewInt(vaultId))
	})
}

func (etherman *Etherman) exitGameAddress(ctx context.Context) (ethcommon.Address, error) {
	return etherman.resolve(fmt.Sprintf("exitgame/%d", plasma.PaymentTxType), func() (ethcommon.Address, error) {
		return etherman.framework.ExitGames(&bind.CallOpts{Context: ctx}, big.NewInt(plasma.PaymentTxType))
	})
}

// exitQueueAddress looks up the priority queue of currency. The key matches
// keccak256(abi.encodePacked(vaultId, token)) in the framework.
func (etherman *Etherman) exitQueueAddress(ctx context.Context, currency ethcommon.Address) (ethcommon.Address, error) {
	vaultId := plasma.VaultId(currency)
	key := crypto.Keccak256Hash(common.EncodePacked(big.NewInt(vaultId), currency))
	return etherman.resolve("queue/"+key.Hex(), func() (ethcommon.Address, error) {
		return etherman.framework.ExitsQueues(&bind.CallOpts{Context: ctx}, key)
	})
}

func (etherman *Etherman) resolve(key string, fetch func() (ethcommon.Address, error)) (ethcommon.Address, error) {
	if addr, ok := etherman.addresses.Get(key); ok {
		return addr, nil
	}

	addr, err := fetch()
	if err != nil {
		return ethcommon.Address{}, ClassifyError(err)
	}
	// unregistered entries are not cached, they may be added later
	if addr == (ethcommon.Address{}) {
		return ethcommon.Address{}, fmt.Errorf("%s: %w", key, ErrZeroAddress)
	}

	etherman.addresses.Add(key, addr)
	return addr, nil
}

// withContext copies auth so per-call value and context do not leak into the
// caller's transactor.
func withContext(ctx context.Context, auth *bind.TransactOpts, value *big.Int) *bind.TransactOpts {
	opts := *auth
	opts.Context = ctx
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	} else {
		opts.Value = nil
	}
	return &opts
}

func (etherman *Etherman) sent(method string, tx *types.Transaction, err error, fields logger.Fields) (*types.Transaction, error) {
	if err != nil {
		err = ClassifyError(err)
		prometheusRootchainTxs.WithLabelValues(method, "error").Inc()
		logger.WithFields(fields).Errorf("failed to send %s: %v", method, err)
		return nil, err
	}

	prometheusRootchainTxs.WithLabelValues(method, "ok").Inc()
	fields["txHash"] = tx.Hash().Hex()
	logger.WithFields(fields).Infof("sent %s", method)
	return tx, nil
}
