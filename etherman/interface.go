package etherman

import (
	"context"
	"math/big"

	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RootChain is everything the transactor and exit manager need from the
// root chain. Etherman implements it against a node, MockRootChain in memory.
type RootChain interface {
	PlasmaFrameworkAddress() ethcommon.Address

	// deposits
	Deposit(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address, amount *big.Int, depositTx []byte) (*types.Transaction, error)
	ApproveToken(ctx context.Context, auth *bind.TransactOpts, token ethcommon.Address, amount *big.Int) (*types.Transaction, error)
	Allowance(ctx context.Context, token, owner ethcommon.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, address ethcommon.Address) (*big.Int, error)
	Erc20BalanceOf(ctx context.Context, token, address ethcommon.Address) (*big.Int, error)

	// exits
	StartStandardExit(ctx context.Context, auth *bind.TransactOpts, utxoPos *big.Int, outputTx, inclusionProof []byte) (*types.Transaction, error)
	StartInFlightExit(ctx context.Context, auth *bind.TransactOpts, args rootchain.StartInFlightExitArgs) (*types.Transaction, error)
	PiggybackInFlightExitOnOutput(ctx context.Context, auth *bind.TransactOpts, inFlightTx []byte, outputIndex uint16) (*types.Transaction, error)
	ProcessExits(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address, topExitId *big.Int, maxExits uint64) (*types.Transaction, error)
	GetExitQueue(ctx context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error)
	HasToken(ctx context.Context, currency ethcommon.Address) (bool, error)
	AddToken(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address) (*types.Transaction, error)
	GetStandardExitId(ctx context.Context, isDeposit bool, txBytes []byte, utxoPos *big.Int) (*big.Int, error)
	GetInFlightExitId(ctx context.Context, txBytes []byte) (*big.Int, error)
	GetExitTime(ctx context.Context, exitRequestBlock, submissionBlock uint64) (*ExitTime, error)
	MinExitPeriod(ctx context.Context) (*big.Int, error)
	BlockTimestamp(ctx context.Context, number *big.Int) (uint64, error)
	ChildBlockTimestamp(ctx context.Context, blknum uint64) (uint64, error)

	WaitForRootchainTransaction(ctx context.Context, txHash ethcommon.Hash, cfg RootchainWaitConfig) (*types.Receipt, error)
}

var _ RootChain = (*Etherman)(nil)
