package etherman

import (
	"context"
	"errors"
	"math/big"

	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

// exit finalisation is scheduled a few seconds after the exitable timestamp
const exitTimeBufferSeconds = 5

// ExitTime is when an exit can be processed.
type ExitTime struct {
	// ScheduledFinalizationTime is in unix seconds.
	ScheduledFinalizationTime uint64
	MsUntilFinalization       uint64
}

func (etherman *Etherman) exitGame(ctx context.Context) (*rootchain.PaymentExitGame, error) {
	addr, err := etherman.exitGameAddress(ctx)
	if err != nil {
		return nil, err
	}
	return rootchain.NewPaymentExitGame(addr, etherman.client)
}

// StartStandardExit exits one output, paying the standard exit bond.
func (etherman *Etherman) StartStandardExit(
	ctx context.Context,
	auth *bind.TransactOpts,
	utxoPos *big.Int,
	outputTx []byte,
	inclusionProof []byte,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilTransactOpts
	}
	game, err := etherman.exitGame(ctx)
	if err != nil {
		return nil, err
	}
	bond, err := game.StartStandardExitBondSize(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, ClassifyError(err)
	}

	tx, err := game.StartStandardExit(withContext(ctx, auth, bond), rootchain.StartStandardExitArgs{
		UtxoPos:                utxoPos,
		RlpOutputTx:            outputTx,
		OutputTxInclusionProof: inclusionProof,
	})
	return etherman.sent("startStandardExit", tx, err, logger.Fields{
		"utxoPos": utxoPos.String(),
		"bond":    bond.String(),
	})
}

// StartInFlightExit exits a transaction that may never have been included,
// paying the in-flight exit bond.
func (etherman *Etherman) StartInFlightExit(
	ctx context.Context,
	auth *bind.TransactOpts,
	args rootchain.StartInFlightExitArgs,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilTransactOpts
	}
	game, err := etherman.exitGame(ctx)
	if err != nil {
		return nil, err
	}
	bond, err := game.StartIFEBondSize(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, ClassifyError(err)
	}

	tx, err := game.StartInFlightExit(withContext(ctx, auth, bond), args)
	return etherman.sent("startInFlightExit", tx, err, logger.Fields{
		"inputs": len(args.InputUtxosPos),
		"bond":   bond.String(),
	})
}

// PiggybackInFlightExitOnOutput claims one output of an in-flight exit,
// paying the piggyback bond.
func (etherman *Etherman) PiggybackInFlightExitOnOutput(
	ctx context.Context,
	auth *bind.TransactOpts,
	inFlightTx []byte,
	outputIndex uint16,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilTransactOpts
	}
	game, err := etherman.exitGame(ctx)
	if err != nil {
		return nil, err
	}
	bond, err := game.PiggybackBondSize(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, ClassifyError(err)
	}

	tx, err := game.PiggybackInFlightExitOnOutput(withContext(ctx, auth, bond), rootchain.PiggybackInFlightExitOnOutputArgs{
		InFlightTx:  inFlightTx,
		OutputIndex: outputIndex,
	})
	return etherman.sent("piggybackInFlightExitOnOutput", tx, err, logger.Fields{
		"outputIndex": outputIndex,
		"bond":        bond.String(),
	})
}

func (etherman *Etherman) GetStandardExitId(ctx context.Context, isDeposit bool, txBytes []byte, utxoPos *big.Int) (*big.Int, error) {
	game, err := etherman.exitGame(ctx)
	if err != nil {
		return nil, err
	}
	id, err := game.GetStandardExitId(&bind.CallOpts{Context: ctx}, isDeposit, txBytes, utxoPos)
	return id, ClassifyError(err)
}

func (etherman *Etherman) GetInFlightExitId(ctx context.Context, txBytes []byte) (*big.Int, error) {
	game, err := etherman.exitGame(ctx)
	if err != nil {
		return nil, err
	}
	id, err := game.GetInFlightExitId(&bind.CallOpts{Context: ctx}, txBytes)
	return id, ClassifyError(err)
}

// GetExitQueue returns the pending exits of currency, soonest first. A
// currency without a queue has no exits.
func (etherman *Etherman) GetExitQueue(ctx context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error) {
	addr, err := etherman.exitQueueAddress(ctx, currency)
	if errors.Is(err, ErrZeroAddress) {
		return []plasma.ExitQueueEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	queue, err := rootchain.NewPriorityQueue(addr, etherman.client)
	if err != nil {
		return nil, err
	}
	heap, err := queue.HeapList(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, ClassifyError(err)
	}
	return exitQueueFromHeap(heap), nil
}

// exitQueueFromHeap drops the heap's placeholder slot and sorts the rest.
func exitQueueFromHeap(heap []*big.Int) []plasma.ExitQueueEntry {
	entries := make([]plasma.ExitQueueEntry, 0, len(heap))
	for i, priority := range heap {
		if i == 0 || priority == nil {
			continue
		}
		entries = append(entries, plasma.ParseExitPriority(priority))
	}
	plasma.SortExitQueue(entries)
	return entries
}

// ProcessExits finalises up to maxExits exits of currency. topExitId, when
// non-zero, must match the queue front; the framework rejects the call
// otherwise, so the check is made before sending.
func (etherman *Etherman) ProcessExits(
	ctx context.Context,
	auth *bind.TransactOpts,
	currency ethcommon.Address,
	topExitId *big.Int,
	maxExits uint64,
) (*types.Transaction, error) {
	if auth == nil {
		return nil, ErrNilTransactOpts
	}
	if topExitId == nil {
		topExitId = new(big.Int)
	}

	if topExitId.Sign() != 0 {
		queue, err := etherman.GetExitQueue(ctx, currency)
		if err != nil {
			return nil, err
		}
		if len(queue) == 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, new(big.Int))
		}
		if queue[0].ExitId.Cmp(topExitId) != 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, queue[0].ExitId)
		}
	}

	senderData := crypto.Keccak256Hash(auth.From.Bytes())
	tx, err := etherman.framework.ProcessExits(
		withContext(ctx, auth, nil),
		big.NewInt(plasma.VaultId(currency)),
		currency,
		topExitId,
		new(big.Int).SetUint64(maxExits),
		senderData,
	)
	return etherman.sent("processExits", tx, err, logger.Fields{
		"currency":  currency.Hex(),
		"topExitId": topExitId.String(),
		"maxExits":  maxExits,
	})
}

// GetExitTime computes when an exit started in root-chain block
// exitRequestBlock, spending an output of child block submissionBlock, can
// be processed.
func (etherman *Etherman) GetExitTime(ctx context.Context, exitRequestBlock, submissionBlock uint64) (*ExitTime, error) {
	period, err := etherman.MinExitPeriod(ctx)
	if err != nil {
		return nil, err
	}
	requestTs, err := etherman.BlockTimestamp(ctx, new(big.Int).SetUint64(exitRequestBlock))
	if err != nil {
		return nil, err
	}

	isDeposit := plasma.IsDeposit(submissionBlock)
	var submissionTs uint64
	if !isDeposit {
		submissionTs, err = etherman.ChildBlockTimestamp(ctx, submissionBlock)
		if err != nil {
			return nil, err
		}
	}

	return exitTime(uint64(etherman.now().Unix()), requestTs, submissionTs, period.Uint64(), isDeposit), nil
}

func exitTime(now, requestTs, submissionTs, minExitPeriod uint64, isDeposit bool) *ExitTime {
	scheduled := plasma.ExitableAt(requestTs, submissionTs, minExitPeriod, isDeposit)

	var ms uint64
	if deadline := scheduled + exitTimeBufferSeconds; deadline > now {
		ms = (deadline - now) * 1000
	}
	return &ExitTime{ScheduledFinalizationTime: scheduled, MsUntilFinalization: ms}
}
