package etherman

import (
	"context"
	"errors"
	"fmt"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/sirupsen/logrus"
)

// WaitForRootchainTransaction polls until txHash is mined and followed by
// cfg.BlocksToWait blocks. A reverted transaction fails with
// ErrRootChainRejected; running out of polls fails with ErrConfirmationTimeout.
func (etherman *Etherman) WaitForRootchainTransaction(
	ctx context.Context,
	txHash ethcommon.Hash,
	cfg RootchainWaitConfig,
) (*types.Receipt, error) {
	var receipt *types.Receipt

	err := common.Retry(ctx, cfg.MaxRetries, cfg.CheckInterval, func(attempt int) (bool, error) {
		prometheusRootchainPolls.Inc()

		if receipt == nil {
			r, err := etherman.client.TransactionReceipt(ctx, txHash)
			if errors.Is(err, ethereum.NotFound) {
				logger.WithFields(logger.Fields{
					"attempt": attempt,
					"txHash":  txHash.Hex(),
				}).Debug("transaction pending")
				return false, nil
			}
			if err != nil {
				return false, ClassifyError(err)
			}
			if r.Status != types.ReceiptStatusSuccessful {
				return false, fmt.Errorf("%w: transaction %s reverted", plasma.ErrRootChainRejected, txHash.Hex())
			}
			if r.BlockNumber == nil {
				return false, ErrBlockNotIncluded
			}
			receipt = r
		}

		current, err := etherman.client.BlockNumber(ctx)
		if err != nil {
			return false, ClassifyError(err)
		}

		included := receipt.BlockNumber.Uint64()
		var confirmations uint64
		if current > included {
			confirmations = current - included
		}
		if confirmations >= cfg.BlocksToWait {
			return true, nil
		}

		remaining := cfg.BlocksToWait - confirmations
		logger.WithFields(logger.Fields{
			"txHash":    txHash.Hex(),
			"block":     included,
			"remaining": remaining,
		}).Debug("waiting for confirmations")
		if cfg.OnCountdown != nil {
			cfg.OnCountdown(remaining)
		}
		return false, nil
	})
	if errors.Is(err, common.ErrRetriesExhausted) {
		return nil, fmt.Errorf("%w: transaction %s", plasma.ErrConfirmationTimeout, txHash.Hex())
	}
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"txHash": txHash.Hex(),
		"block":  receipt.BlockNumber.Uint64(),
	}).Info("root chain transaction confirmed")
	return receipt, nil
}
