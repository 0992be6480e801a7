package childchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/plasma"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// WaitForBalance polls until the child-chain balance of address in currency
// equals expected exactly. A currency the watcher does not list counts as zero.
func (c *Client) WaitForBalance(
	ctx context.Context,
	address, currency ethcommon.Address,
	expected *big.Int,
	poll PollConfig,
) error {
	err := common.Retry(ctx, poll.MaxRetries, poll.Interval, func(attempt int) (bool, error) {
		prometheusPollAttempts.WithLabelValues("balance").Inc()

		balances, err := c.GetBalance(ctx, address)
		if err != nil {
			return false, err
		}
		current := balances.Get(currency)

		logger.WithFields(logger.Fields{
			"attempt":  attempt,
			"address":  address.Hex(),
			"currency": currency.Hex(),
			"current":  current.String(),
			"expected": expected.String(),
		}).Debug("waiting for balance")

		return current.Cmp(expected) == 0, nil
	})
	return timeoutError(err, "balance %s of %s for %s", expected, currency.Hex(), address.Hex())
}

// WaitForUtxo polls until address owns the output at pos.
func (c *Client) WaitForUtxo(
	ctx context.Context,
	address ethcommon.Address,
	pos plasma.Position,
	poll PollConfig,
) error {
	err := common.Retry(ctx, poll.MaxRetries, poll.Interval, func(attempt int) (bool, error) {
		prometheusPollAttempts.WithLabelValues("utxo").Inc()

		utxos, err := c.GetUtxos(ctx, address)
		if err != nil {
			return false, err
		}

		logger.WithFields(logger.Fields{
			"attempt": attempt,
			"address": address.Hex(),
			"utxo":    pos.String(),
		}).Debug("waiting for utxo")

		for _, u := range utxos {
			if u.Position.Equal(pos) {
				return true, nil
			}
		}
		return false, nil
	})
	return timeoutError(err, "utxo %s for %s", pos, address.Hex())
}

func timeoutError(err error, format string, args ...interface{}) error {
	if errors.Is(err, common.ErrRetriesExhausted) {
		return fmt.Errorf("%w: %s", plasma.ErrConfirmationTimeout, fmt.Sprintf(format, args...))
	}
	return err
}
