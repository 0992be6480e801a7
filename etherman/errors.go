package etherman

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/TEENet-io/plasma-go/plasma"
)

var (
	ErrNoCode           = errors.New("no contract code at address")
	ErrZeroAddress      = errors.New("contract address is zero")
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrNegativeAmount   = errors.New("amount must be positive")
	ErrNilTransactOpts  = errors.New("transact opts are nil")
	ErrBlockNotIncluded = errors.New("receipt has no block number")
)

// Revert reason of processExits when the caller's view of the queue front is outdated.
const staleTopExitReason = "Top exit ID of the queue is different"

// ClassifyError maps errors from the node onto the client's error kinds.
// Reverts become ErrRootChainRejected (or ErrExitQueueStale for a stale
// processExits), transport failures become ErrNetwork. Anything else is
// returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, plasma.ErrNetwork) ||
		errors.Is(err, plasma.ErrRootChainRejected) ||
		errors.Is(err, plasma.ErrExitQueueStale) {
		return err
	}

	msg := err.Error()
	if strings.Contains(msg, staleTopExitReason) {
		return fmt.Errorf("%w: %v", plasma.ErrExitQueueStale, err)
	}
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert") {
		return fmt.Errorf("%w: %v", plasma.ErrRootChainRejected, err)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(msg, "connection refused") {
		return fmt.Errorf("%w: %v", plasma.ErrNetwork, err)
	}

	return err
}
