package plasma

import (
	"errors"
	"fmt"
)

// Error kinds shared by every component. Call sites wrap them with
// fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrTooFewUtxos            = errors.New("too few utxos")
	ErrInvalidTransaction     = errors.New("invalid transaction")
	ErrSignatureCountMismatch = errors.New("signature count mismatch")
	ErrOutputNotFound         = errors.New("output not found")
	ErrConfirmationTimeout    = errors.New("confirmation timeout")
	ErrExitQueueStale         = errors.New("exit queue stale")
	ErrNetwork                = errors.New("network error")
	ErrRootChainRejected      = errors.New("root chain rejected")
)

func ErrInvalidTx(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}

func ErrSigCountMismatch(inputs, keys int) error {
	return fmt.Errorf("%w: inputs=%d, keys=%d", ErrSignatureCountMismatch, inputs, keys)
}

func ErrStaleTopExit(expected, actual fmt.Stringer) error {
	return fmt.Errorf("%w: expected top exit=%v, actual=%v", ErrExitQueueStale, expected, actual)
}
