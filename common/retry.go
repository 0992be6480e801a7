package common

import (
	"context"
	"errors"
	"time"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

// Retry calls fn up to attempts times, sleeping interval between calls. fn
// returns done=true to stop; a non-nil error stops immediately. When every
// attempt returns done=false Retry fails with ErrRetriesExhausted. ctx
// cancellation interrupts the sleep.
func Retry(ctx context.Context, attempts int, interval time.Duration, fn func(attempt int) (bool, error)) error {
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		done, err := fn(i)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return ErrRetriesExhausted
}
