package childchain

import "time"

type Config struct {
	// Watcher-info service: balances, utxos and transaction.create.
	WatcherURL string
	// Optional security-critical proxy serving exit data and submission.
	// Falls back to WatcherURL when empty.
	WatcherProxyURL string
	// Per-request timeout, zero means no timeout.
	Timeout time.Duration
}

// PollConfig drives WaitForBalance and WaitForUtxo: a fixed interval between
// attempts and a bounded number of attempts.
type PollConfig struct {
	Interval   time.Duration
	MaxRetries int
}

const (
	DefaultPollInterval   = 6 * time.Second
	DefaultPollMaxRetries = 50
)

func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:   DefaultPollInterval,
		MaxRetries: DefaultPollMaxRetries,
	}
}
