package etherman

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	// URL is the URL of the Ethereum node
	URL string

	// PlasmaFrameworkAddress is the deployed plasma framework contract. It is
	// also the EIP-712 verifying contract for child-chain signatures.
	PlasmaFrameworkAddress common.Address
}

// RootchainWaitConfig controls WaitForRootchainTransaction.
type RootchainWaitConfig struct {
	// CheckInterval is the fixed delay between polls.
	CheckInterval time.Duration
	// BlocksToWait is the number of blocks that must follow the inclusion block.
	BlocksToWait uint64
	// MaxRetries bounds the number of polls.
	MaxRetries int
	// OnCountdown, if set, is called after each poll with the number of
	// blocks still to wait once the transaction is included.
	OnCountdown func(remaining uint64)
}

const (
	DefaultCheckInterval = time.Second
	DefaultBlocksToWait  = 3
	DefaultWaitRetries   = 600
)

func DefaultRootchainWaitConfig() RootchainWaitConfig {
	return RootchainWaitConfig{
		CheckInterval: DefaultCheckInterval,
		BlocksToWait:  DefaultBlocksToWait,
		MaxRetries:    DefaultWaitRetries,
	}
}
