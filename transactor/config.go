package transactor

import (
	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/etherman"
)

type Config struct {
	// Poll drives the watcher confirmation loops
	Poll childchain.PollConfig

	// Wait drives root-chain confirmations of approve and deposit
	Wait etherman.RootchainWaitConfig
}

func DefaultConfig() *Config {
	return &Config{
		Poll: childchain.DefaultPollConfig(),
		Wait: etherman.DefaultRootchainWaitConfig(),
	}
}
