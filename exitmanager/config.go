package exitmanager

import "github.com/TEENet-io/plasma-go/etherman"

type Config struct {
	// Wait is used for every root-chain transaction the manager sends
	Wait etherman.RootchainWaitConfig
}

func DefaultConfig() *Config {
	return &Config{Wait: etherman.DefaultRootchainWaitConfig()}
}
