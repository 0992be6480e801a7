package etherman

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/signers"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"
)

// RealEthUserChain is a plasma user's view of a live root chain.
type RealEthUserChain struct {
	RpcClient   *ethclient.Client
	ChainId     *big.Int
	UserAccount *bind.TransactOpts // signs deposits, exits and processExits
	Etherman    *Etherman
}

// NewRealEthUserChain connects to cfg.URL and binds the plasma framework at
// cfg.PlasmaFrameworkAddress, which must hold contract code.
func NewRealEthUserChain(ctx context.Context, cfg *Config, key *ecdsa.PrivateKey) (*RealEthUserChain, error) {
	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		logger.Errorf("failed to connect to the Ethereum client: %v", err)
		return nil, ClassifyError(err)
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		logger.Errorf("failed to get chain id: %v", err)
		return nil, ClassifyError(err)
	}

	code, err := client.CodeAt(ctx, cfg.PlasmaFrameworkAddress, nil)
	if err != nil {
		client.Close()
		return nil, ClassifyError(err)
	}
	if len(code) == 0 {
		client.Close()
		return nil, fmt.Errorf("plasma framework %s: %w", cfg.PlasmaFrameworkAddress.Hex(), ErrNoCode)
	}

	var userAccount *bind.TransactOpts
	if key != nil {
		userAccount, err = signers.NewAuth(key, chainId)
		if err != nil {
			client.Close()
			return nil, err
		}
	}

	etherman, err := NewEtherman(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"url":       cfg.URL,
		"chainId":   chainId.String(),
		"framework": cfg.PlasmaFrameworkAddress.Hex(),
	}).Info("connected to root chain")

	return &RealEthUserChain{
		RpcClient:   client,
		ChainId:     chainId,
		UserAccount: userAccount,
		Etherman:    etherman,
	}, nil
}

func (c *RealEthUserChain) Close() {
	c.RpcClient.Close()
}
