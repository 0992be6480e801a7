// PlasmaUser = root chain + child chain watcher + exit journal + http reporter.
// All components are configured via environment variables (strings!).

package cmd

import (
	"context"
	"crypto/ecdsa"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/etherman"
	"github.com/TEENet-io/plasma-go/exitmanager"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/reporter"
	"github.com/TEENet-io/plasma-go/signers"
	"github.com/TEENet-io/plasma-go/transactor"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"
)

// Defaults used when the environment leaves a value unset.
const (
	DefaultMillisToWaitForNextBlock = 1000
	DefaultBlocksToWaitForTxn       = 3
	DefaultWatcherPollIntervalMs    = 6000
	DefaultWatcherPollRetries       = 50
	DefaultDbFilePath               = "plasma.db"
	DefaultHttpIp                   = "127.0.0.1"
	DefaultHttpPort                 = "8080"
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type PlasmaUserConfig struct {
	// root chain side
	EthNode                string // json rpc url
	PlasmaFrameworkAddress string
	Erc20Address           string // optional, reported next to ETH
	PrivateKey             string // hex, signs both chains

	MillisToWaitForNextBlock int
	BlocksToWaitForTxn       int

	// child chain side
	WatcherUrl            string
	WatcherProxyUrl       string
	WatcherPollIntervalMs int
	WatcherPollRetries    int

	// exit journal
	DbFilePath string

	// http side
	HttpIp   string
	HttpPort string
}

// WaitConfig is the root-chain confirmation policy.
func (c *PlasmaUserConfig) WaitConfig() etherman.RootchainWaitConfig {
	wait := etherman.DefaultRootchainWaitConfig()
	if c.MillisToWaitForNextBlock > 0 {
		wait.CheckInterval = time.Duration(c.MillisToWaitForNextBlock) * time.Millisecond
	}
	if c.BlocksToWaitForTxn > 0 {
		wait.BlocksToWait = uint64(c.BlocksToWaitForTxn)
	}
	wait.OnCountdown = func(remaining uint64) {
		logger.WithField("remaining", remaining).Debug("waiting for root chain confirmations")
	}
	return wait
}

// PollConfig is the watcher polling policy.
func (c *PlasmaUserConfig) PollConfig() childchain.PollConfig {
	poll := childchain.DefaultPollConfig()
	if c.WatcherPollIntervalMs > 0 {
		poll.Interval = time.Duration(c.WatcherPollIntervalMs) * time.Millisecond
	}
	if c.WatcherPollRetries > 0 {
		poll.MaxRetries = c.WatcherPollRetries
	}
	return poll
}

// Tokens lists the currencies whose root-chain balances are reported.
func (c *PlasmaUserConfig) Tokens() ([]ethcommon.Address, error) {
	tokens := []ethcommon.Address{plasma.EthCurrency}
	if c.Erc20Address == "" {
		return tokens, nil
	}
	erc20, err := common.ParseAddress(c.Erc20Address)
	if err != nil {
		return nil, fmt.Errorf("ERC20_CONTRACT_ADDRESS: %w", err)
	}
	return append(tokens, erc20), nil
}

// PlasmaUser holds the wired components of one account.
type PlasmaUser struct {
	Key     *ecdsa.PrivateKey
	Address ethcommon.Address
	Auth    *bind.TransactOpts // nil when the user is read-only
	Tokens  []ethcommon.Address

	Root       etherman.RootChain
	Transactor *transactor.Transactor
	Exits      *exitmanager.ExitManager
	ExitDB     *exitmanager.ExitDB
	Reporter   *reporter.HttpReporter

	closers []func()
}

// NewPlasmaUser dials the root chain and the watcher and opens the exit journal.
func NewPlasmaUser(ctx context.Context, cfg *PlasmaUserConfig) (*PlasmaUser, error) {
	var key *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		var err error
		key, err = signers.StringToPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("PRIVATE_KEY: %w", err)
		}
	}

	framework, err := common.ParseAddress(cfg.PlasmaFrameworkAddress)
	if err != nil {
		return nil, fmt.Errorf("PLASMAFRAMEWORK_CONTRACT_ADDRESS: %w", err)
	}

	realEth, err := etherman.NewRealEthUserChain(ctx, &etherman.Config{
		URL:                    cfg.EthNode,
		PlasmaFrameworkAddress: framework,
	}, key)
	if err != nil {
		logger.Errorf("failed to connect to root chain: %v", err)
		return nil, err
	}

	watcher, err := childchain.NewClient(&childchain.Config{
		WatcherURL:      cfg.WatcherUrl,
		WatcherProxyURL: cfg.WatcherProxyUrl,
	})
	if err != nil {
		realEth.Close()
		return nil, err
	}

	dbPath := cfg.DbFilePath
	if dbPath == "" {
		dbPath = DefaultDbFilePath
	}
	sqldb, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		realEth.Close()
		logger.Errorf("failed to open db file: %v", err)
		return nil, err
	}

	user, err := AssemblePlasmaUser(cfg, key, realEth.UserAccount, realEth.Etherman, watcher, watcher, sqldb)
	if err != nil {
		sqldb.Close()
		realEth.Close()
		return nil, err
	}
	user.closers = append(user.closers, func() { sqldb.Close() }, realEth.Close)

	logger.WithFields(logger.Fields{
		"address": user.Address.Hex(),
		"watcher": cfg.WatcherUrl,
		"db":      dbPath,
	}).Info("plasma user ready")

	return user, nil
}

// AssemblePlasmaUser wires already connected components together.
func AssemblePlasmaUser(
	cfg *PlasmaUserConfig,
	key *ecdsa.PrivateKey,
	auth *bind.TransactOpts,
	root etherman.RootChain,
	child transactor.ChildChain,
	watcher exitmanager.Watcher,
	sqldb *sql.DB,
) (*PlasmaUser, error) {
	tokens, err := cfg.Tokens()
	if err != nil {
		return nil, err
	}

	exitDB, err := exitmanager.NewExitDB(sqldb)
	if err != nil {
		return nil, fmt.Errorf("failed to create exit db: %w", err)
	}

	wait := cfg.WaitConfig()
	exits := exitmanager.NewExitManager(&exitmanager.Config{Wait: wait}, root, watcher, exitDB)
	tr := transactor.NewTransactor(&transactor.Config{Poll: cfg.PollConfig(), Wait: wait}, root, child)

	httpIp, httpPort := cfg.HttpIp, cfg.HttpPort
	if httpIp == "" {
		httpIp = DefaultHttpIp
	}
	if httpPort == "" {
		httpPort = DefaultHttpPort
	}

	user := &PlasmaUser{
		Key:        key,
		Auth:       auth,
		Tokens:     tokens,
		Root:       root,
		Transactor: tr,
		Exits:      exits,
		ExitDB:     exitDB,
		Reporter:   reporter.NewHttpReporter(httpIp, httpPort, tr.Utxos(), exits),
		closers:    []func(){exitDB.Close},
	}
	if key != nil {
		user.Address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return user, nil
}

// RequireKey fails for read-only users.
func (u *PlasmaUser) RequireKey() error {
	if u.Key == nil || u.Auth == nil {
		return fmt.Errorf("PRIVATE_KEY must be provided: %w", transactor.ErrNilKey)
	}
	return nil
}

func (u *PlasmaUser) Close() {
	for _, closer := range u.closers {
		closer()
	}
}

// ServeAndWait runs the http reporter until Ctrl-C.
func (u *PlasmaUser) ServeAndWait(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- u.Reporter.Run()
	}()

	select {
	case sig := <-sigCh:
		logger.Infof("received signal: %v, stopping", sig)
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
