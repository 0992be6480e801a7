package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/TEENet-io/plasma-go/cmd"
	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/logconfig"
	"github.com/TEENet-io/plasma-go/plasma"
	ethcommon "github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	ENV_CONFIG_FILE_PATH = "PLASMA_CONFIG"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	app := &cli.App{
		Name:  "plasma",
		Usage: "Deposit, transfer and exit funds on a plasma child chain",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "configuration file, env vars override it",
				EnvVars: []string{ENV_CONFIG_FILE_PATH},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, production or any logrus level",
				Value: "info",
			},
		},
		Before: func(c *cli.Context) error {
			if err := logconfig.ConfigLogger(c.String("log-level")); err != nil {
				return err
			}
			return initializeViper(c.String("config"))
		},
		Commands: []*cli.Command{
			{
				Name:   "balances",
				Usage:  "Show child chain and root chain balances",
				Flags:  []cli.Flag{addressFlag},
				Action: withUser(balances),
			},
			{
				Name:   "utxos",
				Usage:  "List unspent outputs",
				Flags:  []cli.Flag{addressFlag, currencyFlag},
				Action: withUser(utxos),
			},
			{
				Name:  "deposit",
				Usage: "Deposit ETH or an ERC20 token into the child chain",
				Flags: []cli.Flag{
					currencyFlag,
					&cli.StringFlag{Name: "amount", Required: true},
				},
				Action: withUser(deposit),
			},
			{
				Name:  "transfer",
				Usage: "Pay an address on the child chain",
				Flags: []cli.Flag{
					currencyFlag,
					&cli.StringFlag{Name: "to", Required: true},
					&cli.StringFlag{Name: "amount", Required: true},
					&cli.StringFlag{Name: "fee", Value: "0"},
					&cli.StringFlag{Name: "fee-currency", Usage: "defaults to --currency"},
					&cli.StringFlag{Name: "metadata", Usage: "hex, up to 32 bytes"},
				},
				Action: withUser(transfer),
			},
			{
				Name:   "merge",
				Usage:  "Merge up to four outputs of a currency into one",
				Flags:  []cli.Flag{currencyFlag},
				Action: withUser(merge),
			},
			{
				Name:  "split",
				Usage: "Split own funds into outputs of the given amounts",
				Flags: []cli.Flag{
					currencyFlag,
					&cli.StringSliceFlag{Name: "amounts", Required: true},
					&cli.StringFlag{Name: "fee", Value: "0"},
				},
				Action: withUser(split),
			},
			{
				Name:   "add-exit-queue",
				Usage:  "Register the exit queue of a currency when missing",
				Flags:  []cli.Flag{currencyFlag},
				Action: withUser(addExitQueue),
			},
			{
				Name:  "exit-standard",
				Usage: "Start a standard exit of an owned output",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "utxo-pos", Required: true},
				},
				Action: withUser(exitStandard),
			},
			{
				Name:  "exit-inflight",
				Usage: "Start an in-flight exit of a signed transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tx", Usage: "signed tx bytes in hex", Required: true},
				},
				Action: withUser(exitInFlight),
			},
			{
				Name:  "piggyback",
				Usage: "Piggyback the in-flight exit on the output owned by this account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tx", Usage: "in-flight tx bytes in hex", Required: true},
				},
				Action: withUser(piggyback),
			},
			{
				Name:   "exit-queue",
				Usage:  "Show the exit queue of a currency",
				Flags:  []cli.Flag{currencyFlag},
				Action: withUser(exitQueue),
			},
			{
				Name:  "exit-process",
				Usage: "Process exitable exits of a currency",
				Flags: []cli.Flag{
					currencyFlag,
					&cli.StringFlag{Name: "top-exit-id", Value: "0"},
					&cli.Uint64Flag{Name: "max", Value: 1},
				},
				Action: withUser(exitProcess),
			},
			{
				Name:  "exit-time",
				Usage: "Estimate when an exit can be processed",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "request-block", Required: true},
					&cli.Uint64Flag{Name: "submission-block", Required: true},
				},
				Action: withUser(exitTime),
			},
			{
				Name:   "exits",
				Usage:  "List journaled exits",
				Flags:  []cli.Flag{addressFlag},
				Action: withUser(exits),
			},
			{
				Name:   "serve",
				Usage:  "Serve balances, utxos and exits over http",
				Action: withUser(serve),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

var (
	addressFlag  = &cli.StringFlag{Name: "address", Usage: "defaults to the configured account"}
	currencyFlag = &cli.StringFlag{Name: "currency", Usage: "eth or a token address", Value: "eth"}
)

func initializeViper(filePath string) error {
	viper.AutomaticEnv()
	viper.SetDefault("MILLIS_TO_WAIT_FOR_NEXT_BLOCK", cmd.DefaultMillisToWaitForNextBlock)
	viper.SetDefault("BLOCKS_TO_WAIT_FOR_TXN", cmd.DefaultBlocksToWaitForTxn)
	viper.SetDefault("WATCHER_POLL_INTERVAL_MS", cmd.DefaultWatcherPollIntervalMs)
	viper.SetDefault("WATCHER_POLL_RETRIES", cmd.DefaultWatcherPollRetries)
	viper.SetDefault("DB_FILE_PATH", cmd.DefaultDbFilePath)
	viper.SetDefault("HTTP_IP", cmd.DefaultHttpIp)
	viper.SetDefault("HTTP_PORT", cmd.DefaultHttpPort)

	if filePath == "" {
		return nil
	}
	if !cmd.FileExists(filePath) {
		return fmt.Errorf("configuration file not found: %s", filePath)
	}
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	return nil
}

// PreparePlasmaUserConfig reads configuration variables.
func PreparePlasmaUserConfig() *cmd.PlasmaUserConfig {
	return &cmd.PlasmaUserConfig{
		// root chain side
		EthNode:                  viper.GetString("ETH_NODE"),
		PlasmaFrameworkAddress:   viper.GetString("PLASMAFRAMEWORK_CONTRACT_ADDRESS"),
		Erc20Address:             viper.GetString("ERC20_CONTRACT_ADDRESS"),
		PrivateKey:               viper.GetString("PRIVATE_KEY"),
		MillisToWaitForNextBlock: viper.GetInt("MILLIS_TO_WAIT_FOR_NEXT_BLOCK"),
		BlocksToWaitForTxn:       viper.GetInt("BLOCKS_TO_WAIT_FOR_TXN"),
		// child chain side
		WatcherUrl:            viper.GetString("WATCHER_URL"),
		WatcherProxyUrl:       viper.GetString("WATCHER_PROXY_URL"),
		WatcherPollIntervalMs: viper.GetInt("WATCHER_POLL_INTERVAL_MS"),
		WatcherPollRetries:    viper.GetInt("WATCHER_POLL_RETRIES"),
		// journal side
		DbFilePath: viper.GetString("DB_FILE_PATH"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}

type action func(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error)

// withUser connects a PlasmaUser for the command and prints its result as JSON.
func withUser(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		user, err := cmd.NewPlasmaUser(c.Context, PreparePlasmaUserConfig())
		if err != nil {
			return err
		}
		defer user.Close()

		out, err := fn(c, user)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
}

func targetAddress(c *cli.Context, user *cmd.PlasmaUser) (ethcommon.Address, error) {
	if c.String("address") != "" {
		return common.ParseAddress(c.String("address"))
	}
	if user.Key == nil {
		return ethcommon.Address{}, fmt.Errorf("--address or PRIVATE_KEY must be provided")
	}
	return user.Address, nil
}

func balances(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	address, err := targetAddress(c, user)
	if err != nil {
		return nil, err
	}
	b, err := user.Transactor.Balances(c.Context, address, user.Tokens)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"address":    address.Hex(),
		"childchain": balanceStrings(b.ChildChain),
		"rootchain":  balanceStrings(b.RootChain),
	}, nil
}

func utxos(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	address, err := targetAddress(c, user)
	if err != nil {
		return nil, err
	}
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	found, err := user.Transactor.Utxos().GetUtxosByCurrency(c.Context, address, currency)
	if err != nil {
		return nil, err
	}
	views := make([]map[string]string, 0, len(found))
	for _, u := range found {
		views = append(views, map[string]string{
			"utxo_pos": u.UtxoPos().String(),
			"position": u.Position.String(),
			"currency": u.Currency.Hex(),
			"amount":   u.Amount.String(),
		})
	}
	return views, nil
}

func deposit(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, amount, err := currencyAndAmount(c)
	if err != nil {
		return nil, err
	}
	res, err := user.Transactor.Deposit(c.Context, user.Auth, currency, amount)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func transfer(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, amount, err := currencyAndAmount(c)
	if err != nil {
		return nil, err
	}
	to, err := common.ParseAddress(c.String("to"))
	if err != nil {
		return nil, err
	}
	fee, err := parseFee(c, currency)
	if err != nil {
		return nil, err
	}
	metadata, err := cmd.ParseMetadata(c.String("metadata"))
	if err != nil {
		return nil, err
	}

	payments := []plasma.PaymentRequest{{Recipient: to, Currency: currency, Amount: amount}}
	submitted, err := user.Transactor.Transfer(c.Context, user.Key, payments, fee, metadata)
	if err != nil {
		return nil, err
	}
	return submitted.Receipt, nil
}

func merge(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	submitted, err := user.Transactor.Merge(c.Context, user.Key, currency)
	if err != nil {
		return nil, err
	}
	return submitted.Receipt, nil
}

func split(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	amounts, err := cmd.ParseAmounts(c.StringSlice("amounts"))
	if err != nil {
		return nil, err
	}
	fee, err := parseFee(c, currency)
	if err != nil {
		return nil, err
	}
	submitted, err := user.Transactor.Split(c.Context, user.Key, currency, amounts, fee)
	if err != nil {
		return nil, err
	}
	return submitted.Receipt, nil
}

func addExitQueue(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	added, err := user.Exits.EnsureExitQueue(c.Context, user.Auth, currency)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"added": added}, nil
}

func exitStandard(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	utxoPos, err := common.ParseAmount(c.String("utxo-pos"))
	if err != nil {
		return nil, err
	}
	pos, err := plasma.DecodePosition(utxoPos)
	if err != nil {
		return nil, err
	}

	owned, err := user.Transactor.Utxos().GetUtxos(c.Context, user.Address)
	if err != nil {
		return nil, err
	}
	for _, u := range owned {
		if u.Position.Equal(pos) {
			return user.Exits.StartStandardExit(c.Context, user.Auth, u)
		}
	}
	return nil, fmt.Errorf("%w: %s is not an unspent output of %s", plasma.ErrOutputNotFound, pos, user.Address.Hex())
}

func exitInFlight(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	return user.Exits.StartInFlightExit(c.Context, user.Auth, common.HexStrToByteSlice(c.String("tx")))
}

func piggyback(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	return user.Exits.Piggyback(c.Context, user.Auth, common.HexStrToByteSlice(c.String("tx")), user.Address)
}

func exitQueue(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	return user.Exits.GetExitQueue(c.Context, currency)
}

func exitProcess(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	if err := user.RequireKey(); err != nil {
		return nil, err
	}
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return nil, err
	}
	topExitId, err := common.ParseAmount(c.String("top-exit-id"))
	if err != nil {
		return nil, err
	}
	return user.Exits.ProcessExits(c.Context, user.Auth, currency, topExitId, c.Uint64("max"))
}

func exitTime(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	return user.Exits.GetExitTime(c.Context, c.Uint64("request-block"), c.Uint64("submission-block"))
}

func exits(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	var owner *ethcommon.Address
	if c.String("address") != "" {
		addr, err := common.ParseAddress(c.String("address"))
		if err != nil {
			return nil, err
		}
		owner = &addr
	}
	return user.Exits.Exits(c.Context, owner)
}

func serve(c *cli.Context, user *cmd.PlasmaUser) (interface{}, error) {
	fmt.Println("Starting plasma reporter... press Ctrl+C to stop")
	return nil, user.ServeAndWait(c.Context)
}

func currencyAndAmount(c *cli.Context) (ethcommon.Address, *big.Int, error) {
	currency, err := cmd.ParseCurrency(c.String("currency"))
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	amount, err := common.ParseAmount(c.String("amount"))
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	return currency, amount, nil
}

func parseFee(c *cli.Context, currency ethcommon.Address) (plasma.Fee, error) {
	feeCurrency := currency
	if c.String("fee-currency") != "" {
		var err error
		feeCurrency, err = cmd.ParseCurrency(c.String("fee-currency"))
		if err != nil {
			return plasma.Fee{}, err
		}
	}
	amount, err := common.ParseAmount(c.String("fee"))
	if err != nil {
		return plasma.Fee{}, err
	}
	return plasma.Fee{Currency: feeCurrency, Amount: amount}, nil
}

func balanceStrings(b plasma.Balances) map[string]string {
	out := make(map[string]string, len(b))
	for currency, amount := range b {
		out[currency.Hex()] = amount.String()
	}
	return out
}
