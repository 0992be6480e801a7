package transactor

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/etherman"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/signers"
	"github.com/TEENet-io/plasma-go/txbuilder"
	"github.com/TEENet-io/plasma-go/utxo"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

var ErrNilKey = errors.New("private key is nil")

// Transactor moves funds: deposits on the root chain, payments on the child chain.
type Transactor struct {
	cfg    *Config
	root   etherman.RootChain
	child  ChildChain
	utxos  *utxo.Manager
	signer *signers.Signer
}

func NewTransactor(cfg *Config, root etherman.RootChain, child ChildChain) *Transactor {
	return &Transactor{
		cfg:    cfg,
		root:   root,
		child:  child,
		utxos:  utxo.NewManager(child),
		signer: signers.NewSigner(root.PlasmaFrameworkAddress()),
	}
}

func (t *Transactor) Utxos() *utxo.Manager {
	return t.utxos
}

func (t *Transactor) Signer() *signers.Signer {
	return t.signer
}

// DepositResult holds the confirmed root-chain transactions of a deposit.
type DepositResult struct {
	ApproveTxHash ethcommon.Hash // zero for ETH
	DepositTxHash ethcommon.Hash
	BlockNumber   uint64
}

// Deposit moves amount of currency from auth.From into the child chain.
// ERC20 deposits approve the vault first and wait for the approval.
func (t *Transactor) Deposit(ctx context.Context, auth *bind.TransactOpts, currency ethcommon.Address, amount *big.Int) (*DepositResult, error) {
	if auth == nil {
		return nil, etherman.ErrNilTransactOpts
	}
	depositTx, err := txbuilder.BuildDeposit(auth.From, currency, amount)
	if err != nil {
		return nil, err
	}

	result := &DepositResult{}
	if !plasma.IsEth(currency) {
		approveTx, err := t.root.ApproveToken(ctx, auth, currency, amount)
		if err != nil {
			return nil, err
		}
		if _, err := t.root.WaitForRootchainTransaction(ctx, approveTx.Hash(), t.cfg.Wait); err != nil {
			return nil, err
		}
		result.ApproveTxHash = approveTx.Hash()
	}

	tx, err := t.root.Deposit(ctx, auth, currency, amount, depositTx)
	if err != nil {
		return nil, err
	}
	receipt, err := t.root.WaitForRootchainTransaction(ctx, tx.Hash(), t.cfg.Wait)
	if err != nil {
		return nil, err
	}
	result.DepositTxHash = tx.Hash()
	result.BlockNumber = receipt.BlockNumber.Uint64()

	logger.WithFields(logger.Fields{
		"owner":    auth.From.Hex(),
		"currency": currency.Hex(),
		"amount":   amount.String(),
		"txHash":   tx.Hash().Hex(),
	}).Info("deposit confirmed on root chain")

	return result, nil
}

// Submitted is a signed transaction accepted by the child chain.
type Submitted struct {
	Tx      *plasma.SignedTransaction
	Receipt *childchain.Receipt
}

// OutputPosition returns where output oindex of the submitted tx lives.
func (s *Submitted) OutputPosition(oindex uint64) (plasma.Position, error) {
	if oindex >= uint64(len(s.Tx.Outputs)) {
		return plasma.Position{}, fmt.Errorf("%w: output %d of %d", plasma.ErrOutputNotFound, oindex, len(s.Tx.Outputs))
	}
	return plasma.NewPosition(s.Receipt.BlockNumber, s.Receipt.TxIndex, oindex)
}

// Transfer pays payments and fee from the key's address, selecting inputs
// from its current outputs.
func (t *Transactor) Transfer(
	ctx context.Context,
	key *ecdsa.PrivateKey,
	payments []plasma.PaymentRequest,
	fee plasma.Fee,
	metadata [32]byte,
) (*Submitted, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	inputs, err := t.utxos.SelectInputs(ctx, owner, payments, fee)
	if err != nil {
		return nil, err
	}
	tx, err := txbuilder.Build(owner, inputs, payments, fee, metadata)
	if err != nil {
		return nil, err
	}
	return t.signAndSubmit(ctx, key, tx)
}

// Merge consolidates up to four of the key's outputs in currency into one.
func (t *Transactor) Merge(ctx context.Context, key *ecdsa.PrivateKey, currency ethcommon.Address) (*Submitted, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	inputs, err := t.utxos.SelectMerge(ctx, owner, currency)
	if err != nil {
		return nil, err
	}
	tx, err := txbuilder.BuildMerge(owner, inputs)
	if err != nil {
		return nil, err
	}
	return t.signAndSubmit(ctx, key, tx)
}

// Split pays each of amounts in currency back to the key's own address.
func (t *Transactor) Split(
	ctx context.Context,
	key *ecdsa.PrivateKey,
	currency ethcommon.Address,
	amounts []*big.Int,
	fee plasma.Fee,
) (*Submitted, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	payments := make([]plasma.PaymentRequest, len(amounts))
	for i, amount := range amounts {
		payments[i] = plasma.PaymentRequest{Recipient: owner, Currency: currency, Amount: amount}
	}
	return t.Transfer(ctx, key, payments, fee, plasma.NullMetadata)
}

func (t *Transactor) signAndSubmit(ctx context.Context, key *ecdsa.PrivateKey, tx *plasma.Transaction) (*Submitted, error) {
	keys := make([]*ecdsa.PrivateKey, len(tx.Inputs))
	for i := range keys {
		keys[i] = key
	}
	stx, err := t.signer.SignAndBuild(tx, keys)
	if err != nil {
		return nil, err
	}

	receipt, err := t.child.Submit(ctx, stx)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"txHash":  receipt.TxHash.Hex(),
		"blknum":  receipt.BlockNumber,
		"txindex": receipt.TxIndex,
		"inputs":  len(tx.Inputs),
		"outputs": len(tx.Outputs),
	}).Info("transaction submitted")

	return &Submitted{Tx: stx, Receipt: receipt}, nil
}

// WaitForOutput polls the watcher until output oindex of s shows up as an
// unspent output of its owner.
func (t *Transactor) WaitForOutput(ctx context.Context, s *Submitted, oindex uint64) error {
	pos, err := s.OutputPosition(oindex)
	if err != nil {
		return err
	}
	return t.child.WaitForUtxo(ctx, s.Tx.Outputs[oindex].Owner, pos, t.cfg.Poll)
}

// WaitForBalance polls the watcher until address holds exactly expected of currency.
func (t *Transactor) WaitForBalance(ctx context.Context, address, currency ethcommon.Address, expected *big.Int) error {
	return t.child.WaitForBalance(ctx, address, currency, expected, t.cfg.Poll)
}

// AccountBalances is an address's funds on both chains.
type AccountBalances struct {
	ChildChain plasma.Balances
	RootChain  plasma.Balances
}

// Balances reads address's child-chain balances and its root-chain ETH plus
// the given ERC20 tokens.
func (t *Transactor) Balances(ctx context.Context, address ethcommon.Address, tokens []ethcommon.Address) (*AccountBalances, error) {
	child, err := t.utxos.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}

	root := plasma.Balances{}
	eth, err := t.root.BalanceOf(ctx, address)
	if err != nil {
		return nil, err
	}
	root.Add(plasma.EthCurrency, eth)
	for _, token := range tokens {
		if plasma.IsEth(token) {
			continue
		}
		amount, err := t.root.Erc20BalanceOf(ctx, token, address)
		if err != nil {
			return nil, err
		}
		root.Add(token, amount)
	}

	return &AccountBalances{ChildChain: child, RootChain: root}, nil
}
