package transactor

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/TEENet-io/plasma-go/childchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/TEENet-io/plasma-go/signers"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// MockChildChain is an in-memory child chain. Submitted transactions are
// checked like the watcher would and mined one per block.
type MockChildChain struct {
	mu sync.Mutex

	signer *signers.Signer
	utxos  map[plasma.Position]plasma.Utxo
	blknum uint64

	Submitted []*plasma.SignedTransaction
}

func NewMockChildChain(verifyingContract ethcommon.Address) *MockChildChain {
	return &MockChildChain{
		signer: signers.NewSigner(verifyingContract),
		utxos:  map[plasma.Position]plasma.Utxo{},
	}
}

// AddUtxo credits owner with a fresh output, as a deposit would.
func (c *MockChildChain) AddUtxo(blknum uint64, owner, currency ethcommon.Address, amount int64) plasma.Utxo {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := plasma.Utxo{
		Position: plasma.Position{BlockNumber: blknum},
		Owner:    owner,
		Currency: currency,
		Amount:   big.NewInt(amount),
	}
	c.utxos[u.Position] = u
	return u
}

func (c *MockChildChain) GetUtxos(_ context.Context, address ethcommon.Address) ([]plasma.Utxo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	utxos := []plasma.Utxo{}
	for _, u := range c.utxos {
		if u.Owner == address {
			utxos = append(utxos, u)
		}
	}
	return utxos, nil
}

func (c *MockChildChain) GetBalance(ctx context.Context, address ethcommon.Address) (plasma.Balances, error) {
	utxos, err := c.GetUtxos(ctx, address)
	if err != nil {
		return nil, err
	}
	balances := plasma.Balances{}
	for _, u := range utxos {
		balances.Add(u.Currency, u.Amount)
	}
	return balances, nil
}

func (c *MockChildChain) Submit(_ context.Context, stx *plasma.SignedTransaction) (*childchain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := stx.Encode()
	if err != nil {
		return nil, err
	}
	decoded, err := plasma.DecodeSignedTransaction(b)
	if err != nil {
		return nil, err
	}

	funded := plasma.Balances{}
	for i, in := range decoded.Inputs {
		u, ok := c.utxos[in.Position]
		if !ok {
			return nil, &childchain.WatcherError{
				Endpoint:    childchain.EndpointSubmit,
				Code:        "submit:utxo_not_found",
				Description: fmt.Sprintf("input %s", in.Position),
			}
		}
		decoded.Inputs[i] = u
		funded.Add(u.Currency, u.Amount)
	}
	if err := c.signer.Verify(decoded); err != nil {
		return nil, &childchain.WatcherError{
			Endpoint:    childchain.EndpointSubmit,
			Code:        "submit:unauthorized_spend",
			Description: err.Error(),
		}
	}

	spent := plasma.Balances{}
	for _, out := range decoded.Outputs {
		spent.Add(out.Currency, out.Amount)
	}
	for currency, amount := range spent {
		if funded.Get(currency).Cmp(amount) < 0 {
			return nil, &childchain.WatcherError{
				Endpoint:    childchain.EndpointSubmit,
				Code:        "submit:amounts_do_not_add_up",
				Description: currency.Hex(),
			}
		}
	}

	c.blknum += plasma.ChildBlockInterval
	for _, in := range decoded.Inputs {
		delete(c.utxos, in.Position)
	}
	for i, out := range decoded.Outputs {
		pos := plasma.Position{BlockNumber: c.blknum, OutputIndex: uint64(i)}
		c.utxos[pos] = plasma.Utxo{Position: pos, Owner: out.Owner, Currency: out.Currency, Amount: out.Amount}
	}
	c.Submitted = append(c.Submitted, stx)

	hash, err := decoded.Transaction.Hash()
	if err != nil {
		return nil, err
	}
	return &childchain.Receipt{BlockNumber: c.blknum, TxIndex: 0, TxHash: hash}, nil
}

// WaitForBalance and WaitForUtxo check once; the mock mines synchronously.
func (c *MockChildChain) WaitForBalance(ctx context.Context, address, currency ethcommon.Address, expected *big.Int, _ childchain.PollConfig) error {
	balances, err := c.GetBalance(ctx, address)
	if err != nil {
		return err
	}
	if balances.Get(currency).Cmp(expected) != 0 {
		return fmt.Errorf("%w: balance of %s", plasma.ErrConfirmationTimeout, address.Hex())
	}
	return nil
}

func (c *MockChildChain) WaitForUtxo(_ context.Context, address ethcommon.Address, pos plasma.Position, _ childchain.PollConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.utxos[pos]; ok && u.Owner == address {
		return nil
	}
	return fmt.Errorf("%w: utxo %s", plasma.ErrConfirmationTimeout, pos)
}

var _ ChildChain = (*MockChildChain)(nil)
