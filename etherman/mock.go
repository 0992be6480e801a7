package etherman

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/contracts/rootchain"
	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MockCall is one state-changing call received by MockRootChain.
type MockCall struct {
	Method string
	From   ethcommon.Address
	Value  *big.Int
	Tx     *types.Transaction
	Args   []interface{}
}

// MockRootChain is an in-memory RootChain. Exits are queued with the same
// ids and priorities the exit game would assign.
type MockRootChain struct {
	mu sync.Mutex

	Framework ethcommon.Address
	// Now is the timestamp of every mined block, MinExit the exit period.
	Now     uint64
	MinExit uint64

	ChildBlocks map[uint64]uint64 // child block number => submission time
	Tokens      map[ethcommon.Address]bool
	Queues      map[ethcommon.Address][]plasma.ExitQueueEntry
	Balances    map[ethcommon.Address]map[ethcommon.Address]*big.Int // currency => owner => amount
	Allowances  map[ethcommon.Address]map[ethcommon.Address]*big.Int // token => owner => amount

	// Fail makes the named method fail on send.
	Fail map[string]error
	// Revert makes the named method mine a failed receipt without effects.
	Revert map[string]bool

	Calls []MockCall

	block    uint64
	receipts map[ethcommon.Hash]*types.Receipt
}

func NewMockRootChain() *MockRootChain {
	return &MockRootChain{
		Framework:   common.RandEthAddress(),
		Now:         1_700_000_000,
		MinExit:     60,
		ChildBlocks: map[uint64]uint64{},
		Tokens:      map[ethcommon.Address]bool{},
		Queues:      map[ethcommon.Address][]plasma.ExitQueueEntry{},
		Balances:    map[ethcommon.Address]map[ethcommon.Address]*big.Int{},
		Allowances:  map[ethcommon.Address]map[ethcommon.Address]*big.Int{},
		Fail:        map[string]error{},
		Revert:      map[string]bool{},
		block:       100,
		receipts:    map[ethcommon.Hash]*types.Receipt{},
	}
}

// CallsOf returns the recorded calls of method in order.
func (m *MockRootChain) CallsOf(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls []MockCall
	for _, c := range m.Calls {
		if c.Method == method {
			calls = append(calls, c)
		}
	}
	return calls
}

// SetBalance sets the root-chain balance of owner in currency.
func (m *MockRootChain) SetBalance(currency, owner ethcommon.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances(currency)[owner] = new(big.Int).Set(amount)
}

func (m *MockRootChain) balances(currency ethcommon.Address) map[ethcommon.Address]*big.Int {
	b, ok := m.Balances[currency]
	if !ok {
		b = map[ethcommon.Address]*big.Int{}
		m.Balances[currency] = b
	}
	return b
}

func (m *MockRootChain) get(table map[ethcommon.Address]map[ethcommon.Address]*big.Int, key, owner ethcommon.Address) *big.Int {
	if inner, ok := table[key]; ok {
		if v, ok := inner[owner]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

// send records the call and mines it in a new block. Callers hold m.mu.
func (m *MockRootChain) send(method string, auth *bind.TransactOpts, value *big.Int, args ...interface{}) (*types.Transaction, error) {
	if err := m.Fail[method]; err != nil {
		return nil, err
	}

	m.block++
	tx := types.NewTx(&types.LegacyTx{
		Nonce: m.block,
		Value: value,
		Data:  []byte(method),
	})
	status := types.ReceiptStatusSuccessful
	if m.Revert[method] {
		status = types.ReceiptStatusFailed
	}
	m.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(m.block),
	}

	m.Calls = append(m.Calls, MockCall{
		Method: method,
		From:   auth.From,
		Value:  value,
		Tx:     tx,
		Args:   args,
	})
	return tx, nil
}

func (m *MockRootChain) PlasmaFrameworkAddress() ethcommon.Address {
	return m.Framework
}

func (m *MockRootChain) Deposit(_ context.Context, auth *bind.TransactOpts, currency ethcommon.Address, amount *big.Int, depositTx []byte) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNegativeAmount
	}
	var allowance *big.Int
	if !plasma.IsEth(currency) {
		allowance = m.get(m.Allowances, currency, auth.From)
		if allowance.Cmp(amount) < 0 {
			return nil, fmt.Errorf("%w: allowance %v < %v", plasma.ErrRootChainRejected, allowance, amount)
		}
	}

	var value *big.Int
	if plasma.IsEth(currency) {
		value = new(big.Int).Set(amount)
	}
	tx, err := m.send("deposit", auth, value, currency, new(big.Int).Set(amount), depositTx)
	if err != nil || m.Revert["deposit"] {
		return tx, err
	}
	if allowance != nil {
		m.Allowances[currency][auth.From] = allowance.Sub(allowance, amount)
	}
	return tx, nil
}

func (m *MockRootChain) ApproveToken(_ context.Context, auth *bind.TransactOpts, token ethcommon.Address, amount *big.Int) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount == nil || amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	tx, err := m.send("approve", auth, nil, token, new(big.Int).Set(amount))
	if err != nil || m.Revert["approve"] {
		return tx, err
	}
	if _, ok := m.Allowances[token]; !ok {
		m.Allowances[token] = map[ethcommon.Address]*big.Int{}
	}
	m.Allowances[token][auth.From] = new(big.Int).Set(amount)
	return tx, nil
}

func (m *MockRootChain) Allowance(_ context.Context, token, owner ethcommon.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(m.Allowances, token, owner), nil
}

func (m *MockRootChain) BalanceOf(_ context.Context, address ethcommon.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(m.Balances, plasma.EthCurrency, address), nil
}

func (m *MockRootChain) Erc20BalanceOf(_ context.Context, token, address ethcommon.Address) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(m.Balances, token, address), nil
}

func (m *MockRootChain) StartStandardExit(_ context.Context, auth *bind.TransactOpts, utxoPos *big.Int, outputTx, inclusionProof []byte) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, err := plasma.DecodePosition(utxoPos)
	if err != nil {
		return nil, err
	}
	tx, err := plasma.DecodeTransaction(outputTx)
	if err != nil {
		return nil, err
	}
	if pos.OutputIndex >= uint64(len(tx.Outputs)) {
		return nil, fmt.Errorf("%w: no output %d", plasma.ErrRootChainRejected, pos.OutputIndex)
	}

	isDeposit := plasma.IsDeposit(pos.BlockNumber)
	exitId, err := plasma.StandardExitId(isDeposit, outputTx, utxoPos)
	if err != nil {
		return nil, err
	}

	sent, err := m.send("startStandardExit", auth, nil, new(big.Int).Set(utxoPos), outputTx, inclusionProof)
	if err != nil || m.Revert["startStandardExit"] {
		return sent, err
	}
	exitableAt := plasma.ExitableAt(m.Now, m.ChildBlocks[pos.BlockNumber], m.MinExit, isDeposit)
	m.enqueue(tx.Outputs[pos.OutputIndex].Currency, exitableAt, pos.TxPos(), exitId)
	return sent, nil
}

func (m *MockRootChain) StartInFlightExit(_ context.Context, auth *bind.TransactOpts, args rootchain.StartInFlightExitArgs) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := plasma.DecodeTransaction(args.InFlightTx); err != nil {
		return nil, err
	}
	return m.send("startInFlightExit", auth, nil, args)
}

// PiggybackInFlightExitOnOutput queues the in-flight exit under the
// piggybacked output's currency.
func (m *MockRootChain) PiggybackInFlightExitOnOutput(_ context.Context, auth *bind.TransactOpts, inFlightTx []byte, outputIndex uint16) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, err := plasma.DecodeTransaction(inFlightTx)
	if err != nil {
		return nil, err
	}
	if int(outputIndex) >= len(tx.Outputs) {
		return nil, fmt.Errorf("%w: no output %d", plasma.ErrRootChainRejected, outputIndex)
	}
	exitId, err := plasma.InFlightExitId(inFlightTx)
	if err != nil {
		return nil, err
	}

	sent, err := m.send("piggybackInFlightExitOnOutput", auth, nil, inFlightTx, outputIndex)
	if err != nil || m.Revert["piggybackInFlightExitOnOutput"] {
		return sent, err
	}
	m.enqueue(tx.Outputs[outputIndex].Currency, m.Now+m.MinExit, new(big.Int), exitId)
	return sent, nil
}

func (m *MockRootChain) enqueue(currency ethcommon.Address, exitableAt uint64, txPos, exitId *big.Int) {
	m.Queues[currency] = append(m.Queues[currency], plasma.ParseExitPriority(plasma.ExitPriority(exitableAt, txPos, exitId)))
	plasma.SortExitQueue(m.Queues[currency])
}

// ProcessExits pops up to maxExits exits that are exitable at Now.
func (m *MockRootChain) ProcessExits(_ context.Context, auth *bind.TransactOpts, currency ethcommon.Address, topExitId *big.Int, maxExits uint64) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if auth == nil {
		return nil, ErrNilTransactOpts
	}
	if topExitId == nil {
		topExitId = new(big.Int)
	}
	queue := m.Queues[currency]
	if topExitId.Sign() != 0 {
		if len(queue) == 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, new(big.Int))
		}
		if queue[0].ExitId.Cmp(topExitId) != 0 {
			return nil, plasma.ErrStaleTopExit(topExitId, queue[0].ExitId)
		}
	}

	tx, err := m.send("processExits", auth, nil, currency, new(big.Int).Set(topExitId), maxExits)
	if err != nil || m.Revert["processExits"] {
		return tx, err
	}
	var n uint64
	for len(queue) > 0 && n < maxExits && queue[0].ExitableAt <= m.Now {
		queue = queue[1:]
		n++
	}
	m.Queues[currency] = queue
	return tx, nil
}

func (m *MockRootChain) GetExitQueue(_ context.Context, currency ethcommon.Address) ([]plasma.ExitQueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := make([]plasma.ExitQueueEntry, len(m.Queues[currency]))
	copy(queue, m.Queues[currency])
	return queue, nil
}

func (m *MockRootChain) HasToken(_ context.Context, currency ethcommon.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Tokens[currency], nil
}

func (m *MockRootChain) AddToken(_ context.Context, auth *bind.TransactOpts, currency ethcommon.Address) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Tokens[currency] {
		return nil, fmt.Errorf("%w: exit queue exists", plasma.ErrRootChainRejected)
	}
	tx, err := m.send("addExitQueue", auth, nil, currency)
	if err != nil || m.Revert["addExitQueue"] {
		return tx, err
	}
	m.Tokens[currency] = true
	return tx, nil
}

func (m *MockRootChain) GetStandardExitId(_ context.Context, isDeposit bool, txBytes []byte, utxoPos *big.Int) (*big.Int, error) {
	return plasma.StandardExitId(isDeposit, txBytes, utxoPos)
}

func (m *MockRootChain) GetInFlightExitId(_ context.Context, txBytes []byte) (*big.Int, error) {
	return plasma.InFlightExitId(txBytes)
}

func (m *MockRootChain) GetExitTime(_ context.Context, _, submissionBlock uint64) (*ExitTime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return exitTime(m.Now, m.Now, m.ChildBlocks[submissionBlock], m.MinExit, plasma.IsDeposit(submissionBlock)), nil
}

func (m *MockRootChain) MinExitPeriod(context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).SetUint64(m.MinExit), nil
}

func (m *MockRootChain) BlockTimestamp(context.Context, *big.Int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Now, nil
}

func (m *MockRootChain) ChildBlockTimestamp(_ context.Context, blknum uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ChildBlocks[blknum], nil
}

func (m *MockRootChain) WaitForRootchainTransaction(_ context.Context, txHash ethcommon.Hash, cfg RootchainWaitConfig) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	receipt, ok := m.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, txHash.Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", plasma.ErrRootChainRejected, txHash.Hex())
	}
	if cfg.OnCountdown != nil {
		for remaining := cfg.BlocksToWait; remaining > 0; remaining-- {
			cfg.OnCountdown(remaining)
		}
	}
	return receipt, nil
}

var _ RootChain = (*MockRootChain)(nil)
