package rootchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Vault binds either the ETH vault (value carries the amount) or the ERC20
// vault (amount pulled through a prior approve).
type Vault struct {
	contract *bind.BoundContract
}

func NewVault(address common.Address, backend bind.ContractBackend) (*Vault, error) {
	contract, err := bindContract(VaultMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &Vault{contract: contract}, nil
}

// Solidity: function deposit(bytes depositTx) payable returns()
func (_V *Vault) Deposit(opts *bind.TransactOpts, depositTx []byte) (*types.Transaction, error) {
	return _V.contract.Transact(opts, "deposit", depositTx)
}

type PriorityQueue struct {
	contract *bind.BoundContract
}

func NewPriorityQueue(address common.Address, backend bind.ContractBackend) (*PriorityQueue, error) {
	contract, err := bindContract(PriorityQueueMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &PriorityQueue{contract: contract}, nil
}

// HeapList returns the raw heap; index 0 is a placeholder.
//
// Solidity: function heapList() view returns(uint256[])
func (_PQ *PriorityQueue) HeapList(opts *bind.CallOpts) ([]*big.Int, error) {
	var out []interface{}
	err := _PQ.contract.Call(opts, &out, "heapList")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}
