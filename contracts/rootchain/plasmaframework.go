package rootchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type PlasmaFramework struct {
	contract *bind.BoundContract
}

// ChildBlock is an entry of the framework's block registry.
type ChildBlock struct {
	Root      [32]byte
	Timestamp *big.Int
}

func NewPlasmaFramework(address common.Address, backend bind.ContractBackend) (*PlasmaFramework, error) {
	contract, err := bindContract(PlasmaFrameworkMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &PlasmaFramework{contract: contract}, nil
}

// Vaults is a free data retrieval call.
//
// Solidity: function vaults(uint256 _vaultId) view returns(address)
func (_PF *PlasmaFramework) Vaults(opts *bind.CallOpts, vaultId *big.Int) (common.Address, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "vaults", vaultId)
	if err != nil {
		return *new(common.Address), err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Solidity: function exitGames(uint256 _txType) view returns(address)
func (_PF *PlasmaFramework) ExitGames(opts *bind.CallOpts, txType *big.Int) (common.Address, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "exitGames", txType)
	if err != nil {
		return *new(common.Address), err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Solidity: function hasExitQueue(uint256 vaultId, address token) view returns(bool)
func (_PF *PlasmaFramework) HasExitQueue(opts *bind.CallOpts, vaultId *big.Int, token common.Address) (bool, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "hasExitQueue", vaultId, token)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// Solidity: function exitsQueues(bytes32) view returns(address)
func (_PF *PlasmaFramework) ExitsQueues(opts *bind.CallOpts, key [32]byte) (common.Address, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "exitsQueues", key)
	if err != nil {
		return *new(common.Address), err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Solidity: function minExitPeriod() view returns(uint256)
func (_PF *PlasmaFramework) MinExitPeriod(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "minExitPeriod")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Solidity: function blocks(uint256) view returns(bytes32 root, uint256 timestamp)
func (_PF *PlasmaFramework) Blocks(opts *bind.CallOpts, blknum *big.Int) (ChildBlock, error) {
	var out []interface{}
	err := _PF.contract.Call(opts, &out, "blocks", blknum)
	if err != nil {
		return ChildBlock{}, err
	}
	return ChildBlock{
		Root:      *abi.ConvertType(out[0], new([32]byte)).(*[32]byte),
		Timestamp: *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
	}, nil
}

// Solidity: function addExitQueue(uint256 vaultId, address token) returns()
func (_PF *PlasmaFramework) AddExitQueue(opts *bind.TransactOpts, vaultId *big.Int, token common.Address) (*types.Transaction, error) {
	return _PF.contract.Transact(opts, "addExitQueue", vaultId, token)
}

// Solidity: function processExits(uint256 vaultId, address token, uint160 topExitId, uint256 maxExitsToProcess, bytes32 senderData) returns()
func (_PF *PlasmaFramework) ProcessExits(
	opts *bind.TransactOpts,
	vaultId *big.Int,
	token common.Address,
	topExitId *big.Int,
	maxExitsToProcess *big.Int,
	senderData [32]byte,
) (*types.Transaction, error) {
	return _PF.contract.Transact(opts, "processExits", vaultId, token, topExitId, maxExitsToProcess, senderData)
}

func bindContract(meta *bind.MetaData, address common.Address, backend bind.ContractBackend) (*bind.BoundContract, error) {
	parsed, err := meta.GetAbi()
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, *parsed, backend, backend, backend), nil
}
