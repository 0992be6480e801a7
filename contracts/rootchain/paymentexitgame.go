package rootchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StartStandardExitArgs is an auto generated low-level Go binding around a user-defined struct.
type StartStandardExitArgs struct {
	UtxoPos                *big.Int
	RlpOutputTx            []byte
	OutputTxInclusionProof []byte
}

// StartInFlightExitArgs is an auto generated low-level Go binding around a user-defined struct.
type StartInFlightExitArgs struct {
	InFlightTx              []byte
	InputTxs                [][]byte
	InputUtxosPos           []*big.Int
	InputTxsInclusionProofs [][]byte
	InFlightTxWitnesses     [][]byte
}

// PiggybackInFlightExitOnOutputArgs is an auto generated low-level Go binding around a user-defined struct.
type PiggybackInFlightExitOnOutputArgs struct {
	InFlightTx  []byte
	OutputIndex uint16
}

type PaymentExitGame struct {
	contract *bind.BoundContract
}

func NewPaymentExitGame(address common.Address, backend bind.ContractBackend) (*PaymentExitGame, error) {
	contract, err := bindContract(PaymentExitGameMetaData, address, backend)
	if err != nil {
		return nil, err
	}
	return &PaymentExitGame{contract: contract}, nil
}

// Solidity: function startStandardExit((uint256,bytes,bytes) args) payable returns()
func (_PEG *PaymentExitGame) StartStandardExit(opts *bind.TransactOpts, args StartStandardExitArgs) (*types.Transaction, error) {
	return _PEG.contract.Transact(opts, "startStandardExit", args)
}

// Solidity: function startInFlightExit((bytes,bytes[],uint256[],bytes[],bytes[]) args) payable returns()
func (_PEG *PaymentExitGame) StartInFlightExit(opts *bind.TransactOpts, args StartInFlightExitArgs) (*types.Transaction, error) {
	return _PEG.contract.Transact(opts, "startInFlightExit", args)
}

// Solidity: function piggybackInFlightExitOnOutput((bytes,uint16) args) payable returns()
func (_PEG *PaymentExitGame) PiggybackInFlightExitOnOutput(opts *bind.TransactOpts, args PiggybackInFlightExitOnOutputArgs) (*types.Transaction, error) {
	return _PEG.contract.Transact(opts, "piggybackInFlightExitOnOutput", args)
}

// Solidity: function getStandardExitId(bool _isDeposit, bytes _txBytes, uint256 _utxoPos) pure returns(uint160)
func (_PEG *PaymentExitGame) GetStandardExitId(opts *bind.CallOpts, isDeposit bool, txBytes []byte, utxoPos *big.Int) (*big.Int, error) {
	var out []interface{}
	err := _PEG.contract.Call(opts, &out, "getStandardExitId", isDeposit, txBytes, utxoPos)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Solidity: function getInFlightExitId(bytes _txBytes) pure returns(uint160)
func (_PEG *PaymentExitGame) GetInFlightExitId(opts *bind.CallOpts, txBytes []byte) (*big.Int, error) {
	var out []interface{}
	err := _PEG.contract.Call(opts, &out, "getInFlightExitId", txBytes)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (_PEG *PaymentExitGame) StartStandardExitBondSize(opts *bind.CallOpts) (*big.Int, error) {
	return _PEG.bondSize(opts, "startStandardExitBondSize")
}

func (_PEG *PaymentExitGame) StartIFEBondSize(opts *bind.CallOpts) (*big.Int, error) {
	return _PEG.bondSize(opts, "startIFEBondSize")
}

func (_PEG *PaymentExitGame) PiggybackBondSize(opts *bind.CallOpts) (*big.Int, error) {
	return _PEG.bondSize(opts, "piggybackBondSize")
}

func (_PEG *PaymentExitGame) bondSize(opts *bind.CallOpts, method string) (*big.Int, error) {
	var out []interface{}
	err := _PEG.contract.Call(opts, &out, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}
