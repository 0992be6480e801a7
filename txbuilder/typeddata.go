package txbuilder

import (
	"fmt"

	"github.com/TEENet-io/plasma-go/plasma"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	DomainName    = "OMG Network"
	DomainVersion = "2"
	// DomainSalt is fixed by the payment exit game's EIP-712 library.
	DomainSalt = "0xfad5c7f626d80f9256ef01929f3beb96e058b8b4b0e3fe52d84f054c0e2a7a83"
)

var typedDataTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "verifyingContract", Type: "address"},
		{Name: "salt", Type: "bytes32"},
	},
	"Transaction": {
		{Name: "txType", Type: "uint256"},
		{Name: "input0", Type: "Input"},
		{Name: "input1", Type: "Input"},
		{Name: "input2", Type: "Input"},
		{Name: "input3", Type: "Input"},
		{Name: "output0", Type: "Output"},
		{Name: "output1", Type: "Output"},
		{Name: "output2", Type: "Output"},
		{Name: "output3", Type: "Output"},
		{Name: "txData", Type: "uint256"},
		{Name: "metadata", Type: "bytes32"},
	},
	"Input": {
		{Name: "blknum", Type: "uint256"},
		{Name: "txindex", Type: "uint256"},
		{Name: "oindex", Type: "uint256"},
	},
	"Output": {
		{Name: "outputType", Type: "uint256"},
		{Name: "outputGuard", Type: "bytes20"},
		{Name: "currency", Type: "address"},
		{Name: "amount", Type: "uint256"},
	},
}

var (
	nullInput = map[string]interface{}{
		"blknum":  "0",
		"txindex": "0",
		"oindex":  "0",
	}
	nullOutput = map[string]interface{}{
		"outputType":  "0",
		"outputGuard": hexutil.Encode(common.Address{}.Bytes()),
		"currency":    common.Address{}.Hex(),
		"amount":      "0",
	}
)

// TypedData returns the EIP-712 document a wallet signs for tx. Unused input
// and output slots are filled with null entries.
func TypedData(tx *plasma.Transaction, verifyingContract common.Address) (apitypes.TypedData, error) {
	if len(tx.Inputs) > plasma.MaxInputs || len(tx.Outputs) > plasma.MaxOutputs {
		return apitypes.TypedData{}, plasma.ErrInvalidTx("too many inputs or outputs")
	}

	message := apitypes.TypedDataMessage{
		"txType":   fmt.Sprintf("%d", tx.TxType),
		"txData":   "0",
		"metadata": hexutil.Encode(tx.Metadata[:]),
	}
	for i := 0; i < plasma.MaxInputs; i++ {
		key := fmt.Sprintf("input%d", i)
		if i >= len(tx.Inputs) {
			message[key] = nullInput
			continue
		}
		in := tx.Inputs[i]
		message[key] = map[string]interface{}{
			"blknum":  fmt.Sprintf("%d", in.BlockNumber),
			"txindex": fmt.Sprintf("%d", in.TxIndex),
			"oindex":  fmt.Sprintf("%d", in.OutputIndex),
		}
	}
	for i := 0; i < plasma.MaxOutputs; i++ {
		key := fmt.Sprintf("output%d", i)
		if i >= len(tx.Outputs) {
			message[key] = nullOutput
			continue
		}
		out := tx.Outputs[i]
		if out.Amount == nil {
			return apitypes.TypedData{}, plasma.ErrInvalidTx("output %d has no amount", i)
		}
		message[key] = map[string]interface{}{
			"outputType":  fmt.Sprintf("%d", out.OutputType),
			"outputGuard": hexutil.Encode(out.Owner.Bytes()),
			"currency":    out.Currency.Hex(),
			"amount":      out.Amount.String(),
		}
	}

	return apitypes.TypedData{
		Types:       typedDataTypes,
		PrimaryType: "Transaction",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			VerifyingContract: verifyingContract.Hex(),
			Salt:              DomainSalt,
		},
		Message: message,
	}, nil
}

// SigningHash is the EIP-712 digest keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(tx)).
func SigningHash(tx *plasma.Transaction, verifyingContract common.Address) (common.Hash, error) {
	typedData, err := TypedData(tx, verifyingContract)
	if err != nil {
		return common.Hash{}, err
	}
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", plasma.ErrInvalidTransaction, err)
	}
	return common.BytesToHash(hash), nil
}
