package common

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// EncodePacked mimics solidity's abi.encodePacked for the value kinds the
// plasma contracts hash: uint256, address, bytes32 and raw bytes.
func EncodePacked(values ...interface{}) []byte {
	var res [][]byte
	for _, value := range values {
		switch v := value.(type) {
		case []byte:
			res = append(res, v)
		case [32]byte:
			res = append(res, v[:])
		case common.Hash:
			res = append(res, v[:])
		case *big.Int:
			res = append(res, math.U256Bytes(new(big.Int).Set(v)))
		case int64:
			res = append(res, math.U256Bytes(big.NewInt(v)))
		case common.Address:
			res = append(res, v.Bytes())
		}
	}
	return bytes.Join(res, nil)
}
