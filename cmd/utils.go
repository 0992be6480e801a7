package cmd

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/TEENet-io/plasma-go/common"
	"github.com/TEENet-io/plasma-go/plasma"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// ParseCurrency accepts "", "eth" or a token address.
func ParseCurrency(s string) (ethcommon.Address, error) {
	if strings.EqualFold(strings.TrimSpace(s), "eth") {
		return plasma.EthCurrency, nil
	}
	return common.ParseAddress(s)
}

// ParseAmounts parses every entry of a comma separated list or repeated flag.
func ParseAmounts(values []string) ([]*big.Int, error) {
	var amounts []*big.Int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			amount, err := common.ParseAmount(part)
			if err != nil {
				return nil, err
			}
			amounts = append(amounts, amount)
		}
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("no amounts given")
	}
	return amounts, nil
}

// ParseMetadata right-pads a hex string into 32 bytes; empty is null metadata.
func ParseMetadata(s string) ([32]byte, error) {
	var metadata [32]byte
	if s == "" {
		return plasma.NullMetadata, nil
	}
	b, err := hexutil.Decode(common.Prepend0xPrefix(common.Trim0xPrefix(s)))
	if err != nil || len(b) > 32 {
		return metadata, fmt.Errorf("invalid metadata: %q", s)
	}
	copy(metadata[:], b)
	return metadata, nil
}
