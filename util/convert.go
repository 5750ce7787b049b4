// Package util converts command line arguments into chain values and back.
package util

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const etherDecimals = 18

var addressPattern = regexp.MustCompile("0x[0-9a-fA-F]{40}([^0-9a-fA-F]|$)")

func ScanForAddresses(para string) []string {
	result := addressPattern.FindAllString(para, -1)
	if result == nil {
		return []string{}
	}
	for i := 0; i < len(result); i++ {
		result[i] = result[i][0:42]
	}
	return result
}

// ConvertToAddress accepts exactly one 0x prefixed address, optionally
// surrounded by other text such as an explorer URL.
func ConvertToAddress(str string) (common.Address, error) {
	str = strings.TrimSpace(str)
	if !strings.HasPrefix(str, "0x") && !strings.Contains(str, "/0x") {
		return common.Address{}, fmt.Errorf("%q is not an address, it must begin with 0x", str)
	}
	addresses := ScanForAddresses(str)
	if len(addresses) == 0 {
		return common.Address{}, fmt.Errorf("invalid address %q", str)
	}
	if len(addresses) > 1 {
		return common.Address{}, fmt.Errorf("too many addresses provided in %q", str)
	}
	return common.HexToAddress(addresses[0]), nil
}

// ConvertToCoinType parses a decimal or 0x prefixed coin type. Empty means 0,
// the network's own coin type.
func ConvertToCoinType(str string) (uint64, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, nil
	}
	base := 10
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		str, base = str[2:], 16
	}
	ct, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coin type %q: %w", str, err)
	}
	return ct, nil
}

func BigToFloatString(value *big.Int, decimal uint64) string {
	if value == nil {
		return "0"
	}
	f := new(big.Float).SetInt(value)
	power := new(big.Float).SetInt(new(big.Int).Exp(
		big.NewInt(10), big.NewInt(int64(decimal)), nil,
	))
	res := new(big.Float).Quo(f, power)
	s := strings.TrimRight(res.Text('f', int(decimal)), "0")
	return strings.TrimSuffix(s, ".")
}

// EtherString renders wei as "<amount> ETH".
func EtherString(wei *big.Int) string {
	return BigToFloatString(wei, etherDecimals) + " ETH"
}
