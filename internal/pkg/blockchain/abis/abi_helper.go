// Package abis holds the contract ABIs the keeper reads and writes.
package abis

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ParseABI parses an ABI JSON document.
func ParseABI(abiJSON string) (*abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI: %w", err)
	}
	return &parsed, nil
}

// Method loads an ABI and returns one of its methods by name.
func Method(load func() (*abi.ABI, error), name string) (abi.Method, error) {
	parsed, err := load()
	if err != nil {
		return abi.Method{}, err
	}
	method, ok := parsed.Methods[name]
	if !ok {
		return abi.Method{}, fmt.Errorf("ABI has no method %q", name)
	}
	return method, nil
}
