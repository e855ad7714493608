// Package multicall batches contract reads into a single round trip, either
// through a Multicall3 deployment or through a JSON-RPC batch of eth_calls.
package multicall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/pkg/blockchain/abis"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

const aggregate3 = "aggregate3"

var _ outbound.Multicaller = (*Client)(nil)

// Client reads through Multicall3.aggregate3 so that every call in a batch
// sees the same block.
type Client struct {
	caller  ethereum.ContractCaller
	address common.Address
	method  abi.Method
}

// NewClient creates a Multicall3 client. caller is usually an *ethclient.Client.
func NewClient(caller ethereum.ContractCaller, address common.Address) (*Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("multicall3 address is required")
	}
	method, err := abis.Method(abis.GetMulticall3ABI, aggregate3)
	if err != nil {
		return nil, fmt.Errorf("loading multicall3 ABI: %w", err)
	}
	return &Client{caller: caller, address: address, method: method}, nil
}

func (c *Client) Address() common.Address {
	return c.address
}

// Execute sends calls as one aggregate3 eth_call. Results come back in call
// order; a result count that differs from the call count is an error.
func (c *Client) Execute(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error) {
	if len(calls) == 0 {
		return []outbound.Result{}, nil
	}

	args, err := c.method.Inputs.Pack(calls)
	if err != nil {
		return nil, fmt.Errorf("encoding %d calls: %w", len(calls), err)
	}
	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &c.address,
		Data: append(append([]byte{}, c.method.ID...), args...),
	}, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("aggregate3 on %s at %s (%d calls): %w",
			c.address.Hex(), blockLabel(blockNumber), len(calls), err)
	}

	results, err := c.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding aggregate3 response at %s: %w", blockLabel(blockNumber), err)
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(results), len(calls))
	}
	return results, nil
}

func (c *Client) decode(raw []byte) (results []outbound.Result, err error) {
	values, err := c.method.Outputs.Unpack(raw)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(values))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected result shape %T", values[0])
		}
	}()
	return *abi.ConvertType(values[0], new([]outbound.Result)).(*[]outbound.Result), nil
}

func blockLabel(blockNumber *big.Int) string {
	if blockNumber == nil {
		return "latest"
	}
	return "block " + blockNumber.String()
}
