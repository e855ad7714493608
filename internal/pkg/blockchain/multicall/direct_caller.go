package multicall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/archon-research/keeper/internal/ports/outbound"
)

// DefaultRPCBatchLimit is the largest JSON-RPC batch most providers accept.
const DefaultRPCBatchLimit = 100

var _ outbound.Multicaller = (*DirectCaller)(nil)

// BatchCaller is the subset of *rpc.Client used by DirectCaller.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// DirectCaller implements outbound.Multicaller with JSON-RPC batches of plain
// eth_call requests, for chains where no Multicall3 is deployed.
type DirectCaller struct {
	rpc   BatchCaller
	limit int
}

// DirectOption configures a DirectCaller.
type DirectOption func(*DirectCaller)

// WithRPCBatchLimit caps the number of eth_calls per JSON-RPC request.
func WithRPCBatchLimit(n int) DirectOption {
	return func(c *DirectCaller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// NewDirectCaller creates a DirectCaller. rpcClient is usually an *rpc.Client.
func NewDirectCaller(rpcClient BatchCaller, opts ...DirectOption) *DirectCaller {
	c := &DirectCaller{rpc: rpcClient, limit: DefaultRPCBatchLimit}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// Execute splits calls into requests of at most the batch limit. A failed
// call is an error unless it allows failure.
func (c *DirectCaller) Execute(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error) {
	results := make([]outbound.Result, 0, len(calls))
	block := blockTag(blockNumber)

	for start := 0; start < len(calls); start += c.limit {
		end := min(start+c.limit, len(calls))
		chunk, err := c.executeChunk(ctx, calls[start:end], block)
		if err != nil {
			return nil, err
		}
		results = append(results, chunk...)
	}
	return results, nil
}

func (c *DirectCaller) executeChunk(ctx context.Context, calls []outbound.Call, block string) ([]outbound.Result, error) {
	returned := make([]hexutil.Bytes, len(calls))
	elems := make([]rpc.BatchElem, len(calls))
	for i, call := range calls {
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []any{callArgs{To: call.Target, Data: call.CallData}, block},
			Result: &returned[i],
		}
	}

	if err := c.rpc.BatchCallContext(ctx, elems); err != nil {
		return nil, fmt.Errorf("eth_call batch of %d at %s: %w", len(calls), block, err)
	}

	results := make([]outbound.Result, len(calls))
	for i, elem := range elems {
		if elem.Error == nil {
			results[i] = outbound.Result{Success: true, ReturnData: returned[i]}
			continue
		}
		if !calls[i].AllowFailure {
			return nil, fmt.Errorf("eth_call to %s at %s: %w", calls[i].Target.Hex(), block, elem.Error)
		}
	}
	return results, nil
}

// Address returns the zero address; no contract is involved.
func (c *DirectCaller) Address() common.Address {
	return common.Address{}
}

func blockTag(number *big.Int) string {
	if number == nil || number.Sign() < 0 {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}
