package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/ports/outbound"
)

type callKey struct {
	target   common.Address
	selector [4]byte
}

// MockMulticaller implements outbound.Multicaller for testing. ExecuteFn,
// when set, answers every batch. Otherwise calls are answered from canned
// responses keyed by target and selector; an unknown call fails.
type MockMulticaller struct {
	ExecuteFn func(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error)
	Addr      common.Address

	mu        sync.Mutex
	responses map[callKey][]byte
	batches   [][]outbound.Call
}

func NewMockMulticaller() *MockMulticaller {
	return &MockMulticaller{
		Addr:      common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		responses: make(map[callKey][]byte),
	}
}

// Respond registers the return data for calls to target with selector.
func (m *MockMulticaller) Respond(target common.Address, selector []byte, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[keyFor(target, selector)] = data
}

func (m *MockMulticaller) Execute(ctx context.Context, calls []outbound.Call, blockNumber *big.Int) ([]outbound.Result, error) {
	m.mu.Lock()
	m.batches = append(m.batches, calls)
	m.mu.Unlock()
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, calls, blockNumber)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]outbound.Result, len(calls))
	for i, call := range calls {
		data, ok := m.responses[keyFor(call.Target, call.CallData)]
		if !ok && !call.AllowFailure {
			return nil, fmt.Errorf("no response for call %d to %s", i, call.Target.Hex())
		}
		results[i] = outbound.Result{Success: ok, ReturnData: data}
	}
	return results, nil
}

func (m *MockMulticaller) Address() common.Address {
	return m.Addr
}

// Calls returns the number of Execute invocations.
func (m *MockMulticaller) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// Batch returns the calls of the i-th Execute invocation.
func (m *MockMulticaller) Batch(i int) []outbound.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches[i]
}

func keyFor(target common.Address, calldata []byte) callKey {
	k := callKey{target: target}
	copy(k.selector[:], calldata)
	return k
}
