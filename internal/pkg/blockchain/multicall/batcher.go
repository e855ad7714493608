package multicall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var (
	// ErrCalldataTooLarge is returned when a read batch exceeds the configured size.
	ErrCalldataTooLarge = errors.New("multicall calldata exceeds limit")

	// ErrCallReverted marks a sub-call that failed on chain.
	ErrCallReverted = errors.New("call reverted")
)

// DefaultMaxCalldataBytes keeps aggregate3 requests under common node limits.
const DefaultMaxCalldataBytes = 120 * 1024

// aggregate3 encodes each call as a tuple: offset, address, bool, bytes offset,
// length and padded calldata.
const perCallOverhead = 6 * 32

// ReadCall is one typed contract read.
type ReadCall struct {
	Binding *contract.Binding
	Method  string
	Args    []any
}

// ReadResult holds the decoded values of one read. When Err is set, Raw
// carries whatever bytes the call returned.
type ReadResult struct {
	Values []any
	Raw    []byte
	Err    error
}

// OK reports whether the read decoded successfully.
func (r ReadResult) OK() bool {
	return r.Err == nil
}

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	MaxCalldataBytes int
	Logger           *slog.Logger
}

// Batcher turns typed reads into one multicall and decodes the results in
// input order. A failing sub-call never affects the others.
type Batcher struct {
	mc          outbound.Multicaller
	maxCalldata int
	logger      *slog.Logger
}

// NewBatcher creates a Batcher over any Multicaller implementation.
func NewBatcher(mc outbound.Multicaller, cfg BatcherConfig) (*Batcher, error) {
	if mc == nil {
		return nil, fmt.Errorf("multicaller cannot be nil")
	}
	if cfg.MaxCalldataBytes <= 0 {
		cfg.MaxCalldataBytes = DefaultMaxCalldataBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Batcher{
		mc:          mc,
		maxCalldata: cfg.MaxCalldataBytes,
		logger:      cfg.Logger.With("component", "multicall-batcher"),
	}, nil
}

// Read executes calls in a single round trip. The returned slice always has
// len(calls) entries. Transport failures and oversized batches fail the
// whole read; everything else is reported per result.
func (b *Batcher) Read(ctx context.Context, calls []ReadCall) ([]ReadResult, error) {
	results := make([]ReadResult, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	packed := make([]outbound.Call, 0, len(calls))
	positions := make([]int, 0, len(calls))
	size := 0

	for i, call := range calls {
		if call.Binding == nil {
			results[i].Err = fmt.Errorf("read %d (%s): no contract binding", i, call.Method)
			continue
		}
		data, err := call.Binding.Pack(call.Method, call.Args...)
		if err != nil {
			results[i].Err = err
			continue
		}
		size += len(data) + perCallOverhead
		packed = append(packed, outbound.Call{
			Target:       call.Binding.Address,
			AllowFailure: true,
			CallData:     data,
		})
		positions = append(positions, i)
	}

	if size > b.maxCalldata {
		return nil, fmt.Errorf("%w: %d bytes for %d calls (max %d)", ErrCalldataTooLarge, size, len(packed), b.maxCalldata)
	}
	if len(packed) == 0 {
		return results, nil
	}

	raw, err := b.mc.Execute(ctx, packed, nil)
	if err != nil {
		return nil, fmt.Errorf("executing multicall: %w", err)
	}
	if len(raw) != len(packed) {
		return nil, fmt.Errorf("multicall returned %d results for %d calls", len(raw), len(packed))
	}

	for j, r := range raw {
		i := positions[j]
		call := calls[i]
		results[i].Raw = r.ReturnData

		if !r.Success {
			results[i].Err = fmt.Errorf("%s.%s on %s: %w", call.Binding.Kind, call.Method, call.Binding.Address.Hex(), ErrCallReverted)
			b.logger.Warn("multicall sub-call failed",
				"target", call.Binding.Address.Hex(),
				"method", call.Method)
			continue
		}

		values, err := call.Binding.Unpack(call.Method, r.ReturnData)
		if err != nil {
			results[i].Err = err
			b.logger.Warn("multicall result could not be decoded",
				"target", call.Binding.Address.Hex(),
				"method", call.Method,
				"bytes", len(r.ReturnData),
				"error", err)
			continue
		}
		results[i].Values = values
	}

	return results, nil
}
