package resolver

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/pkg/pipeline"
	"github.com/archon-research/keeper/internal/ports/inbound"
)

var _ inbound.Resolver = (*ExpiryResolver)(nil)

// options() output positions and the active state.
const (
	optionState      = 0
	optionExpiration = 5
	stateActive      = 1
)

// unlockParams mirrors the unlockOptions tuple.
type unlockParams struct {
	OptionId        *big.Int
	TargetContract  common.Address
	PriceUpdateData [][]byte
	PriceIds        [][32]byte
}

// ExpiryResolver unlocks expired options at the price of their expiration time.
type ExpiryResolver struct {
	*core
}

// NewExpiryResolver creates the "close" resolver.
func NewExpiryResolver(config Config, deps Dependencies) (*ExpiryResolver, error) {
	c, err := newCore(entity.RoleClose, config, deps)
	if err != nil {
		return nil, err
	}
	return &ExpiryResolver{core: c}, nil
}

func (r *ExpiryResolver) Role() entity.Role {
	return entity.RoleClose
}

// RunCycle unlocks at most one batch of expired options.
func (r *ExpiryResolver) RunCycle(ctx context.Context, cycleID string) (*entity.CycleReport, error) {
	report := r.newReport(cycleID)

	listed, err := r.deps.Indexer.ExpiredOptions(ctx, report.StartedAt, r.config.MaxBatchSize)
	if err != nil {
		return report, classify("listing expired options", err)
	}
	report.Listed = len(listed)

	seen := make(map[string]bool, len(listed))
	for i := range listed {
		id := listed[i].ItemID()
		if seen[id] {
			report.Drop(id, entity.DropDuplicate)
		}
		seen[id] = true
	}
	unique := pipeline.DedupeFirst(listed, func(o entity.ExpiredOption) string { return o.ItemID() })
	for _, o := range unique[min(len(unique), r.config.MaxBatchSize):] {
		report.Drop(o.ItemID(), entity.DropOverCap)
	}
	unique = pipeline.Take(unique, r.config.MaxBatchSize)

	active, err := r.activeOptions(ctx, report, unique)
	if err != nil {
		return report, err
	}
	report.Candidates = len(active)

	cands := pipeline.Map(active, func(o entity.ExpiredOption) candidate {
		return candidate{id: o.ItemID(), entityID: o.OptionID, contract: o.ContractAddress, timestamp: o.ExpirationTime}
	})
	batch, err := r.price(ctx, report, cands)
	if err != nil {
		return report, err
	}

	params := pipeline.Map(batch.Items(), func(item entity.SettlementItem) unlockParams {
		data, ids := priceUpdate(item)
		return unlockParams{
			OptionId:        new(big.Int).SetUint64(item.EntityID),
			TargetContract:  item.Contract,
			PriceUpdateData: data,
			PriceIds:        ids,
		}
	})
	if err := r.submit(ctx, report, batch, "unlockOptions", params); err != nil {
		return report, err
	}

	r.logReport(report)
	return report, nil
}

// activeOptions re-reads each option on its contract and keeps the ones still
// active. The on-chain expiration replaces the indexed one.
func (r *ExpiryResolver) activeOptions(ctx context.Context, report *entity.CycleReport, options []entity.ExpiredOption) ([]entity.ExpiredOption, error) {
	if len(options) == 0 {
		return nil, nil
	}

	calls := make([]multicall.ReadCall, len(options))
	for i, o := range options {
		binding, err := r.deps.Registry.Get(o.ContractAddress, contract.KindOptions)
		if err != nil {
			r.logger.Warn("cannot bind option contract", "contract", o.ContractAddress.Hex(), "error", err)
		}
		calls[i] = multicall.ReadCall{Binding: binding, Method: "options", Args: []any{new(big.Int).SetUint64(o.OptionID)}}
	}
	results, err := r.deps.Reader.Read(ctx, calls)
	if err != nil {
		return nil, classify("reading options", err)
	}

	active := make([]entity.ExpiredOption, 0, len(options))
	for i, res := range results {
		o := options[i]
		expiration, reason := decodeActiveOption(res)
		if reason != "" {
			r.logger.Debug("dropping option", "optionId", o.OptionID, "contract", o.ContractAddress.Hex(), "reason", reason, "error", res.Err)
			report.Drop(o.ItemID(), reason)
			continue
		}
		if expiration > 0 {
			o.ExpirationTime = expiration
		}
		active = append(active, o)
	}
	return active, nil
}

// decodeActiveOption returns the on-chain expiration of an active option, or
// the reason the option is dropped.
func decodeActiveOption(res multicall.ReadResult) (expiration int64, reason entity.DropReason) {
	if !res.OK() || len(res.Values) <= optionExpiration {
		return 0, entity.DropReadFailed
	}
	state, _ := res.Values[optionState].(uint8)
	if state != stateActive {
		return 0, entity.DropAlreadyResolved
	}
	if exp, _ := res.Values[optionExpiration].(*big.Int); exp != nil && exp.IsInt64() {
		return exp.Int64(), ""
	}
	return 0, ""
}
