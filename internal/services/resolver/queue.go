package resolver

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/pkg/pipeline"
	"github.com/archon-research/keeper/internal/ports/inbound"
)

var _ inbound.Resolver = (*QueueResolver)(nil)

// queuedTrades output positions.
const (
	queuedIsAbove        = 5
	queuedTargetContract = 6
	queuedTime           = 9
	queuedIsQueued       = 10
)

// resolveParams mirrors the resolveQueuedTrades tuple.
type resolveParams struct {
	QueueId         *big.Int
	PriceUpdateData [][]byte
	PriceIds        [][32]byte
}

// QueueResolver opens queued trades at the price of their queue time.
type QueueResolver struct {
	*core
}

// NewQueueResolver creates the "open" resolver.
func NewQueueResolver(config Config, deps Dependencies) (*QueueResolver, error) {
	c, err := newCore(entity.RoleOpen, config, deps)
	if err != nil {
		return nil, err
	}
	return &QueueResolver{core: c}, nil
}

func (r *QueueResolver) Role() entity.Role {
	return entity.RoleOpen
}

// RunCycle resolves at most one batch of queued trades.
func (r *QueueResolver) RunCycle(ctx context.Context, cycleID string) (*entity.CycleReport, error) {
	report := r.newReport(cycleID)

	ids, err := r.deps.Indexer.QueuedTradeIDs(ctx, r.config.MaxBatchSize)
	if err != nil {
		return report, classify("listing queued trades", err)
	}
	report.Listed = len(ids)

	ids = pipeline.SortBy(ids, func(id uint64) uint64 { return id })
	unique := pipeline.DedupeFirst(ids, func(id uint64) uint64 { return id })
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			report.Drop(queueItemID(id), entity.DropDuplicate)
		}
		seen[id] = true
	}
	for _, id := range unique[min(len(unique), r.config.MaxBatchSize):] {
		report.Drop(queueItemID(id), entity.DropOverCap)
	}
	unique = pipeline.Take(unique, r.config.MaxBatchSize)

	trades, err := r.pendingTrades(ctx, report, unique)
	if err != nil {
		return report, err
	}
	report.Candidates = len(trades)

	cands := pipeline.Map(trades, func(t entity.PendingTrade) candidate {
		return candidate{id: t.ItemID(), entityID: t.QueueID, contract: t.ContractAddress, timestamp: t.QueueTimestamp}
	})
	batch, err := r.price(ctx, report, cands)
	if err != nil {
		return report, err
	}

	params := pipeline.Map(batch.Items(), func(item entity.SettlementItem) resolveParams {
		data, ids := priceUpdate(item)
		return resolveParams{
			QueueId:         new(big.Int).SetUint64(item.EntityID),
			PriceUpdateData: data,
			PriceIds:        ids,
		}
	})
	if err := r.submit(ctx, report, batch, "resolveQueuedTrades", params); err != nil {
		return report, err
	}

	r.logReport(report)
	return report, nil
}

// pendingTrades re-reads the queue records and keeps those still queued.
func (r *QueueResolver) pendingTrades(ctx context.Context, report *entity.CycleReport, ids []uint64) ([]entity.PendingTrade, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	calls := pipeline.Map(ids, func(id uint64) multicall.ReadCall {
		return multicall.ReadCall{Binding: r.router, Method: "queuedTrades", Args: []any{new(big.Int).SetUint64(id)}}
	})
	results, err := r.deps.Reader.Read(ctx, calls)
	if err != nil {
		return nil, classify("reading queued trades", err)
	}

	trades := make([]entity.PendingTrade, 0, len(ids))
	for i, res := range results {
		id := ids[i]
		trade, reason := decodeQueuedTrade(id, res)
		if trade == nil {
			r.logger.Debug("dropping queued trade", "queueId", id, "reason", reason, "error", res.Err)
			report.Drop(queueItemID(id), reason)
			continue
		}
		trades = append(trades, *trade)
	}
	return trades, nil
}

// decodeQueuedTrade returns the trade if it is still queued, or the reason it
// is not. A failed or malformed read is not evidence that the trade resolved.
func decodeQueuedTrade(id uint64, res multicall.ReadResult) (*entity.PendingTrade, entity.DropReason) {
	if !res.OK() || len(res.Values) <= queuedIsQueued {
		return nil, entity.DropReadFailed
	}
	isQueued, _ := res.Values[queuedIsQueued].(bool)
	if !isQueued {
		return nil, entity.DropAlreadyResolved
	}
	isAbove, _ := res.Values[queuedIsAbove].(bool)
	target, _ := res.Values[queuedTargetContract].(common.Address)
	queuedAt, _ := res.Values[queuedTime].(*big.Int)
	if queuedAt == nil || !queuedAt.IsInt64() {
		return nil, entity.DropReadFailed
	}
	trade, err := entity.NewPendingTrade(id, target, isAbove, queuedAt.Int64())
	if err != nil {
		return nil, entity.DropReadFailed
	}
	return trade, ""
}

func queueItemID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
