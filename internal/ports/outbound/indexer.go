package outbound

import (
	"context"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// Indexer lists candidate work from the off-chain index of contract events.
// The index may lag the chain, so every candidate is re-checked on chain.
type Indexer interface {
	// QueuedTradeIDs returns queue ids of trades still queued, ascending.
	QueuedTradeIDs(ctx context.Context, limit int) ([]uint64, error)

	// ExpiredOptions returns active options that expired before now,
	// oldest first.
	ExpiredOptions(ctx context.Context, now time.Time, limit int) ([]entity.ExpiredOption, error)
}
