package outbound

import (
	"context"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// SettlementRepository keeps a log of submitted settlement batches.
type SettlementRepository interface {
	SaveSettlement(ctx context.Context, record *entity.SettlementRecord) error
}
