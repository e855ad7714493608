package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.SettlementRepository = (*SettlementRepository)(nil)

// SettlementRepository writes settlement records to the settlements table.
type SettlementRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewSettlementRepository creates a repository on pool.
func NewSettlementRepository(pool *pgxpool.Pool, logger *slog.Logger) (*SettlementRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementRepository{
		pool:   pool,
		logger: logger.With("component", "settlement-repository"),
	}, nil
}

// SaveSettlement inserts record. Saving the same role, cycle and tx twice is a no-op.
func (r *SettlementRepository) SaveSettlement(ctx context.Context, record *entity.SettlementRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	fee := "0"
	if record.TotalFee != nil {
		fee = record.TotalFee.String()
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO settlements (role, cycle_id, tx_hash, outcome, item_ids, item_count, total_fee, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		ON CONFLICT (role, cycle_id, tx_hash) DO NOTHING`,
		string(record.Role),
		record.CycleID,
		record.TxHash,
		string(record.Outcome),
		record.ItemIDs,
		len(record.ItemIDs),
		fee,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	r.logger.Debug("settlement saved", "role", record.Role, "cycleID", record.CycleID, "inserted", tag.RowsAffected())
	return nil
}

// RecentSettlements returns up to limit records for role, newest first.
func (r *SettlementRepository) RecentSettlements(ctx context.Context, role entity.Role, limit int) ([]*entity.SettlementRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cycle_id, tx_hash, outcome, item_ids, total_fee::text, created_at
		FROM settlements
		WHERE role = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		string(role), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var records []*entity.SettlementRecord
	for rows.Next() {
		var (
			cycleID, txHash, outcome, fee string
			itemIDs                       []string
			createdAt                     time.Time
		)
		if err := rows.Scan(&cycleID, &txHash, &outcome, &itemIDs, &fee, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		total, ok := new(big.Int).SetString(fee, 10)
		if !ok {
			return nil, fmt.Errorf("invalid total_fee %q", fee)
		}
		records = append(records, &entity.SettlementRecord{
			Role:      role,
			CycleID:   cycleID,
			TxHash:    txHash,
			Outcome:   entity.SubmitOutcome(outcome),
			ItemIDs:   itemIDs,
			TotalFee:  total,
			CreatedAt: createdAt,
		})
	}
	return records, rows.Err()
}
