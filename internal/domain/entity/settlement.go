package entity

import (
	"fmt"
	"math/big"
	"time"
)

// SettlementRecord is the persisted trace of one submitted batch.
type SettlementRecord struct {
	Role      Role
	CycleID   string
	TxHash    string
	Outcome   SubmitOutcome
	ItemIDs   []string
	TotalFee  *big.Int
	CreatedAt time.Time
}

// NewSettlementRecord builds a record from a submitted batch.
func NewSettlementRecord(role Role, cycleID string, batch *SettlementBatch, result SubmitResult, createdAt time.Time) (*SettlementRecord, error) {
	if batch == nil {
		return nil, fmt.Errorf("batch must not be nil")
	}
	r := &SettlementRecord{
		Role:      role,
		CycleID:   cycleID,
		TxHash:    result.TxHash.Hex(),
		Outcome:   result.Outcome,
		ItemIDs:   batch.IDs(),
		TotalFee:  batch.TotalFee(),
		CreatedAt: createdAt,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SettlementRecord) validate() error {
	if r.Role == "" {
		return fmt.Errorf("role must not be empty")
	}
	if r.CycleID == "" {
		return fmt.Errorf("cycleID must not be empty")
	}
	if r.Outcome == "" {
		return fmt.Errorf("outcome must not be empty")
	}
	if len(r.ItemIDs) == 0 {
		return fmt.Errorf("itemIDs must not be empty")
	}
	return nil
}
