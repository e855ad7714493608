package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var (
	_ outbound.Indexer              = (*MockIndexer)(nil)
	_ outbound.PriceOracle          = (*MockPriceOracle)(nil)
	_ outbound.TxSubmitter          = (*MockTxSubmitter)(nil)
	_ outbound.Alerter              = (*MockAlerter)(nil)
	_ outbound.RecoveryTrigger      = (*MockRecoveryTrigger)(nil)
	_ outbound.SettlementRepository = (*MockSettlementRepository)(nil)
)

// MockIndexer implements outbound.Indexer for testing.
type MockIndexer struct {
	QueuedTradeIDsFn func(ctx context.Context, limit int) ([]uint64, error)
	ExpiredOptionsFn func(ctx context.Context, now time.Time, limit int) ([]entity.ExpiredOption, error)
}

func (m *MockIndexer) QueuedTradeIDs(ctx context.Context, limit int) ([]uint64, error) {
	if m.QueuedTradeIDsFn != nil {
		return m.QueuedTradeIDsFn(ctx, limit)
	}
	return nil, nil
}

func (m *MockIndexer) ExpiredOptions(ctx context.Context, now time.Time, limit int) ([]entity.ExpiredOption, error) {
	if m.ExpiredOptionsFn != nil {
		return m.ExpiredOptionsFn(ctx, now, limit)
	}
	return nil, nil
}

// MockPriceOracle implements outbound.PriceOracle for testing.
type MockPriceOracle struct {
	mu            sync.Mutex
	FetchPricesFn func(ctx context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error)
	Requested     [][]entity.AssetTimeKey
}

func (m *MockPriceOracle) FetchPrices(ctx context.Context, keys []entity.AssetTimeKey) (map[entity.AssetTimeKey]entity.PriceQuote, error) {
	m.mu.Lock()
	m.Requested = append(m.Requested, keys)
	m.mu.Unlock()
	if m.FetchPricesFn != nil {
		return m.FetchPricesFn(ctx, keys)
	}
	return nil, errors.New("FetchPrices not mocked")
}

// MockTxSubmitter implements outbound.TxSubmitter for testing.
type MockTxSubmitter struct {
	mu       sync.Mutex
	SubmitFn func(ctx context.Context, req outbound.TxRequest) (entity.SubmitResult, error)
	Requests []outbound.TxRequest
}

func (m *MockTxSubmitter) Submit(ctx context.Context, req outbound.TxRequest) (entity.SubmitResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}
	return entity.SubmitResult{Outcome: entity.SubmitConfirmed}, nil
}

// Submitted returns the number of Submit calls.
func (m *MockTxSubmitter) Submitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Alert is one message sent through MockAlerter.
type Alert struct {
	Subject string
	Message string
}

// MockAlerter implements outbound.Alerter for testing.
type MockAlerter struct {
	mu      sync.Mutex
	AlertFn func(ctx context.Context, subject, message string) error
	Alerts  []Alert
}

func (m *MockAlerter) Alert(ctx context.Context, subject, message string) error {
	m.mu.Lock()
	m.Alerts = append(m.Alerts, Alert{Subject: subject, Message: message})
	m.mu.Unlock()
	if m.AlertFn != nil {
		return m.AlertFn(ctx, subject, message)
	}
	return nil
}

// Sent returns a copy of the recorded alerts.
func (m *MockAlerter) Sent() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.Alerts...)
}

// MockRecoveryTrigger implements outbound.RecoveryTrigger for testing.
type MockRecoveryTrigger struct {
	mu                sync.Mutex
	TriggerRecoveryFn func(ctx context.Context, role entity.Role, reason string) error
	Roles             []entity.Role
}

func (m *MockRecoveryTrigger) TriggerRecovery(ctx context.Context, role entity.Role, reason string) error {
	m.mu.Lock()
	m.Roles = append(m.Roles, role)
	m.mu.Unlock()
	if m.TriggerRecoveryFn != nil {
		return m.TriggerRecoveryFn(ctx, role, reason)
	}
	return nil
}

// MockSettlementRepository implements outbound.SettlementRepository for testing.
type MockSettlementRepository struct {
	mu               sync.Mutex
	SaveSettlementFn func(ctx context.Context, record *entity.SettlementRecord) error
	Records          []*entity.SettlementRecord
}

func (m *MockSettlementRepository) SaveSettlement(ctx context.Context, record *entity.SettlementRecord) error {
	m.mu.Lock()
	m.Records = append(m.Records, record)
	m.mu.Unlock()
	if m.SaveSettlementFn != nil {
		return m.SaveSettlementFn(ctx, record)
	}
	return nil
}
