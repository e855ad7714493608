// Package resolver turns indexer listings into settlement transactions: it
// re-checks on-chain state, attaches signed prices and oracle fees, and
// submits one batch per cycle.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/blockchain/contract"
	"github.com/archon-research/keeper/internal/pkg/blockchain/feeds"
	"github.com/archon-research/keeper/internal/pkg/blockchain/multicall"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

// ContractReader performs typed contract reads in one round trip.
// *multicall.Batcher satisfies it.
type ContractReader interface {
	Read(ctx context.Context, calls []multicall.ReadCall) ([]multicall.ReadResult, error)
}

var _ ContractReader = (*multicall.Batcher)(nil)

// Config holds the settings shared by both resolvers.
type Config struct {
	// Environment namespaces the asset pair cache. Empty means the contract
	// registry's environment.
	Environment string
	Router      common.Address
	// PriceFeed is the contract quoting the oracle update fee.
	PriceFeed    common.Address
	MaxBatchSize int
	Logger       *slog.Logger
	Now          func() time.Time
}

func configDefaults() Config {
	return Config{
		MaxBatchSize: entity.DefaultMaxBatchSize,
		Logger:       slog.Default(),
		Now:          time.Now,
	}
}

// Dependencies are the collaborators of a resolver. Settlements and Metrics
// are optional.
type Dependencies struct {
	Indexer     outbound.Indexer
	Oracle      outbound.PriceOracle
	Reader      ContractReader
	Submitter   outbound.TxSubmitter
	Cache       outbound.KeyValueStore
	Registry    *contract.Registry
	Feeds       *feeds.Table
	Settlements outbound.SettlementRepository
	Metrics     outbound.MetricsRecorder
}

func (d *Dependencies) validate() error {
	switch {
	case d.Indexer == nil:
		return fmt.Errorf("indexer is required")
	case d.Oracle == nil:
		return fmt.Errorf("price oracle is required")
	case d.Reader == nil:
		return fmt.Errorf("contract reader is required")
	case d.Submitter == nil:
		return fmt.Errorf("transaction submitter is required")
	case d.Cache == nil:
		return fmt.Errorf("cache is required")
	case d.Registry == nil:
		return fmt.Errorf("contract registry is required")
	case d.Feeds == nil:
		return fmt.Errorf("feed table is required")
	}
	if d.Metrics == nil {
		d.Metrics = outbound.NopMetrics{}
	}
	return nil
}

// core is the pricing and submission pipeline shared by both resolvers.
type core struct {
	role   entity.Role
	config Config
	deps   Dependencies
	router *contract.Binding
	feed   *contract.Binding
	logger *slog.Logger
}

func newCore(role entity.Role, config Config, deps Dependencies) (*core, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if config.Router == (common.Address{}) {
		return nil, fmt.Errorf("router address is required")
	}
	if config.PriceFeed == (common.Address{}) {
		return nil, fmt.Errorf("price feed address is required")
	}
	switch env := deps.Registry.Environment(); {
	case config.Environment == "":
		config.Environment = env
	case config.Environment != env:
		return nil, fmt.Errorf("environment %q does not match contract registry environment %q", config.Environment, env)
	}

	defaults := configDefaults()
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = defaults.MaxBatchSize
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	router, err := deps.Registry.Get(config.Router, contract.KindRouter)
	if err != nil {
		return nil, fmt.Errorf("binding router: %w", err)
	}
	feed, err := deps.Registry.Get(config.PriceFeed, contract.KindPyth)
	if err != nil {
		return nil, fmt.Errorf("binding price feed: %w", err)
	}

	return &core{
		role:   role,
		config: config,
		deps:   deps,
		router: router,
		feed:   feed,
		logger: config.Logger.With("component", string(role)+"-resolver"),
	}, nil
}

func (c *core) newReport(cycleID string) *entity.CycleReport {
	return &entity.CycleReport{
		Role:      c.role,
		CycleID:   cycleID,
		StartedAt: c.config.Now(),
		Submit:    entity.SubmitResult{Outcome: entity.SubmitSkipped},
	}
}

// submit sends the batch built by pack, records the outcome and the
// optional settlement log entry. An empty batch sends nothing.
func (c *core) submit(ctx context.Context, report *entity.CycleReport, batch *entity.SettlementBatch, method string, params any) error {
	c.deps.Metrics.RecordBatch(ctx, c.role, batch.Len())
	for reason, n := range report.Dropped() {
		c.deps.Metrics.RecordDropped(ctx, c.role, reason, n)
	}
	if batch.IsEmpty() {
		return nil
	}

	data, err := c.router.Pack(method, params)
	if err != nil {
		return fmt.Errorf("packing %s: %w", method, err)
	}

	result, err := c.deps.Submitter.Submit(ctx, outbound.TxRequest{
		To:     c.router.Address,
		Method: method,
		Data:   data,
		Value:  batch.TotalFee(),
	})
	if err != nil {
		return fmt.Errorf("submitting %s with %d items: %w", method, batch.Len(), err)
	}
	report.Submit = result
	c.deps.Metrics.RecordSubmission(ctx, c.role, result.Outcome)

	c.saveSettlement(ctx, report, batch)
	return nil
}

func (c *core) saveSettlement(ctx context.Context, report *entity.CycleReport, batch *entity.SettlementBatch) {
	if c.deps.Settlements == nil {
		return
	}
	record, err := entity.NewSettlementRecord(c.role, report.CycleID, batch, report.Submit, c.config.Now())
	if err != nil {
		c.logger.Warn("invalid settlement record", "cycleId", report.CycleID, "error", err)
		return
	}
	if err := c.deps.Settlements.SaveSettlement(ctx, record); err != nil {
		c.logger.Warn("failed to save settlement", "cycleId", report.CycleID, "txHash", record.TxHash, "error", err)
	}
}

func (c *core) logReport(report *entity.CycleReport) {
	c.logger.Info("cycle finished",
		"cycleId", report.CycleID,
		"listed", report.Listed,
		"candidates", report.Candidates,
		"kept", report.Kept(),
		"dropped", report.Dropped(),
		"outcome", report.Submit.Outcome,
		"txHash", report.Submit.TxHash.Hex(),
	)
}
