// Package supervisor drives one keeper role forever: it runs cycles, records
// checkpoints after each success and classifies failures.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/ports/inbound"
	"github.com/archon-research/keeper/internal/ports/outbound"
	"github.com/archon-research/keeper/internal/services/resolver"
)

const (
	// tracerName is the instrumentation name for this service.
	tracerName = "github.com/archon-research/keeper/internal/services/supervisor"
)

// Cycle statuses reported to metrics.
const (
	statusOK        = "ok"
	statusTransient = "transient"
	statusFailed    = "failed"
)

var _ inbound.HealthChecker = (*Supervisor)(nil)

// Config holds configuration for the Supervisor.
type Config struct {
	// Delay is the pause after every cycle.
	Delay time.Duration

	// ErrorBackoff is the extra pause after a failed cycle.
	ErrorBackoff time.Duration

	// HaltThreshold bounds the age of the last success for IsHealthy.
	HaltThreshold time.Duration

	Logger     *slog.Logger
	Now        func() time.Time
	NewCycleID func() string
}

// ConfigDefaults returns default configuration.
func ConfigDefaults() Config {
	return Config{
		Delay:         time.Second,
		ErrorBackoff:  5 * time.Second,
		HaltThreshold: 120 * time.Second,
		Logger:        slog.Default(),
		Now:           time.Now,
		NewCycleID:    func() string { return uuid.NewString() },
	}
}

// Supervisor runs a resolver in a loop until its context is cancelled.
type Supervisor struct {
	config   Config
	resolver inbound.Resolver
	cache    outbound.KeyValueStore
	metrics  outbound.MetricsRecorder
	logger   *slog.Logger

	startedAt   time.Time
	lastSuccess atomic.Int64
}

// NewSupervisor creates a Supervisor. metrics may be nil.
func NewSupervisor(config Config, r inbound.Resolver, cache outbound.KeyValueStore, metrics outbound.MetricsRecorder) (*Supervisor, error) {
	if r == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}

	defaults := ConfigDefaults()
	if config.Delay == 0 {
		config.Delay = defaults.Delay
	}
	if config.ErrorBackoff == 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.HaltThreshold == 0 {
		config.HaltThreshold = defaults.HaltThreshold
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if config.NewCycleID == nil {
		config.NewCycleID = defaults.NewCycleID
	}

	return &Supervisor{
		config:    config,
		resolver:  r,
		cache:     cache,
		metrics:   metrics,
		logger:    config.Logger.With("component", "supervisor", "role", string(r.Role())),
		startedAt: config.Now(),
	}, nil
}

// Run loops until ctx is cancelled. Cycle failures never stop the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("keeper started", "delay", s.config.Delay, "errorBackoff", s.config.ErrorBackoff)
	defer s.logger.Info("keeper stopped")

	for {
		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logFailure(err)
			if !sleep(ctx, s.config.ErrorBackoff) {
				return nil
			}
		}
		if !sleep(ctx, s.config.Delay) {
			return nil
		}
	}
}

// RunOnce runs a single cycle and saves the checkpoint when it succeeds.
func (s *Supervisor) RunOnce(ctx context.Context) error {
	role := s.resolver.Role()
	cycleID := s.config.NewCycleID()
	start := s.config.Now()

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "keeper.cycle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("keeper.role", string(role)),
			attribute.String("keeper.cycle_id", cycleID),
		),
	)
	defer span.End()

	report, err := s.resolver.RunCycle(ctx, cycleID)
	duration := s.config.Now().Sub(start)
	if err != nil {
		status := statusFailed
		if resolver.IsTransient(err) {
			status = statusTransient
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		s.metrics.RecordCycle(ctx, role, status, duration)
		return fmt.Errorf("cycle %s: %w", cycleID, err)
	}

	if report != nil {
		span.SetAttributes(
			attribute.Int("keeper.listed", report.Listed),
			attribute.Int("keeper.kept", report.Kept()),
			attribute.String("keeper.outcome", string(report.Submit.Outcome)),
		)
	}
	s.metrics.RecordCycle(ctx, role, statusOK, duration)

	now := s.config.Now()
	s.lastSuccess.Store(now.UnixNano())
	if err := s.saveCheckpoint(ctx, role, now); err != nil {
		s.logger.Warn("failed to save checkpoint", "cycleId", cycleID, "error", err)
	}
	return nil
}

func (s *Supervisor) saveCheckpoint(ctx context.Context, role entity.Role, now time.Time) error {
	value := strconv.FormatInt(now.Unix(), 10)
	if err := s.cache.Set(ctx, role.CheckpointKey(), value, 0); err != nil {
		return err
	}
	s.logger.Debug("checkpoint saved", "checkpoint", value)
	return nil
}

func (s *Supervisor) logFailure(err error) {
	if resolver.IsTransient(err) {
		s.logger.Warn("handled transient error", "error", err)
		return
	}
	s.logger.Error("cycle failed", "error", err)
}

// IsReady reports whether a cycle has succeeded since start.
func (s *Supervisor) IsReady() bool {
	return s.lastSuccess.Load() != 0
}

// IsHealthy reports whether the last success, or the start while no cycle
// has succeeded yet, is within HaltThreshold.
func (s *Supervisor) IsHealthy() bool {
	since := s.startedAt
	if last := s.lastSuccess.Load(); last != 0 {
		since = time.Unix(0, last)
	}
	return s.config.Now().Sub(since) <= s.config.HaltThreshold
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
