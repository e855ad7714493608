package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/ports/inbound"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ inbound.Resolver = (*Monitor)(nil)

// MonitorConfig holds configuration for the Monitor.
type MonitorConfig struct {
	// Environment names the deployment in alert messages.
	Environment string

	// Roles are the keepers whose checkpoints are watched.
	Roles []entity.Role

	// HaltThreshold is the checkpoint age at which a role counts as halted.
	HaltThreshold time.Duration

	// AlertInterval is the minimum gap between two halt alerts for a role.
	AlertInterval time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// MonitorConfigDefaults returns default configuration.
func MonitorConfigDefaults() MonitorConfig {
	return MonitorConfig{
		Roles:         []entity.Role{entity.RoleOpen, entity.RoleClose},
		HaltThreshold: 120 * time.Second,
		AlertInterval: time.Hour,
		Logger:        slog.Default(),
		Now:           time.Now,
	}
}

// Monitor watches role checkpoints, alerts when one goes stale and asks for
// a redeploy. It runs under a Supervisor like any resolver.
type Monitor struct {
	config   MonitorConfig
	cache    outbound.KeyValueStore
	alerter  outbound.Alerter
	recovery outbound.RecoveryTrigger
	metrics  outbound.MetricsRecorder
	logger   *slog.Logger
}

// NewMonitor creates a Monitor. recovery and metrics may be nil.
func NewMonitor(
	config MonitorConfig,
	cache outbound.KeyValueStore,
	alerter outbound.Alerter,
	recovery outbound.RecoveryTrigger,
	metrics outbound.MetricsRecorder,
) (*Monitor, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if alerter == nil {
		return nil, fmt.Errorf("alerter is required")
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}

	defaults := MonitorConfigDefaults()
	if len(config.Roles) == 0 {
		config.Roles = defaults.Roles
	}
	if config.HaltThreshold == 0 {
		config.HaltThreshold = defaults.HaltThreshold
	}
	if config.AlertInterval == 0 {
		config.AlertInterval = defaults.AlertInterval
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}

	return &Monitor{
		config:   config,
		cache:    cache,
		alerter:  alerter,
		recovery: recovery,
		metrics:  metrics,
		logger:   config.Logger.With("component", "monitor"),
	}, nil
}

func (m *Monitor) Role() entity.Role {
	return entity.RoleMonitor
}

// RunCycle checks every watched role once. A failing role does not stop the
// others; their errors are joined.
func (m *Monitor) RunCycle(ctx context.Context, cycleID string) (*entity.CycleReport, error) {
	now := m.config.Now()
	report := &entity.CycleReport{
		Role:      entity.RoleMonitor,
		CycleID:   cycleID,
		StartedAt: now,
		Submit:    entity.SubmitResult{Outcome: entity.SubmitSkipped},
	}

	var errs []error
	for _, role := range m.config.Roles {
		if err := m.check(ctx, role, now); err != nil {
			errs = append(errs, fmt.Errorf("checking %s: %w", role, err))
		}
	}
	return report, errors.Join(errs...)
}

func (m *Monitor) check(ctx context.Context, role entity.Role, now time.Time) error {
	raw, ok, err := m.cache.Get(ctx, role.CheckpointKey())
	if err != nil {
		return fmt.Errorf("reading checkpoint: %w", err)
	}
	if !ok {
		m.logger.Debug("no checkpoint yet", "role", role)
		return nil
	}
	last, err := parseUnix(raw)
	if err != nil {
		return fmt.Errorf("parsing checkpoint %q: %w", raw, err)
	}

	lag := now.Sub(last)
	m.metrics.RecordCheckpointLag(ctx, role, lag)
	m.logger.Info("keeper lag", "role", role, "lagMinutes", minutes(lag))

	if lag > m.config.HaltThreshold {
		return m.halted(ctx, role, lag, now)
	}
	return m.recovered(ctx, role)
}

func (m *Monitor) halted(ctx context.Context, role entity.Role, lag time.Duration, now time.Time) error {
	raw, alerted, err := m.cache.Get(ctx, role.HaltedKey())
	if err != nil {
		return fmt.Errorf("reading halt marker: %w", err)
	}
	if alerted {
		if at, err := parseUnix(raw); err == nil && now.Sub(at) <= m.config.AlertInterval {
			m.logger.Info("keeper already halted, not alerting", "role", role, "environment", m.config.Environment)
			return nil
		}
	}

	message := fmt.Sprintf("Keeper Halted:\nChain: %s\nName: %s\nSince: %.1f minutes\n\nTrying to Autorecover...",
		m.config.Environment, role, minutes(lag))
	if err := m.alerter.Alert(ctx, "Keeper Halted", message); err != nil {
		return fmt.Errorf("sending halt alert: %w", err)
	}
	if err := m.cache.Set(ctx, role.HaltedKey(), strconv.FormatInt(now.Unix(), 10), m.config.AlertInterval); err != nil {
		m.logger.Warn("failed to record halt marker", "role", role, "error", err)
	}
	m.logger.Warn("keeper halted, alert sent", "role", role, "environment", m.config.Environment, "lagMinutes", minutes(lag))

	if m.recovery == nil {
		return nil
	}
	reason := fmt.Sprintf("%s keeper on %s halted for %.1f minutes", role, m.config.Environment, minutes(lag))
	if err := m.recovery.TriggerRecovery(ctx, role, reason); err != nil {
		return fmt.Errorf("triggering recovery: %w", err)
	}
	return nil
}

func (m *Monitor) recovered(ctx context.Context, role entity.Role) error {
	_, alerted, err := m.cache.Get(ctx, role.HaltedKey())
	if err != nil {
		return fmt.Errorf("reading halt marker: %w", err)
	}
	if !alerted {
		return nil
	}

	message := fmt.Sprintf("Keeper Recovered:\nChain: %s\nName: %s\n", m.config.Environment, role)
	if err := m.alerter.Alert(ctx, "Keeper Recovered", message); err != nil {
		return fmt.Errorf("sending recovery notice: %w", err)
	}
	m.logger.Info("keeper recovered", "role", role, "environment", m.config.Environment)
	return m.cache.Delete(ctx, role.HaltedKey())
}

// parseUnix accepts integer or fractional unix seconds.
func parseUnix(raw string) (time.Time, error) {
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}

func minutes(d time.Duration) float64 {
	return math.Round(d.Minutes()*100) / 100
}
