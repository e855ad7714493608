// Package telemetry wires OpenTelemetry metrics and tracing for the keeper.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/ports/outbound"
)

var _ outbound.MetricsRecorder = (*Metrics)(nil)

const meterName = "github.com/archon-research/keeper"

// Metrics implements outbound.MetricsRecorder using OpenTelemetry.
type Metrics struct {
	cycleDuration metric.Float64Histogram
	batchSize     metric.Int64Histogram
	dropped       metric.Int64Counter
	submissions   metric.Int64Counter
	checkpointLag metric.Float64Gauge
}

// NewMetrics creates a recorder on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

// NewMetricsWithProvider creates a recorder on provider.
func NewMetricsWithProvider(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	cycleDuration, err := meter.Float64Histogram(
		"keeper_cycle_duration",
		metric.WithDescription("Duration of one keeper cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper_cycle_duration histogram: %w", err)
	}

	batchSize, err := meter.Int64Histogram(
		"keeper_batch_size",
		metric.WithDescription("Items in a submitted settlement batch"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper_batch_size histogram: %w", err)
	}

	dropped, err := meter.Int64Counter(
		"keeper_items_dropped",
		metric.WithDescription("Candidates dropped before submission"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper_items_dropped counter: %w", err)
	}

	submissions, err := meter.Int64Counter(
		"keeper_submissions",
		metric.WithDescription("Settlement transaction attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper_submissions counter: %w", err)
	}

	checkpointLag, err := meter.Float64Gauge(
		"keeper_checkpoint_lag",
		metric.WithDescription("Seconds since the role last completed a cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper_checkpoint_lag gauge: %w", err)
	}

	return &Metrics{
		cycleDuration: cycleDuration,
		batchSize:     batchSize,
		dropped:       dropped,
		submissions:   submissions,
		checkpointLag: checkpointLag,
	}, nil
}

func roleAttr(role entity.Role) attribute.KeyValue {
	return attribute.String("role", string(role))
}

func (m *Metrics) RecordCycle(ctx context.Context, role entity.Role, status string, duration time.Duration) {
	m.cycleDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(roleAttr(role), attribute.String("status", status)))
}

func (m *Metrics) RecordBatch(ctx context.Context, role entity.Role, size int) {
	m.batchSize.Record(ctx, int64(size), metric.WithAttributes(roleAttr(role)))
}

func (m *Metrics) RecordDropped(ctx context.Context, role entity.Role, reason entity.DropReason, count int) {
	if count <= 0 {
		return
	}
	m.dropped.Add(ctx, int64(count),
		metric.WithAttributes(roleAttr(role), attribute.String("reason", string(reason))))
}

func (m *Metrics) RecordSubmission(ctx context.Context, role entity.Role, outcome entity.SubmitOutcome) {
	m.submissions.Add(ctx, 1,
		metric.WithAttributes(roleAttr(role), attribute.String("outcome", string(outcome))))
}

func (m *Metrics) RecordCheckpointLag(ctx context.Context, role entity.Role, lag time.Duration) {
	m.checkpointLag.Record(ctx, lag.Seconds(), metric.WithAttributes(roleAttr(role)))
}
