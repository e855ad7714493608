package outbound

import (
	"context"
	"time"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// MetricsRecorder records keeper metrics.
type MetricsRecorder interface {
	RecordCycle(ctx context.Context, role entity.Role, status string, duration time.Duration)
	RecordBatch(ctx context.Context, role entity.Role, size int)
	RecordDropped(ctx context.Context, role entity.Role, reason entity.DropReason, count int)
	RecordSubmission(ctx context.Context, role entity.Role, outcome entity.SubmitOutcome)
	RecordCheckpointLag(ctx context.Context, role entity.Role, lag time.Duration)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordCycle(context.Context, entity.Role, string, time.Duration) {}
func (NopMetrics) RecordBatch(context.Context, entity.Role, int) {}
func (NopMetrics) RecordDropped(context.Context, entity.Role, entity.DropReason, int) {}
func (NopMetrics) RecordSubmission(context.Context, entity.Role, entity.SubmitOutcome) {}
func (NopMetrics) RecordCheckpointLag(context.Context, entity.Role, time.Duration) {}

var _ MetricsRecorder = NopMetrics{}
