// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// Resolver runs one settlement cycle for a role.
type Resolver interface {
	Role() entity.Role
	RunCycle(ctx context.Context, cycleID string) (*entity.CycleReport, error)
}

// HealthChecker defines the interface for services that can report readiness and liveness.
type HealthChecker interface {
	// IsReady returns true once the keeper has completed one successful cycle.
	IsReady() bool

	// IsHealthy returns true while the last successful cycle is recent enough
	// that the monitor would not consider the role halted.
	IsHealthy() bool
}
