package outbound

import (
	"context"

	"github.com/archon-research/keeper/internal/domain/entity"
)

// Alerter delivers operator notifications.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

// RecoveryTrigger asks the deployment pipeline to restart a stalled role.
type RecoveryTrigger interface {
	TriggerRecovery(ctx context.Context, role entity.Role, reason string) error
}
