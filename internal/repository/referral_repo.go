// internal/repository/referral_repo.go
package repository

import (
	"context"

	"taskpay-engine/internal/domain"
)

// ReferralRepository defines read access to the operator-managed referral
// tier configuration. The cascade engine treats it as read-only input.
type ReferralRepository interface {
	// GetTierByLevel retrieves the tier configured for a level and trigger
	// type, or util.ErrNotFound when none is configured.
	GetTierByLevel(ctx context.Context, q DBExecutor, level int, trigger domain.TriggerType) (*domain.ReferralTier, error)
	// ListActiveTiers retrieves every active tier for a trigger type ordered
	// by level.
	ListActiveTiers(ctx context.Context, q DBExecutor, trigger domain.TriggerType) ([]domain.ReferralTier, error)
}
