// internal/repository/postgres/referral_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

// ReferralRepository implements repository.ReferralRepository for PostgreSQL.
type ReferralRepository struct{}

// NewReferralRepository creates a new ReferralRepository.
func NewReferralRepository(db *sqlx.DB) repository.ReferralRepository {
	return &ReferralRepository{}
}

// GetTierByLevel retrieves the tier configured for a level and trigger type.
func (r *ReferralRepository) GetTierByLevel(ctx context.Context, q repository.DBExecutor, level int, trigger domain.TriggerType) (*domain.ReferralTier, error) {
	var tier domain.ReferralTier
	query := `SELECT id, level, commission_percent, trigger_type, active, created_at
              FROM referral_tiers WHERE level = $1 AND trigger_type = $2`
	err := q.GetContext(ctx, &tier, query, level, trigger)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral tier level %d trigger %s: %w", level, trigger, err)
	}
	return &tier, nil
}

// ListActiveTiers retrieves every active tier for a trigger type ordered by level.
func (r *ReferralRepository) ListActiveTiers(ctx context.Context, q repository.DBExecutor, trigger domain.TriggerType) ([]domain.ReferralTier, error) {
	tiers := []domain.ReferralTier{}
	query := `SELECT id, level, commission_percent, trigger_type, active, created_at
              FROM referral_tiers WHERE trigger_type = $1 AND active ORDER BY level`
	if err := q.SelectContext(ctx, &tiers, query, trigger); err != nil {
		return nil, fmt.Errorf("failed to list active referral tiers for trigger %s: %w", trigger, err)
	}
	return tiers, nil
}
