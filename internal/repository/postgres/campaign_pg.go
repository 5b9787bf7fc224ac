// internal/repository/postgres/campaign_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

const campaignColumns = `id, funder_id, title, total_units, remaining_units, unit_price, worker_reward,
	proof_method, min_dwell_seconds, quiz_key, file_pattern, status, created_at, updated_at`

// CampaignRepository implements repository.CampaignRepository for PostgreSQL.
type CampaignRepository struct{}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *sqlx.DB) repository.CampaignRepository {
	return &CampaignRepository{}
}

// CreateCampaign inserts a new campaign using the provided DBExecutor.
func (r *CampaignRepository) CreateCampaign(ctx context.Context, q repository.DBExecutor, campaign *domain.Campaign) error {
	query := `INSERT INTO campaigns (funder_id, title, total_units, remaining_units, unit_price, worker_reward,
                proof_method, min_dwell_seconds, quiz_key, file_pattern, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		campaign.FunderID,
		campaign.Title,
		campaign.TotalUnits,
		campaign.RemainingUnits,
		campaign.UnitPrice,
		campaign.WorkerReward,
		campaign.ProofMethod,
		campaign.MinDwellSeconds,
		campaign.QuizKey,
		campaign.FilePattern,
		campaign.Status,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	).Scan(&campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to create campaign for funder %d: %w", campaign.FunderID, err)
	}
	return nil
}

// GetCampaignByID retrieves a campaign by id.
func (r *CampaignRepository) GetCampaignByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Campaign, error) {
	var campaign domain.Campaign
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	err := q.GetContext(ctx, &campaign, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign %d: %w", id, err)
	}
	return &campaign, nil
}

// DecrementRemainingUnits decreases remaining_units by one, guarded so it can
// never go below zero, and returns the post-decrement count. A false ok with
// no error means no row qualified.
func (r *CampaignRepository) DecrementRemainingUnits(ctx context.Context, q repository.DBExecutor, id int64) (int, bool, error) {
	var remaining int
	query := `UPDATE campaigns SET remaining_units = remaining_units - 1, updated_at = $1
              WHERE id = $2 AND remaining_units > 0
              RETURNING remaining_units`
	err := q.QueryRowContext(ctx, query, time.Now().UTC(), id).Scan(&remaining)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to decrement remaining units for campaign %d: %w", id, err)
	}
	return remaining, true, nil
}

// UpdateCampaignStatus sets the campaign lifecycle status.
func (r *CampaignRepository) UpdateCampaignStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CampaignStatus) error {
	query := `UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for campaign %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected updating campaign %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrCampaignNotFound
	}
	return nil
}

// DeleteCampaign removes the campaign row.
func (r *CampaignRepository) DeleteCampaign(ctx context.Context, q repository.DBExecutor, id int64) error {
	query := `DELETE FROM campaigns WHERE id = $1`
	result, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected deleting campaign %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrCampaignNotFound
	}
	return nil
}
