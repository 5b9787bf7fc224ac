// internal/repository/postgres/investment_pg.go
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

const positionColumns = `id, owner_id, plan_id, principal, daily_rate, roi_target, start_at, end_at,
	next_claim_at, total_earned, status, created_at, updated_at`

// InvestmentRepository implements repository.InvestmentRepository for PostgreSQL.
type InvestmentRepository struct{}

// NewInvestmentRepository creates a new InvestmentRepository.
func NewInvestmentRepository(db *sqlx.DB) repository.InvestmentRepository {
	return &InvestmentRepository{}
}

// GetPlanByID retrieves an investment plan.
func (r *InvestmentRepository) GetPlanByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPlan, error) {
	var plan domain.InvestmentPlan
	query := `SELECT id, name, min_invest, daily_rate, duration_days, roi_target_percent, active, created_at
              FROM investment_plans WHERE id = $1`
	err := q.GetContext(ctx, &plan, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get investment plan %d: %w", id, err)
	}
	return &plan, nil
}

// ListActivePlans retrieves every active plan.
func (r *InvestmentRepository) ListActivePlans(ctx context.Context, q repository.DBExecutor) ([]domain.InvestmentPlan, error) {
	plans := []domain.InvestmentPlan{}
	query := `SELECT id, name, min_invest, daily_rate, duration_days, roi_target_percent, active, created_at
              FROM investment_plans WHERE active ORDER BY id`
	if err := q.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("failed to list active investment plans: %w", err)
	}
	return plans, nil
}

// CreatePosition inserts a new position and fills in its id.
func (r *InvestmentRepository) CreatePosition(ctx context.Context, q repository.DBExecutor, pos *domain.InvestmentPosition) error {
	query := `INSERT INTO investment_positions (owner_id, plan_id, principal, daily_rate, roi_target,
                start_at, end_at, next_claim_at, total_earned, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		pos.OwnerID,
		pos.PlanID,
		pos.Principal,
		pos.DailyRate,
		pos.ROITarget,
		pos.StartAt,
		pos.EndAt,
		pos.NextClaimAt,
		pos.TotalEarned,
		pos.Status,
		pos.CreatedAt,
		pos.UpdatedAt,
	).Scan(&pos.ID)
	if err != nil {
		return fmt.Errorf("failed to create investment position for owner %d: %w", pos.OwnerID, err)
	}
	return nil
}

// GetPositionByID retrieves a position without locking.
func (r *InvestmentRepository) GetPositionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPosition, error) {
	var pos domain.InvestmentPosition
	query := `SELECT ` + positionColumns + ` FROM investment_positions WHERE id = $1`
	err := q.GetContext(ctx, &pos, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get investment position %d: %w", id, err)
	}
	return &pos, nil
}

// GetPositionByIDForUpdate retrieves the position row under an exclusive row
// lock. Must be called inside a transaction.
func (r *InvestmentRepository) GetPositionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPosition, error) {
	var pos domain.InvestmentPosition
	query := `SELECT ` + positionColumns + ` FROM investment_positions WHERE id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &pos, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to lock investment position %d: %w", id, err)
	}
	return &pos, nil
}

// SavePositionProgress persists next_claim_at, total_earned and status after
// a claim.
func (r *InvestmentRepository) SavePositionProgress(ctx context.Context, q repository.DBExecutor, pos *domain.InvestmentPosition) error {
	query := `UPDATE investment_positions SET next_claim_at = $1, total_earned = $2, status = $3, updated_at = $4
              WHERE id = $5`
	result, err := q.ExecContext(ctx, query, pos.NextClaimAt, pos.TotalEarned, pos.Status, time.Now().UTC(), pos.ID)
	if err != nil {
		return fmt.Errorf("failed to save progress for investment position %d: %w", pos.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected saving position %d: %w", pos.ID, err)
	}
	if rowsAffected == 0 {
		return util.ErrPositionNotFound
	}
	return nil
}
