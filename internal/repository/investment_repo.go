// internal/repository/investment_repo.go
package repository

import (
	"context"

	"taskpay-engine/internal/domain"
)

// InvestmentRepository defines the interface for investment plan and position
// data operations.
type InvestmentRepository interface {
	// GetPlanByID retrieves an investment plan.
	GetPlanByID(ctx context.Context, q DBExecutor, id int64) (*domain.InvestmentPlan, error)
	// ListActivePlans retrieves every active plan.
	ListActivePlans(ctx context.Context, q DBExecutor) ([]domain.InvestmentPlan, error)
	// CreatePosition inserts a new position and fills in its id.
	CreatePosition(ctx context.Context, q DBExecutor, pos *domain.InvestmentPosition) error
	// GetPositionByID retrieves a position without locking.
	GetPositionByID(ctx context.Context, q DBExecutor, id int64) (*domain.InvestmentPosition, error)
	// GetPositionByIDForUpdate retrieves the position row under an exclusive
	// row lock, making claim eligibility and payout a single-fire pair.
	GetPositionByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.InvestmentPosition, error)
	// SavePositionProgress persists next_claim_at, total_earned and status
	// after a claim.
	SavePositionProgress(ctx context.Context, q DBExecutor, pos *domain.InvestmentPosition) error
}
