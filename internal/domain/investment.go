// internal/domain/investment.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// InvestmentPlan is an operator-managed product definition for positions.
type InvestmentPlan struct {
	ID               int64           `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	MinInvest        decimal.Decimal `db:"min_invest" json:"min_invest"`
	DailyRate        decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	DurationDays     int             `db:"duration_days" json:"duration_days"`
	ROITargetPercent decimal.Decimal `db:"roi_target_percent" json:"roi_target_percent"`
	Active           bool            `db:"active" json:"active"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// PositionStatus is the lifecycle state of an investment position.
type PositionStatus string

const (
	PositionStatusActive    PositionStatus = "active"
	PositionStatusCompleted PositionStatus = "completed"
)

// ClaimInterval is the fixed window between successive accrual claims.
const ClaimInterval = 24 * time.Hour

// InvestmentPosition is an open principal earning periodic yield. NextClaimAt
// advances by ClaimInterval per successful claim; the position flips to
// completed once maturity or the ROI target is reached, after which no
// further claims pay out.
type InvestmentPosition struct {
	ID          int64           `db:"id" json:"id"`
	OwnerID     int64           `db:"owner_id" json:"owner_id"`
	PlanID      int64           `db:"plan_id" json:"plan_id"`
	Principal   decimal.Decimal `db:"principal" json:"principal"`
	DailyRate   decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	ROITarget   decimal.Decimal `db:"roi_target" json:"roi_target"`
	StartAt     time.Time       `db:"start_at" json:"start_at"`
	EndAt       time.Time       `db:"end_at" json:"end_at"`
	NextClaimAt time.Time       `db:"next_claim_at" json:"next_claim_at"`
	TotalEarned decimal.Decimal `db:"total_earned" json:"total_earned"`
	Status      PositionStatus  `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// NewInvestmentPosition opens a position against a plan at the given instant.
// The ROI target is principal * roiTargetPercent / 100.
func NewInvestmentPosition(ownerID int64, plan *InvestmentPlan, principal decimal.Decimal, now time.Time) *InvestmentPosition {
	target := principal.Mul(plan.ROITargetPercent).Div(decimal.NewFromInt(100))
	return &InvestmentPosition{
		OwnerID:     ownerID,
		PlanID:      plan.ID,
		Principal:   principal,
		DailyRate:   plan.DailyRate,
		ROITarget:   target,
		StartAt:     now,
		EndAt:       now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		NextClaimAt: now.Add(ClaimInterval),
		TotalEarned: decimal.Zero,
		Status:      PositionStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DailyPayout is the yield paid per eligible claim window.
func (p *InvestmentPosition) DailyPayout() decimal.Decimal {
	return p.Principal.Mul(p.DailyRate)
}

// Matured reports whether the position has reached maturity or its ROI target
// at the given instant.
func (p *InvestmentPosition) Matured(now time.Time) bool {
	if !now.Before(p.EndAt) {
		return true
	}
	return p.ROITarget.IsPositive() && p.TotalEarned.GreaterThanOrEqual(p.ROITarget)
}
