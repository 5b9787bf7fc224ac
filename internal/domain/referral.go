// internal/domain/referral.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TriggerType is the class of qualifying event a referral tier pays on.
type TriggerType string

const (
	TriggerOnDeposit TriggerType = "deposit"
	TriggerOnEarning TriggerType = "earning"
)

// ReferralTier is operator-managed configuration for one level of the upline:
// level 1 is the direct referrer. Read-only to the cascade engine.
type ReferralTier struct {
	ID                int64           `db:"id" json:"id"`
	Level             int             `db:"level" json:"level"`
	CommissionPercent decimal.Decimal `db:"commission_percent" json:"commission_percent"`
	TriggerType       TriggerType     `db:"trigger_type" json:"trigger_type"`
	Active            bool            `db:"active" json:"active"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// CommissionOn computes this tier's commission for a base amount.
func (t *ReferralTier) CommissionOn(base decimal.Decimal) decimal.Decimal {
	return base.Mul(t.CommissionPercent).Div(decimal.NewFromInt(100))
}
