// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// BalanceName identifies one of the purpose-tagged sub-balances of a wallet.
type BalanceName string

const (
	BalanceMain       BalanceName = "main"
	BalanceDeposit    BalanceName = "deposit"
	BalanceGame       BalanceName = "game"
	BalanceEarning    BalanceName = "earning"
	BalanceInvestment BalanceName = "investment"
	BalanceReferral   BalanceName = "referral"
	BalanceCommission BalanceName = "commission"
	BalanceBonus      BalanceName = "bonus"
)

// AllBalances lists every named sub-balance in a stable order.
var AllBalances = []BalanceName{
	BalanceMain,
	BalanceDeposit,
	BalanceGame,
	BalanceEarning,
	BalanceInvestment,
	BalanceReferral,
	BalanceCommission,
	BalanceBonus,
}

// IsValidBalance reports whether name is one of the named sub-balances.
func IsValidBalance(name BalanceName) bool {
	for _, b := range AllBalances {
		if b == name {
			return true
		}
	}
	return false
}

// Wallet is the canonical per-user record of named balances plus the derived
// aggregate. The aggregate always equals the sum of the named balances; it is
// recomputed on every mutation, never patched independently. Wallets are
// created at account provisioning, mutated only by the engines, never deleted.
type Wallet struct {
	ID         int64           `db:"id" json:"id"`
	OwnerID    int64           `db:"owner_id" json:"owner_id"`
	Main       decimal.Decimal `db:"main_balance" json:"main"`
	Deposit    decimal.Decimal `db:"deposit_balance" json:"deposit"`
	Game       decimal.Decimal `db:"game_balance" json:"game"`
	Earning    decimal.Decimal `db:"earning_balance" json:"earning"`
	Investment decimal.Decimal `db:"investment_balance" json:"investment"`
	Referral   decimal.Decimal `db:"referral_balance" json:"referral"`
	Commission decimal.Decimal `db:"commission_balance" json:"commission"`
	Bonus      decimal.Decimal `db:"bonus_balance" json:"bonus"`
	Aggregate  decimal.Decimal `db:"aggregate_balance" json:"aggregate"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWallet creates a zero-valued Wallet for an owner.
func NewWallet(ownerID int64) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		OwnerID:    ownerID,
		Main:       decimal.Zero,
		Deposit:    decimal.Zero,
		Game:       decimal.Zero,
		Earning:    decimal.Zero,
		Investment: decimal.Zero,
		Referral:   decimal.Zero,
		Commission: decimal.Zero,
		Bonus:      decimal.Zero,
		Aggregate:  decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (w *Wallet) balanceRef(name BalanceName) *decimal.Decimal {
	switch name {
	case BalanceMain:
		return &w.Main
	case BalanceDeposit:
		return &w.Deposit
	case BalanceGame:
		return &w.Game
	case BalanceEarning:
		return &w.Earning
	case BalanceInvestment:
		return &w.Investment
	case BalanceReferral:
		return &w.Referral
	case BalanceCommission:
		return &w.Commission
	case BalanceBonus:
		return &w.Bonus
	default:
		return nil
	}
}

// BalanceOf returns the current value of the named sub-balance.
// Unknown names read as zero.
func (w *Wallet) BalanceOf(name BalanceName) decimal.Decimal {
	if ref := w.balanceRef(name); ref != nil {
		return *ref
	}
	return decimal.Zero
}

// ApplyDelta adds delta (which may be negative) to the named sub-balance and
// recomputes the aggregate. It returns ErrInsufficientFunds semantics to the
// caller through a plain boolean: false means the delta would drive the
// balance negative and nothing was changed.
func (w *Wallet) ApplyDelta(name BalanceName, delta decimal.Decimal) bool {
	ref := w.balanceRef(name)
	if ref == nil {
		return false
	}
	next := ref.Add(delta)
	if next.IsNegative() {
		return false
	}
	*ref = next
	w.Recompute()
	return true
}

// Recompute refreshes the aggregate from the named balances.
func (w *Wallet) Recompute() {
	sum := decimal.Zero
	for _, name := range AllBalances {
		sum = sum.Add(w.BalanceOf(name))
	}
	w.Aggregate = sum
	w.UpdatedAt = time.Now().UTC()
}

// Sum returns the sum of the named balances without touching the aggregate.
func (w *Wallet) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, name := range AllBalances {
		sum = sum.Add(w.BalanceOf(name))
	}
	return sum
}

// Consistent reports whether the stored aggregate matches the named balances.
func (w *Wallet) Consistent() bool {
	return w.Aggregate.Equal(w.Sum())
}
