// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// EntryKind classifies the balance-affecting event a ledger entry documents.
type EntryKind string

const (
	EntryKindTransfer         EntryKind = "transfer"
	EntryKindEscrowFund       EntryKind = "escrow-fund"
	EntryKindEscrowRefund     EntryKind = "escrow-refund"
	EntryKindEscrowPayout     EntryKind = "escrow-payout"
	EntryKindAccrualClaim     EntryKind = "accrual-claim"
	EntryKindCommissionCredit EntryKind = "commission-credit"
	EntryKindDepositCredit    EntryKind = "deposit-credit"
)

// EntryStatus is the recorded outcome of the documented event.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "COMPLETED"
)

// LedgerEntry is an immutable audit record of one balance mutation. It is
// written in the same database transaction as the mutation it documents and
// is never edited afterwards. EventID groups the entries of one logical
// operation (e.g. both legs of a transfer, or every ancestor credit of one
// cascade event); the pair (EventID, OwnerID) is unique for commission
// credits, which makes cascade re-drives idempotent per event-per-ancestor.
type LedgerEntry struct {
	ID            int64           `db:"id" json:"id"`
	EventID       uuid.UUID       `db:"event_id" json:"event_id"`
	OwnerID       int64           `db:"owner_id" json:"owner_id"`
	Kind          EntryKind       `db:"kind" json:"kind"`
	Balance       BalanceName     `db:"balance_name" json:"balance_name"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	Memo          *string         `db:"memo" json:"memo"`
	Status        EntryStatus     `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates a completed ledger entry for one balance mutation.
func NewLedgerEntry(
	eventID uuid.UUID,
	ownerID int64,
	kind EntryKind,
	balance BalanceName,
	amount decimal.Decimal,
	before decimal.Decimal,
	after decimal.Decimal,
	memo *string,
) *LedgerEntry {
	return &LedgerEntry{
		EventID:       eventID,
		OwnerID:       ownerID,
		Kind:          kind,
		Balance:       balance,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Memo:          memo,
		Status:        EntryStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}
