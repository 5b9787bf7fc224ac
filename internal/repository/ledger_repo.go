// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"taskpay-engine/internal/domain"

	"github.com/google/uuid"
)

// LedgerRepository defines the interface for the append-only audit trail.
// Entries are inserted in the same transaction as the balance mutation they
// document and are never updated or deleted.
type LedgerRepository interface {
	// Append inserts an immutable ledger entry and fills in its id.
	Append(ctx context.Context, q DBExecutor, entry *domain.LedgerEntry) error
	// ListByOwner retrieves a page of ledger entries for an owner, newest
	// first, plus the total entry count.
	ListByOwner(ctx context.Context, q DBExecutor, ownerID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
	// EventExists reports whether an entry for (eventID, ownerID) has already
	// been written. Used to keep cascade re-drives idempotent.
	EventExists(ctx context.Context, q DBExecutor, eventID uuid.UUID, ownerID int64) (bool, error)
}
