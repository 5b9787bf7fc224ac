// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
// The ledger_entries table is append-only; there is deliberately no update
// or delete here.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{}
}

// Append inserts an immutable ledger entry using the provided DBExecutor.
func (r *LedgerRepository) Append(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (event_id, owner_id, kind, balance_name, amount,
                balance_before, balance_after, memo, status, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		entry.EventID,
		entry.OwnerID,
		entry.Kind,
		entry.Balance,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Memo,
		entry.Status,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry for owner %d: %w", entry.OwnerID, err)
	}
	return nil
}

// ListByOwner retrieves a paginated list of ledger entries for an owner,
// newest first, plus the total count.
func (r *LedgerRepository) ListByOwner(ctx context.Context, q repository.DBExecutor, ownerID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	entries := []domain.LedgerEntry{}

	query := `
		SELECT id, event_id, owner_id, kind, balance_name, amount, balance_before, balance_after,
		       memo, status, created_at
		FROM ledger_entries
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &entries, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries for owner %d: %w", ownerID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM ledger_entries WHERE owner_id = $1`
	err = q.GetContext(ctx, &totalCount, countQuery, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries for owner %d: %w", ownerID, err)
	}

	return entries, totalCount, nil
}

// EventExists reports whether an entry for (eventID, ownerID) already exists.
func (r *LedgerRepository) EventExists(ctx context.Context, q repository.DBExecutor, eventID uuid.UUID, ownerID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE event_id = $1 AND owner_id = $2)`
	err := q.GetContext(ctx, &exists, query, eventID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger event %s for owner %d: %w", eventID, ownerID, err)
	}
	return exists, nil
}
