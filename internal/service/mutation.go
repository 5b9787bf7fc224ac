// internal/service/mutation.go
package service

import (
	"context"
	"fmt"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// applyAndLog mutates one named balance of an in-memory wallet and appends
// the ledger entry documenting it, all against the caller's transaction
// executor. The wallet's aggregate is recomputed by the mutation; the caller
// persists the wallet once with SaveBalances after all deltas are applied so
// the balance row and its ledger entries become visible together.
//
// A delta that would drive the balance negative returns ErrInsufficientFunds
// and leaves the wallet untouched.
func applyAndLog(
	ctx context.Context,
	q repository.DBExecutor,
	ledgerRepo repository.LedgerRepository,
	wallet *domain.Wallet,
	balance domain.BalanceName,
	delta decimal.Decimal,
	kind domain.EntryKind,
	eventID uuid.UUID,
	memo string,
) error {
	before := wallet.BalanceOf(balance)
	if !wallet.ApplyDelta(balance, delta) {
		return fmt.Errorf("%s balance %s cannot absorb delta %s: %w", balance, before, delta, util.ErrInsufficientFunds)
	}
	after := wallet.BalanceOf(balance)

	var memoPtr *string
	if memo != "" {
		memoPtr = &memo
	}
	entry := domain.NewLedgerEntry(eventID, wallet.OwnerID, kind, balance, delta.Abs(), before, after, memoPtr)
	if err := ledgerRepo.Append(ctx, q, entry); err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return nil
}
