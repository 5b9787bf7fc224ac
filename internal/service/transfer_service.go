// internal/service/transfer_service.go
package service

import (
	"context"
	"fmt"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"
	"taskpay-engine/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferService moves value between two named balances of one owner,
// governed by the fixed adjacency policy.
type TransferService interface {
	Transfer(ctx context.Context, ownerID int64, from, to domain.BalanceName, amount decimal.Decimal) (*domain.Wallet, error)
}

type transferService struct {
	dbBeginner db.DBTxBeginner
	walletRepo repository.WalletRepository
	ledgerRepo repository.LedgerRepository
	notifier   Notifier
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewTransferService creates a new instance of TransferService.
func NewTransferService(
	dbBeginner db.DBTxBeginner,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	notifier Notifier,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) TransferService {
	return &transferService{
		dbBeginner: dbBeginner,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		notifier:   notifier,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// Transfer validates the move, then debits and credits under the owner's
// exclusive wallet lock with both ledger legs in the same transaction.
// Validation failures reject before any mutation.
func (s *transferService) Transfer(ctx context.Context, ownerID int64, from, to domain.BalanceName, amount decimal.Decimal) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrNonPositiveAmount
	}
	if !domain.IsValidBalance(from) || !domain.IsValidBalance(to) {
		return nil, util.ErrInvalidInput
	}
	if !CanTransfer(from, to) {
		return nil, fmt.Errorf("transfer %s -> %s: %w", from, to, util.ErrInvalidDestination)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("transfer: transaction controller does not implement DBExecutor")
	}

	// Re-read the source value under the lock; the client's view of the
	// balance is display-only and never trusted for decisioning.
	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, txExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("transfer: failed to lock wallet for owner %d: %w", ownerID, err)
	}
	if wallet.BalanceOf(from).LessThan(amount) {
		return nil, util.ErrInsufficientFunds
	}

	eventID := uuid.New()
	memo := fmt.Sprintf("transfer %s -> %s", from, to)
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, from, amount.Neg(), domain.EntryKindTransfer, eventID, memo); err != nil {
		return nil, fmt.Errorf("transfer: debit leg failed: %w", err)
	}
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, to, amount, domain.EntryKindTransfer, eventID, memo); err != nil {
		return nil, fmt.Errorf("transfer: credit leg failed: %w", err)
	}

	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, fmt.Errorf("transfer: failed to save balances: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}

	// Side effect outside the atomic unit.
	s.notifier.BalancesChanged(ownerID)

	return wallet, nil
}
