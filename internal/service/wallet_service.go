// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"
	"taskpay-engine/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cascader propagates commission credits up the referral hierarchy as a side
// effect of a qualifying event. Implemented by the referral service; engines
// invoke it after their own atomic unit commits.
type Cascader interface {
	OnQualifyingEvent(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID)
}

// WalletService covers account provisioning, external funding, and read-only
// balance/history queries.
type WalletService interface {
	CreateUserAndWallet(ctx context.Context, username string, referrerID *int64) (*domain.User, *domain.Wallet, error)
	Deposit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*domain.Wallet, error)
	GetWallet(ctx context.Context, ownerID int64) (*domain.Wallet, error)
	GetLedger(ctx context.Context, ownerID int64, limit, offset int) ([]domain.LedgerEntry, int64, error)
}

type walletService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	userRepo   repository.UserRepository
	walletRepo repository.WalletRepository
	ledgerRepo repository.LedgerRepository
	cascader   Cascader
	notifier   Notifier
	logger     *slog.Logger
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	cascader Cascader,
	notifier Notifier,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) WalletService {
	return &walletService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		cascader:   cascader,
		notifier:   notifier,
		logger:     logger,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// CreateUserAndWallet provisions a user account together with its wallet.
func (s *walletService) CreateUserAndWallet(ctx context.Context, username string, referrerID *int64) (*domain.User, *domain.Wallet, error) {
	if username == "" {
		return nil, nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("create user and wallet: transaction controller does not implement DBExecutor")
	}

	_, err = s.userRepo.GetUserByUsername(ctx, txExecutor, username)
	if err == nil {
		return nil, nil, fmt.Errorf("create user and wallet: user %q: %w", username, util.ErrDuplicateEntry)
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, nil, fmt.Errorf("create user and wallet: failed to check existing user: %w", err)
	}

	if referrerID != nil {
		if _, err := s.userRepo.GetUserByID(ctx, txExecutor, *referrerID); err != nil {
			return nil, nil, fmt.Errorf("create user and wallet: referrer %d: %w", *referrerID, err)
		}
	}

	user := domain.NewUser(username, referrerID)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to create user: %w", err)
	}

	wallet := domain.NewWallet(user.ID)
	if err := s.walletRepo.CreateWallet(ctx, txExecutor, wallet); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to create wallet: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("create user and wallet: failed to commit transaction: %w", err)
	}

	return user, wallet, nil
}

// Deposit credits an external top-up to the deposit balance and fires the
// on-deposit referral cascade after the atomic unit commits.
func (s *walletService) Deposit(ctx context.Context, ownerID int64, amount decimal.Decimal) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrNonPositiveAmount
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("deposit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("deposit: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, txExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("deposit: failed to lock wallet for owner %d: %w", ownerID, err)
	}

	eventID := uuid.New()
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, domain.BalanceDeposit, amount, domain.EntryKindDepositCredit, eventID, "external deposit"); err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, fmt.Errorf("deposit: failed to save balances: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("deposit: failed to commit transaction: %w", err)
	}

	s.notifier.BalancesChanged(ownerID)
	if s.cascader != nil {
		s.cascader.OnQualifyingEvent(ctx, ownerID, domain.TriggerOnDeposit, amount, eventID)
	}

	return wallet, nil
}

// GetWallet returns the owner's wallet without taking a lock. The value may
// be slightly stale relative to an in-flight mutation.
func (s *walletService) GetWallet(ctx context.Context, ownerID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByOwner(ctx, s.dbExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: owner %d: %w", ownerID, err)
	}
	return wallet, nil
}

// GetLedger retrieves a paginated slice of the owner's audit trail.
func (s *walletService) GetLedger(ctx context.Context, ownerID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	if _, err := s.walletRepo.GetWalletByOwner(ctx, s.dbExecutor, ownerID); err != nil {
		if util.IsError(err, util.ErrWalletNotFound) {
			return nil, 0, util.ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("get ledger: failed to check wallet existence: %w", err)
	}

	entries, totalCount, err := s.ledgerRepo.ListByOwner(ctx, s.dbExecutor, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get ledger: %w", err)
	}
	return entries, totalCount, nil
}
