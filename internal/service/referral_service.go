// internal/service/referral_service.go
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
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// pqUniqueViolation is the PostgreSQL error code raised when the per-event
// per-ancestor ledger index rejects a duplicate commission credit.
const pqUniqueViolation = "23505"

// ReferralService walks a user's upline on qualifying events and credits each
// ancestor tier its configured percentage. It implements Cascader.
type ReferralService interface {
	Cascader
	// RedriveEvent replays a cascade for an event. Ancestors already paid for
	// this event are skipped, making the re-drive idempotent per
	// event-per-ancestor.
	RedriveEvent(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID) error
}

type referralService struct {
	dbBeginner   db.DBTxBeginner
	dbExecutor   repository.DBExecutor
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
	walletRepo   repository.WalletRepository
	ledgerRepo   repository.LedgerRepository
	notifier     Notifier
	logger       *slog.Logger
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
}

// NewReferralService creates a new instance of ReferralService.
func NewReferralService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	referralRepo repository.ReferralRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	notifier Notifier,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) ReferralService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &referralService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		userRepo:     userRepo,
		referralRepo: referralRepo,
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		notifier:     notifier,
		logger:       logger,
		beginTx:      beginTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
	}
}

// OnQualifyingEvent walks the referral chain upward from level 1, crediting
// each active matching tier. Each ancestor credit is its own independently
// atomic operation, not one cross-owner transaction: a failure mid-cascade
// leaves already-paid ancestors paid, is logged with the event id and level,
// and the remaining ancestors are still attempted. A user with no referrer
// produces zero credits and no error.
func (s *referralService) OnQualifyingEvent(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID) {
	if err := s.cascade(ctx, userID, trigger, baseAmount, eventID); err != nil {
		s.logger.Error("referral cascade incomplete",
			"user_id", userID, "trigger", trigger, "event_id", eventID, "error", err)
	}
}

// RedriveEvent replays the cascade for an event after a partial failure.
func (s *referralService) RedriveEvent(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID) error {
	return s.cascade(ctx, userID, trigger, baseAmount, eventID)
}

func (s *referralService) cascade(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID) error {
	if baseAmount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return fmt.Errorf("cascade: failed to load user %d: %w", userID, err)
	}

	var cascadeErr error
	level := 1
	ancestorID := user.ReferrerID
	for ancestorID != nil {
		tier, err := s.referralRepo.GetTierByLevel(ctx, s.dbExecutor, level, trigger)
		if err != nil {
			if errors.Is(err, util.ErrNotFound) {
				// No tier configured for this level: the cascade stops here.
				break
			}
			return fmt.Errorf("cascade: failed to load tier for level %d: %w", level, err)
		}
		if !tier.Active {
			break
		}

		commission := tier.CommissionOn(baseAmount)
		if err := s.creditAncestor(ctx, *ancestorID, commission, level, eventID); err != nil {
			s.logger.Error("failed to credit cascade ancestor",
				"event_id", eventID, "level", level, "ancestor_id", *ancestorID, "error", err)
			cascadeErr = errors.Join(cascadeErr, err)
		}

		ancestor, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, *ancestorID)
		if err != nil {
			return errors.Join(cascadeErr, fmt.Errorf("cascade: failed to load ancestor %d: %w", *ancestorID, err))
		}
		ancestorID = ancestor.ReferrerID
		level++
	}

	return cascadeErr
}

// creditAncestor performs one independently atomic commission credit. The
// (event, ancestor) pair is checked against the ledger before crediting and
// enforced by a unique index at write time, so a re-drive can never pay the
// same ancestor twice for one event.
func (s *referralService) creditAncestor(ctx context.Context, ancestorID int64, commission decimal.Decimal, level int, eventID uuid.UUID) error {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return fmt.Errorf("credit ancestor: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("credit ancestor: transaction controller does not implement DBExecutor")
	}

	paid, err := s.ledgerRepo.EventExists(ctx, txExecutor, eventID, ancestorID)
	if err != nil {
		return fmt.Errorf("credit ancestor: idempotency check failed: %w", err)
	}
	if paid {
		return nil
	}

	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, txExecutor, ancestorID)
	if err != nil {
		return fmt.Errorf("credit ancestor: failed to lock wallet for owner %d: %w", ancestorID, err)
	}

	memo := fmt.Sprintf("level %d commission for event %s", level, eventID)
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, domain.BalanceCommission, commission, domain.EntryKindCommissionCredit, eventID, memo); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			// A concurrent re-drive paid this ancestor first.
			return nil
		}
		return fmt.Errorf("credit ancestor: %w", err)
	}
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return fmt.Errorf("credit ancestor: failed to save balances: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("credit ancestor: failed to commit transaction: %w", err)
	}

	s.notifier.BalancesChanged(ancestorID)
	return nil
}
