// internal/service/investment_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"
	"taskpay-engine/pkg/db"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// InvestmentService opens positions against operator-defined plans and pays
// time-gated accrual claims until maturity.
type InvestmentService interface {
	Open(ctx context.Context, ownerID, planID int64, amount decimal.Decimal) (*domain.InvestmentPosition, error)
	Claim(ctx context.Context, positionID int64) (*domain.InvestmentPosition, decimal.Decimal, error)
	ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error)
	GetPosition(ctx context.Context, positionID int64) (*domain.InvestmentPosition, error)
}

type investmentService struct {
	dbBeginner     db.DBTxBeginner
	dbExecutor     repository.DBExecutor
	investmentRepo repository.InvestmentRepository
	walletRepo     repository.WalletRepository
	ledgerRepo     repository.LedgerRepository
	cascader       Cascader
	notifier       Notifier
	logger         *slog.Logger
	clock          clockwork.Clock
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc
}

// InvestmentServiceConfig bundles the accrual engine's dependencies.
type InvestmentServiceConfig struct {
	DBBeginner     db.DBTxBeginner
	DBExecutor     repository.DBExecutor
	InvestmentRepo repository.InvestmentRepository
	WalletRepo     repository.WalletRepository
	LedgerRepo     repository.LedgerRepository
	Cascader       Cascader
	Notifier       Notifier
	Logger         *slog.Logger
	Clock          clockwork.Clock
	BeginTx        db.BeginTxFunc
	CommitTx       db.CommitTxFunc
	RollbackTx     db.RollbackTxFunc
}

// NewInvestmentService creates a new instance of InvestmentService.
func NewInvestmentService(cfg InvestmentServiceConfig) InvestmentService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier()
	}
	return &investmentService{
		dbBeginner:     cfg.DBBeginner,
		dbExecutor:     cfg.DBExecutor,
		investmentRepo: cfg.InvestmentRepo,
		walletRepo:     cfg.WalletRepo,
		ledgerRepo:     cfg.LedgerRepo,
		cascader:       cfg.Cascader,
		notifier:       cfg.Notifier,
		logger:         cfg.Logger,
		clock:          cfg.Clock,
		beginTx:        cfg.BeginTx,
		commitTx:       cfg.CommitTx,
		rollbackTx:     cfg.RollbackTx,
	}
}

// Open debits the owner's investment balance by the principal and creates an
// active position, atomically. A zero amount invests the plan minimum.
func (s *investmentService) Open(ctx context.Context, ownerID, planID int64, amount decimal.Decimal) (*domain.InvestmentPosition, error) {
	if amount.IsNegative() {
		return nil, util.ErrNonPositiveAmount
	}

	plan, err := s.investmentRepo.GetPlanByID(ctx, s.dbExecutor, planID)
	if err != nil {
		return nil, fmt.Errorf("open investment: %w", err)
	}
	if !plan.Active {
		return nil, fmt.Errorf("open investment: plan %d is inactive: %w", planID, util.ErrPlanNotFound)
	}

	principal := amount
	if principal.IsZero() {
		principal = plan.MinInvest
	}
	if principal.LessThan(plan.MinInvest) {
		return nil, fmt.Errorf("open investment: principal %s below plan minimum %s: %w",
			principal, plan.MinInvest, util.ErrInvalidInput)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("open investment: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("open investment: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, txExecutor, ownerID)
	if err != nil {
		return nil, fmt.Errorf("open investment: failed to lock wallet for owner %d: %w", ownerID, err)
	}
	if wallet.Investment.LessThan(principal) {
		return nil, util.ErrInsufficientFunds
	}

	now := s.clock.Now().UTC()
	pos := domain.NewInvestmentPosition(ownerID, plan, principal, now)
	if err := s.investmentRepo.CreatePosition(ctx, txExecutor, pos); err != nil {
		return nil, fmt.Errorf("open investment: %w", err)
	}

	eventID := uuid.New()
	memo := fmt.Sprintf("principal for position %d (plan %s)", pos.ID, plan.Name)
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, domain.BalanceInvestment, principal.Neg(), domain.EntryKindEscrowFund, eventID, memo); err != nil {
		return nil, fmt.Errorf("open investment: %w", err)
	}
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, fmt.Errorf("open investment: failed to save balances: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("open investment: failed to commit transaction: %w", err)
	}

	s.notifier.BalancesChanged(ownerID)

	return pos, nil
}

// Claim pays one accrual window: payout = principal * dailyRate, credited to
// the earning balance. Eligibility is checked under the same locks used for
// the credit, guaranteeing exactly one payout per eligible window even under
// concurrent retries. The position flips to completed when maturity or the
// ROI target is reached.
func (s *investmentService) Claim(ctx context.Context, positionID int64) (*domain.InvestmentPosition, decimal.Decimal, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("claim: transaction controller does not implement DBExecutor")
	}

	pos, err := s.investmentRepo.GetPositionByIDForUpdate(ctx, txExecutor, positionID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: %w", err)
	}

	now := s.clock.Now().UTC()
	if pos.Status != domain.PositionStatusActive || now.Before(pos.NextClaimAt) {
		return nil, decimal.Zero, fmt.Errorf("claim: position %d next claim at %s: %w",
			pos.ID, pos.NextClaimAt.Format("2006-01-02T15:04:05Z"), util.ErrNotYetEligible)
	}

	payout := pos.DailyPayout()

	wallet, err := s.walletRepo.GetWalletByOwnerForUpdate(ctx, txExecutor, pos.OwnerID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: failed to lock wallet for owner %d: %w", pos.OwnerID, err)
	}

	eventID := uuid.New()
	memo := fmt.Sprintf("accrual for position %d", pos.ID)
	if err := applyAndLog(ctx, txExecutor, s.ledgerRepo, wallet, domain.BalanceEarning, payout, domain.EntryKindAccrualClaim, eventID, memo); err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: %w", err)
	}
	if err := s.walletRepo.SaveBalances(ctx, txExecutor, wallet); err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: failed to save balances: %w", err)
	}

	pos.TotalEarned = pos.TotalEarned.Add(payout)
	pos.NextClaimAt = pos.NextClaimAt.Add(domain.ClaimInterval)
	if pos.Matured(now) {
		pos.Status = domain.PositionStatusCompleted
	}
	if err := s.investmentRepo.SavePositionProgress(ctx, txExecutor, pos); err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, decimal.Zero, fmt.Errorf("claim: failed to commit transaction: %w", err)
	}

	s.notifier.BalancesChanged(pos.OwnerID)
	if s.cascader != nil {
		s.cascader.OnQualifyingEvent(ctx, pos.OwnerID, domain.TriggerOnEarning, payout, eventID)
	}

	return pos, payout, nil
}

// ListPlans returns every active investment plan.
func (s *investmentService) ListPlans(ctx context.Context) ([]domain.InvestmentPlan, error) {
	plans, err := s.investmentRepo.ListActivePlans(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// GetPosition retrieves a position without locking.
func (s *investmentService) GetPosition(ctx context.Context, positionID int64) (*domain.InvestmentPosition, error) {
	pos, err := s.investmentRepo.GetPositionByID(ctx, s.dbExecutor, positionID)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return pos, nil
}
