// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/pkg/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// testLogger returns a logger that discards everything.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController. It embeds
// MockDBExecutor so the services' cast to repository.DBExecutor succeeds.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// txFuncs routes a service's transaction control through the given mock
// controller.
func txFuncs(tc *MockTxController) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	begin := func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
		return tc, nil
	}
	commit := func(tx db.TxController) error {
		return tc.Commit()
	}
	rollback := func(tx db.TxController) {
		_ = tc.Rollback()
	}
	return begin, commit, rollback
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByOwner(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByOwnerForUpdate(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) SaveBalances(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, q repository.DBExecutor, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListByOwner(ctx context.Context, q repository.DBExecutor, ownerID int64, limit, offset int) ([]domain.LedgerEntry, int64, error) {
	args := m.Called(ctx, q, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) EventExists(ctx context.Context, q repository.DBExecutor, eventID uuid.UUID, ownerID int64) (bool, error) {
	args := m.Called(ctx, q, eventID, ownerID)
	return args.Bool(0), args.Error(1)
}

// MockCampaignRepository is a mock implementation of repository.CampaignRepository.
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) CreateCampaign(ctx context.Context, q repository.DBExecutor, campaign *domain.Campaign) error {
	args := m.Called(ctx, q, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetCampaignByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Campaign, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) DecrementRemainingUnits(ctx context.Context, q repository.DBExecutor, id int64) (int, bool, error) {
	args := m.Called(ctx, q, id)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockCampaignRepository) UpdateCampaignStatus(ctx context.Context, q repository.DBExecutor, id int64, status domain.CampaignStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

func (m *MockCampaignRepository) DeleteCampaign(ctx context.Context, q repository.DBExecutor, id int64) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

// MockSubmissionRepository is a mock implementation of repository.SubmissionRepository.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) CreateSubmission(ctx context.Context, q repository.DBExecutor, sub *domain.Submission) error {
	args := m.Called(ctx, q, sub)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetSubmissionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Submission, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetSubmissionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Submission, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) MarkSubmissionResolved(ctx context.Context, q repository.DBExecutor, id int64, status domain.SubmissionStatus, reviewedAt time.Time) error {
	args := m.Called(ctx, q, id, status, reviewedAt)
	return args.Error(0)
}

func (m *MockSubmissionRepository) ListExpiredFreeText(ctx context.Context, q repository.DBExecutor, now time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, q, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSubmissionRepository) RecordTaskStart(ctx context.Context, q repository.DBExecutor, campaignID, workerID int64, startedAt time.Time) error {
	args := m.Called(ctx, q, campaignID, workerID, startedAt)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetTaskStart(ctx context.Context, q repository.DBExecutor, campaignID, workerID int64) (*time.Time, error) {
	args := m.Called(ctx, q, campaignID, workerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// MockInvestmentRepository is a mock implementation of repository.InvestmentRepository.
type MockInvestmentRepository struct {
	mock.Mock
}

func (m *MockInvestmentRepository) GetPlanByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPlan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentPlan), args.Error(1)
}

func (m *MockInvestmentRepository) ListActivePlans(ctx context.Context, q repository.DBExecutor) ([]domain.InvestmentPlan, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvestmentPlan), args.Error(1)
}

func (m *MockInvestmentRepository) CreatePosition(ctx context.Context, q repository.DBExecutor, pos *domain.InvestmentPosition) error {
	args := m.Called(ctx, q, pos)
	return args.Error(0)
}

func (m *MockInvestmentRepository) GetPositionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPosition, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentPosition), args.Error(1)
}

func (m *MockInvestmentRepository) GetPositionByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.InvestmentPosition, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentPosition), args.Error(1)
}

func (m *MockInvestmentRepository) SavePositionProgress(ctx context.Context, q repository.DBExecutor, pos *domain.InvestmentPosition) error {
	args := m.Called(ctx, q, pos)
	return args.Error(0)
}

// MockReferralRepository is a mock implementation of repository.ReferralRepository.
type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) GetTierByLevel(ctx context.Context, q repository.DBExecutor, level int, trigger domain.TriggerType) (*domain.ReferralTier, error) {
	args := m.Called(ctx, q, level, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReferralTier), args.Error(1)
}

func (m *MockReferralRepository) ListActiveTiers(ctx context.Context, q repository.DBExecutor, trigger domain.TriggerType) ([]domain.ReferralTier, error) {
	args := m.Called(ctx, q, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferralTier), args.Error(1)
}

// MockCascader is a mock implementation of Cascader.
type MockCascader struct {
	mock.Mock
}

func (m *MockCascader) OnQualifyingEvent(ctx context.Context, userID int64, trigger domain.TriggerType, baseAmount decimal.Decimal, eventID uuid.UUID) {
	m.Called(ctx, userID, trigger, baseAmount, eventID)
}

// notifyRecorder captures balance-change notifications for assertions.
type notifyRecorder struct {
	mu     sync.Mutex
	owners []int64
}

func (n *notifyRecorder) BalancesChanged(ownerID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners = append(n.owners, ownerID)
}

func (n *notifyRecorder) Notified() []int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int64, len(n.owners))
	copy(out, n.owners)
	return out
}
