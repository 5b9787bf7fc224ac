// internal/service/wallet_service_test.go
package service

import (
	"context"
	"testing"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDeposit(t *testing.T) {
	ownerID := int64(1)
	amount := decimal.NewFromInt(100)

	t.Run("SuccessfulDepositFiresCascade", func(t *testing.T) {
		ctx := context.Background()
		mockUserRepo := new(MockUserRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockDBBeginner := new(MockDBBeginner)
		mockDBExecutor := new(MockDBExecutor)
		mockTxController := new(MockTxController)
		mockCascader := new(MockCascader)
		notifier := &notifyRecorder{}

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(mockDBBeginner, mockDBExecutor, mockUserRepo, mockWalletRepo, mockLedgerRepo,
			mockCascader, notifier, testLogger(), begin, commit, rollback)

		wallet := domain.NewWallet(ownerID)

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()
		mockWalletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, ownerID).Return(wallet, nil).Once()
		mockLedgerRepo.On("Append", ctx, mock.Anything, mock.AnythingOfType("*domain.LedgerEntry")).Return(nil).Once()
		mockWalletRepo.On("SaveBalances", ctx, mock.Anything, wallet).Return(nil).Once()
		mockCascader.On("OnQualifyingEvent", ctx, ownerID, domain.TriggerOnDeposit, amount, mock.AnythingOfType("uuid.UUID")).Once()

		result, err := service.Deposit(ctx, ownerID, amount)

		assert.NoError(t, err)
		assert.True(t, amount.Equal(result.Deposit))
		assert.True(t, amount.Equal(result.Aggregate))
		assert.Equal(t, []int64{ownerID}, notifier.Notified())

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo, mockCascader)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		mockCascader := new(MockCascader)

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(new(MockDBBeginner), new(MockDBExecutor), new(MockUserRepository), mockWalletRepo,
			new(MockLedgerRepository), mockCascader, NopNotifier(), testLogger(), begin, commit, rollback)

		_, err := service.Deposit(ctx, ownerID, decimal.NewFromInt(-5))

		assert.ErrorIs(t, err, util.ErrNonPositiveAmount)
		mockWalletRepo.AssertNotCalled(t, "GetWalletByOwnerForUpdate", mock.Anything, mock.Anything, mock.Anything)
		mockCascader.AssertNotCalled(t, "OnQualifyingEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		mockCascader := new(MockCascader)

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(new(MockDBBeginner), new(MockDBExecutor), new(MockUserRepository), mockWalletRepo,
			new(MockLedgerRepository), mockCascader, NopNotifier(), testLogger(), begin, commit, rollback)

		mockWalletRepo.On("GetWalletByOwnerForUpdate", ctx, mock.Anything, ownerID).Return(nil, util.ErrWalletNotFound).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, err := service.Deposit(ctx, ownerID, amount)

		assert.ErrorIs(t, err, util.ErrWalletNotFound)
		mockTxController.AssertNotCalled(t, "Commit")
		mockCascader.AssertNotCalled(t, "OnQualifyingEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo)
	})
}

func TestCreateUserAndWallet(t *testing.T) {
	t.Run("SuccessWithReferrer", func(t *testing.T) {
		ctx := context.Background()
		mockUserRepo := new(MockUserRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(new(MockDBBeginner), new(MockDBExecutor), mockUserRepo, mockWalletRepo,
			new(MockLedgerRepository), nil, NopNotifier(), testLogger(), begin, commit, rollback)

		referrerID := int64(9)
		referrer := &domain.User{ID: referrerID, Username: "upline"}

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()
		mockUserRepo.On("GetUserByUsername", ctx, mock.Anything, "worker").Return(nil, util.ErrNotFound).Once()
		mockUserRepo.On("GetUserByID", ctx, mock.Anything, referrerID).Return(referrer, nil).Once()
		mockUserRepo.On("CreateUser", ctx, mock.Anything, mock.AnythingOfType("*domain.User")).Run(func(args mock.Arguments) {
			args.Get(2).(*domain.User).ID = 15
		}).Return(nil).Once()
		mockWalletRepo.On("CreateWallet", ctx, mock.Anything, mock.AnythingOfType("*domain.Wallet")).Return(nil).Once()

		user, wallet, err := service.CreateUserAndWallet(ctx, "worker", &referrerID)

		assert.NoError(t, err)
		assert.Equal(t, int64(15), user.ID)
		assert.Equal(t, &referrerID, user.ReferrerID)
		assert.Equal(t, int64(15), wallet.OwnerID)
		assert.True(t, wallet.Aggregate.IsZero())

		mock.AssertExpectationsForObjects(t, mockTxController, mockUserRepo, mockWalletRepo)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		ctx := context.Background()
		mockUserRepo := new(MockUserRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(new(MockDBBeginner), new(MockDBExecutor), mockUserRepo, mockWalletRepo,
			new(MockLedgerRepository), nil, NopNotifier(), testLogger(), begin, commit, rollback)

		existing := &domain.User{ID: 2, Username: "worker"}
		mockUserRepo.On("GetUserByUsername", ctx, mock.Anything, "worker").Return(existing, nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, _, err := service.CreateUserAndWallet(ctx, "worker", nil)

		assert.ErrorIs(t, err, util.ErrDuplicateEntry)
		mockWalletRepo.AssertNotCalled(t, "CreateWallet", mock.Anything, mock.Anything, mock.Anything)
		mockTxController.AssertNotCalled(t, "Commit")
	})

	t.Run("UnknownReferrer", func(t *testing.T) {
		ctx := context.Background()
		mockUserRepo := new(MockUserRepository)
		mockTxController := new(MockTxController)

		begin, commit, rollback := txFuncs(mockTxController)
		service := NewWalletService(new(MockDBBeginner), new(MockDBExecutor), mockUserRepo, new(MockWalletRepository),
			new(MockLedgerRepository), nil, NopNotifier(), testLogger(), begin, commit, rollback)

		referrerID := int64(404)
		mockUserRepo.On("GetUserByUsername", ctx, mock.Anything, "worker").Return(nil, util.ErrNotFound).Once()
		mockUserRepo.On("GetUserByID", ctx, mock.Anything, referrerID).Return(nil, util.ErrUserNotFound).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, _, err := service.CreateUserAndWallet(ctx, "worker", &referrerID)

		assert.ErrorIs(t, err, util.ErrUserNotFound)
		mockUserRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetLedger(t *testing.T) {
	t.Run("WalletMissing", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockDBExecutor := new(MockDBExecutor)

		begin, commit, rollback := txFuncs(new(MockTxController))
		service := NewWalletService(new(MockDBBeginner), mockDBExecutor, new(MockUserRepository), mockWalletRepo,
			mockLedgerRepo, nil, NopNotifier(), testLogger(), begin, commit, rollback)

		mockWalletRepo.On("GetWalletByOwner", ctx, mockDBExecutor, int64(77)).Return(nil, util.ErrWalletNotFound).Once()

		_, _, err := service.GetLedger(ctx, 77, 20, 0)

		assert.ErrorIs(t, err, util.ErrWalletNotFound)
		mockLedgerRepo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReturnsEntriesAndTotal", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockDBExecutor := new(MockDBExecutor)

		begin, commit, rollback := txFuncs(new(MockTxController))
		service := NewWalletService(new(MockDBBeginner), mockDBExecutor, new(MockUserRepository), mockWalletRepo,
			mockLedgerRepo, nil, NopNotifier(), testLogger(), begin, commit, rollback)

		wallet := domain.NewWallet(1)
		entries := []domain.LedgerEntry{
			{ID: 2, EventID: uuid.New(), OwnerID: 1, Kind: domain.EntryKindDepositCredit},
			{ID: 1, EventID: uuid.New(), OwnerID: 1, Kind: domain.EntryKindTransfer},
		}

		mockWalletRepo.On("GetWalletByOwner", ctx, mockDBExecutor, int64(1)).Return(wallet, nil).Once()
		mockLedgerRepo.On("ListByOwner", ctx, mockDBExecutor, int64(1), 20, 0).Return(entries, int64(2), nil).Once()

		got, total, err := service.GetLedger(ctx, 1, 20, 0)

		assert.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(2), total)

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockLedgerRepo)
	})
}
