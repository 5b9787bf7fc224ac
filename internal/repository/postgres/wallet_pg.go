// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskpay-engine/internal/domain"
	"taskpay-engine/internal/repository"
	"taskpay-engine/internal/util"

	"github.com/jmoiron/sqlx"
)

const walletColumns = `id, owner_id, main_balance, deposit_balance, game_balance, earning_balance,
	investment_balance, referral_balance, commission_balance, bonus_balance, aggregate_balance,
	created_at, updated_at`

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new wallet using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (owner_id, main_balance, deposit_balance, game_balance, earning_balance,
                investment_balance, referral_balance, commission_balance, bonus_balance, aggregate_balance,
                created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.OwnerID,
		wallet.Main,
		wallet.Deposit,
		wallet.Game,
		wallet.Earning,
		wallet.Investment,
		wallet.Referral,
		wallet.Commission,
		wallet.Bonus,
		wallet.Aggregate,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet for owner %d: %w", wallet.OwnerID, err)
	}
	return nil
}

// GetWalletByOwner retrieves a wallet by owner id without locking.
func (r *WalletRepository) GetWalletByOwner(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1`
	err := q.GetContext(ctx, &wallet, query, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet for owner %d: %w", ownerID, err)
	}
	return &wallet, nil
}

// GetWalletByOwnerForUpdate retrieves the wallet row under an exclusive row
// lock. Must be called inside a transaction; the lock serializes every
// mutation against this owner until commit or rollback.
func (r *WalletRepository) GetWalletByOwnerForUpdate(ctx context.Context, q repository.DBExecutor, ownerID int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &wallet, query, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet for owner %d: %w", ownerID, err)
	}
	return &wallet, nil
}

// SaveBalances writes every named balance column plus the aggregate.
func (r *WalletRepository) SaveBalances(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `UPDATE wallets SET
                main_balance = $1, deposit_balance = $2, game_balance = $3, earning_balance = $4,
                investment_balance = $5, referral_balance = $6, commission_balance = $7, bonus_balance = $8,
                aggregate_balance = $9, updated_at = $10
              WHERE owner_id = $11`
	result, err := q.ExecContext(ctx, query,
		wallet.Main,
		wallet.Deposit,
		wallet.Game,
		wallet.Earning,
		wallet.Investment,
		wallet.Referral,
		wallet.Commission,
		wallet.Bonus,
		wallet.Aggregate,
		time.Now().UTC(),
		wallet.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to save balances for owner %d: %w", wallet.OwnerID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected saving balances for owner %d: %w", wallet.OwnerID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected saving balances for owner %d: %w", wallet.OwnerID, util.ErrWalletNotFound)
	}
	return nil
}
