// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"taskpay-engine/internal/domain"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet inserts a new wallet using the provided DBExecutor.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByOwner retrieves a wallet by its owner id without locking.
	GetWalletByOwner(ctx context.Context, q DBExecutor, ownerID int64) (*domain.Wallet, error)
	// GetWalletByOwnerForUpdate retrieves the wallet row under an exclusive
	// row lock (SELECT ... FOR UPDATE). The lock is held until the enclosing
	// transaction commits or rolls back, serializing all mutations against
	// one owner while unrelated owners proceed in parallel.
	GetWalletByOwnerForUpdate(ctx context.Context, q DBExecutor, ownerID int64) (*domain.Wallet, error)
	// SaveBalances writes every named balance column plus the aggregate.
	SaveBalances(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
}
