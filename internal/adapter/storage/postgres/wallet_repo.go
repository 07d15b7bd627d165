package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Seed lazily creates the owner's wallet or credits an existing one.
// The upsert keeps the operation race-safe: concurrent seeds for the same
// owner both land on the single row guarded by the owner_id unique index.
func (r *WalletRepo) Seed(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, currency string) (*domain.Wallet, error) {
	query := `INSERT INTO wallets (id, owner_id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (owner_id) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING id, owner_id, balance, currency, created_at, updated_at`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, uuid.New(), ownerID, amount, currency).Scan(
		&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("seed wallet: %w", err)
	}
	return w, nil
}

// GetByOwnerID fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, balance, currency, created_at, updated_at
		FROM wallets WHERE owner_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&w.ID, &w.OwnerID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by owner id: %w", err)
	}
	return w, nil
}

// DecrementIfSufficient atomically debits the owner's wallet inside tx.
// The balance guard in the WHERE clause means a missing wallet and an
// insufficient balance both report false, with no row modified.
func (r *WalletRepo) DecrementIfSufficient(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	query := `UPDATE wallets SET balance = balance - $1, updated_at = NOW()
		WHERE owner_id = $2 AND balance >= $1`

	tag, err := tx.Exec(ctx, query, amount, ownerID)
	if err != nil {
		return false, fmt.Errorf("decrement wallet balance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Increment credits the owner's wallet inside tx (settlement reversal).
func (r *WalletRepo) Increment(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE owner_id = $2`

	tag, err := tx.Exec(ctx, query, amount, ownerID)
	if err != nil {
		return fmt.Errorf("increment wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found for owner: %s", ownerID)
	}
	return nil
}
