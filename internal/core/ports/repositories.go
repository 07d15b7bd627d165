package ports

import (
	"context"
	"time"

	"wallet-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletRepository defines persistence for wallets and the atomic balance
// primitives. Methods accepting pgx.Tx must run inside the same transaction
// as the payout row write they pair with.
type WalletRepository interface {
	// Seed lazily creates the owner's wallet or credits an existing one.
	Seed(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, currency string) (*domain.Wallet, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// DecrementIfSufficient atomically debits the owner's wallet.
	// Returns false when the wallet is missing or the balance is too low.
	DecrementIfSufficient(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) (bool, error)
	// Increment credits the owner's wallet (settlement failure reversal).
	Increment(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) error
}

// BeneficiaryRepository defines persistence operations for beneficiaries.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *domain.Beneficiary) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Beneficiary, error)
	List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]domain.Beneficiary, int64, error)
	Update(ctx context.Context, b *domain.Beneficiary) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	// IncrementBalance credits a beneficiary (settlement success path).
	IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error
}

// PayoutRepository defines persistence operations for payouts.
type PayoutRepository interface {
	// Create inserts a PENDING payout inside tx. Returns
	// domain.ErrDuplicateIdempotencyKey when the (owner_id, idempotency_key)
	// unique constraint is violated by a concurrent insert.
	Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error)
	// GetByIDForUpdate locks the payout row for the settlement transition.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error)
	// GetByOwnerAndKey is the authoritative idempotency lookup.
	GetByOwnerAndKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Payout, error)
	// UpdateStatus transitions a PENDING payout to a terminal status.
	// Returns domain.ErrPayoutFinalized if the row is no longer PENDING.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, settledAt time.Time) error
	List(ctx context.Context, params PayoutListParams) ([]domain.Payout, int64, error)
	GetStats(ctx context.Context, ownerID uuid.UUID) (*PayoutStats, error)
}

// PayoutListParams holds filter + pagination for listing payouts.
type PayoutListParams struct {
	OwnerID uuid.UUID
	Status  *domain.PayoutStatus
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

// PayoutStats holds aggregated per-owner payout statistics.
type PayoutStats struct {
	TotalPayouts int64
	Pending      int64
	Successful   int64
	Failed       int64
	TotalPaidOut decimal.Decimal // Sum of SUCCESS amounts
	TotalPending decimal.Decimal // Sum of PENDING amounts
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
