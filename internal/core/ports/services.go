package ports

import (
	"context"
	"io"
	"time"

	"wallet-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
}

// IdempotencyCache is the Redis-layer idempotency lookup (fast path).
// Misses and errors fall through to the authoritative store.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached payout JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// PayoutService is the payout state machine: idempotent creation and
// at-most-once settlement.
type PayoutService interface {
	// Create debits the wallet and inserts a PENDING payout as one atomic
	// unit. The returned bool is true when the request resolved to an
	// existing payout via its idempotency key (no new debit occurred).
	Create(ctx context.Context, req CreatePayoutRequest) (*domain.Payout, bool, error)
	// Settle transitions a PENDING payout to SUCCESS (credit beneficiary)
	// or FAILED (credit back the owner's wallet) as one atomic unit.
	Settle(ctx context.Context, ownerID, payoutID uuid.UUID, outcome domain.PayoutOutcome) (*domain.Payout, error)
}

// CreatePayoutRequest holds validated input for payout creation.
type CreatePayoutRequest struct {
	OwnerID        uuid.UUID
	BeneficiaryID  uuid.UUID
	Amount         decimal.Decimal
	IdempotencyKey string // empty disables dedup
}

// WalletService manages the owner's wallet surface.
type WalletService interface {
	Seed(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	Get(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
}

// BeneficiaryService manages beneficiary records.
type BeneficiaryService interface {
	Create(ctx context.Context, req CreateBeneficiaryRequest) (*domain.Beneficiary, error)
	List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]domain.Beneficiary, int64, error)
	Update(ctx context.Context, req UpdateBeneficiaryRequest) (*domain.Beneficiary, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// CreateBeneficiaryRequest holds validated input for beneficiary creation.
type CreateBeneficiaryRequest struct {
	OwnerID       uuid.UUID
	Name          string
	AccountNumber string
	BankName      string
	IFSC          *string
}

// UpdateBeneficiaryRequest holds the mutable beneficiary fields.
// Nil pointers leave the field unchanged. Balance is deliberately absent:
// it moves only through settlement.
type UpdateBeneficiaryRequest struct {
	OwnerID       uuid.UUID
	ID            uuid.UUID
	Name          *string
	AccountNumber *string
	BankName      *string
}

// QueryService is the read-only payout history surface.
type QueryService interface {
	ListPayouts(ctx context.Context, params PayoutListParams) ([]domain.Payout, int64, error)
	GetPayout(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payout, error)
	ExportCSV(ctx context.Context, ownerID uuid.UUID, w io.Writer) error
	GetStats(ctx context.Context, ownerID uuid.UUID) (*PayoutStats, error)
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}
