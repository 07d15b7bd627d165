package dto

import "github.com/shopspring/decimal"

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateBeneficiaryRequest is the request body for beneficiary creation.
type CreateBeneficiaryRequest struct {
	Name          string  `json:"name" binding:"required,min=1,max=100"`
	AccountNumber string  `json:"account_number" binding:"required,min=4,max=34,safe_id"`
	BankName      string  `json:"bank_name" binding:"required,min=1,max=100"`
	IFSC          *string `json:"ifsc,omitempty" binding:"omitempty,safe_id"`
}

// UpdateBeneficiaryRequest is the request body for beneficiary updates.
// The balance is not part of this surface: it moves only through settlement.
type UpdateBeneficiaryRequest struct {
	Name          *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	AccountNumber *string `json:"account_number,omitempty" binding:"omitempty,min=4,max=34,safe_id"`
	BankName      *string `json:"bank_name,omitempty" binding:"omitempty,min=1,max=100"`
}

// BeneficiaryResponse is the response body for a single beneficiary.
type BeneficiaryResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	AccountNumber string  `json:"account_number"`
	BankName      string  `json:"bank_name"`
	IFSC          *string `json:"ifsc,omitempty"`
	Balance       string  `json:"balance"`
	CreatedAt     string  `json:"created_at"`
}

// BeneficiaryListResponse wraps a paginated beneficiary list.
type BeneficiaryListResponse struct {
	Items      []BeneficiaryResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

// CreatePayoutRequest is the request body for payout creation. The
// idempotency key travels in the Idempotency-Key header, not the body.
type CreatePayoutRequest struct {
	BeneficiaryID string          `json:"beneficiary_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

// SettlePayoutRequest is the request body for payout settlement.
type SettlePayoutRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// PayoutResponse is the response body for a single payout.
type PayoutResponse struct {
	ID             string  `json:"id"`
	BeneficiaryID  string  `json:"beneficiary_id"`
	Amount         string  `json:"amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
	SettledAt      *string `json:"settled_at,omitempty"`
}

// CreatePayoutResponse wraps a created payout with the replay marker.
// Idempotent is true when the request matched an earlier payout by key.
type CreatePayoutResponse struct {
	Payout     PayoutResponse `json:"payout"`
	Idempotent bool           `json:"idempotent"`
}

// PayoutListResponse wraps a paginated payout list.
type PayoutListResponse struct {
	Items      []PayoutResponse `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// WalletResponse is the response body for wallet queries and seeding.
type WalletResponse struct {
	OwnerID  string `json:"owner_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// PayoutStatsResponse is the response for payout statistics.
type PayoutStatsResponse struct {
	TotalPayouts int64  `json:"total_payouts"`
	Pending      int64  `json:"pending"`
	Successful   int64  `json:"successful"`
	Failed       int64  `json:"failed"`
	TotalPaidOut string `json:"total_paid_out"`
	TotalPending string `json:"total_pending"`
}
