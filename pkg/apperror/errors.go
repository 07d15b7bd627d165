package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Payout Business Logic (PAYOUT) ----

func ErrInvalidAmount() *AppError {
	return New("PAYOUT_001", "Amount must be greater than 0", http.StatusBadRequest)
}

func ErrInvalidBeneficiary() *AppError {
	return New("PAYOUT_002", "Invalid beneficiary", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("PAYOUT_003", "Insufficient balance", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAYOUT_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyFinalized() *AppError {
	return New("PAYOUT_005", "Payout already finalized", http.StatusBadRequest)
}

func ErrInvalidOutcome() *AppError {
	return New("PAYOUT_006", "Outcome must be success or failure", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a storage or infrastructure error as SYS_001.
// The wrapped cause is logged, never returned to the client.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ErrRateLimitExceeded returns a 429 for requests over the endpoint's limit.
func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}
