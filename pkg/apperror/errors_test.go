package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New("PAYOUT_001", "Amount must be greater than 0", http.StatusBadRequest)
	assert.Equal(t, "[PAYOUT_001] Amount must be greater than 0", e.Error())
}

func TestAppError_ErrorWithWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, cause)
	assert.Contains(t, e.Error(), "SYS_001")
	assert.Contains(t, e.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	e := InternalError(fmt.Errorf("begin tx: %w", cause))
	assert.True(t, errors.Is(e, cause))
}

func TestErrorConstructors_HTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"invalid amount", ErrInvalidAmount(), "PAYOUT_001", http.StatusBadRequest},
		{"invalid beneficiary", ErrInvalidBeneficiary(), "PAYOUT_002", http.StatusBadRequest},
		{"insufficient balance", ErrInsufficientBalance(), "PAYOUT_003", http.StatusBadRequest},
		{"not found", ErrNotFound("payout"), "PAYOUT_004", http.StatusNotFound},
		{"already finalized", ErrAlreadyFinalized(), "PAYOUT_005", http.StatusBadRequest},
		{"invalid outcome", ErrInvalidOutcome(), "PAYOUT_006", http.StatusBadRequest},
		{"invalid credentials", ErrInvalidCredentials(), "AUTH_001", http.StatusUnauthorized},
		{"username exists", ErrUsernameExists(), "AUTH_002", http.StatusConflict},
		{"invalid token", ErrInvalidToken(), "AUTH_003", http.StatusUnauthorized},
		{"internal", InternalError(errors.New("x")), "SYS_001", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestErrNotFound_Message(t *testing.T) {
	assert.Equal(t, "Payout not found", ErrNotFound("Payout").Message)
	assert.Equal(t, "Wallet not found", ErrNotFound("Wallet").Message)
}
