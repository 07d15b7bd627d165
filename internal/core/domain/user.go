package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder who owns a wallet and beneficiaries.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Argon2id, never exposed
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
