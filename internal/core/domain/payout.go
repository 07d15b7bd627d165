package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus represents the lifecycle state of a payout.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "PENDING"
	PayoutStatusSuccess PayoutStatus = "SUCCESS"
	PayoutStatusFailed  PayoutStatus = "FAILED"
)

// Valid reports whether the status is a known lifecycle state.
func (s PayoutStatus) Valid() bool {
	return s == PayoutStatusPending || s == PayoutStatusSuccess || s == PayoutStatusFailed
}

// PayoutOutcome is the settlement decision supplied by the caller
// (or a test harness) rather than a real payment network.
type PayoutOutcome string

const (
	OutcomeSuccess PayoutOutcome = "success"
	OutcomeFailure PayoutOutcome = "failure"
)

// Valid reports whether the outcome is one of the two settlement decisions.
func (o PayoutOutcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// ErrDuplicateIdempotencyKey is returned by the payout store when an insert
// violates the (owner_id, idempotency_key) unique constraint. The creation
// flow resolves it by re-reading the winner's row.
var ErrDuplicateIdempotencyKey = errors.New("payout with this idempotency key already exists")

// ErrPayoutFinalized is returned by the payout store when a status update
// finds the row already out of PENDING.
var ErrPayoutFinalized = errors.New("payout already finalized")

// Payout is a requested transfer of funds from a wallet to a beneficiary.
// Created in PENDING by the state machine; transitions exactly once to
// SUCCESS or FAILED and is immutable thereafter.
type Payout struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	BeneficiaryID  uuid.UUID       `json:"beneficiary_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PayoutStatus    `json:"status"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
}

// IsFinalized returns true if the payout is in a terminal state.
func (p *Payout) IsFinalized() bool {
	return p.Status == PayoutStatusSuccess || p.Status == PayoutStatusFailed
}

// IdempotencyLookupKey builds the cache key for an owner + client key pair.
func IdempotencyLookupKey(ownerID uuid.UUID, key string) string {
	return ownerID.String() + ":" + key
}
