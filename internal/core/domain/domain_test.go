package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPayout_IsFinalized(t *testing.T) {
	p := &Payout{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		BeneficiaryID: uuid.New(),
		Amount:        decimal.NewFromInt(50),
		Currency:      "INR",
		Status:        PayoutStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	assert.False(t, p.IsFinalized())

	p.Status = PayoutStatusSuccess
	assert.True(t, p.IsFinalized())

	p.Status = PayoutStatusFailed
	assert.True(t, p.IsFinalized())
}

func TestPayoutOutcome_Valid(t *testing.T) {
	assert.True(t, OutcomeSuccess.Valid())
	assert.True(t, OutcomeFailure.Valid())
	assert.False(t, PayoutOutcome("").Valid())
	assert.False(t, PayoutOutcome("SUCCESS").Valid())
}

func TestBeneficiary_OwnedBy(t *testing.T) {
	owner := uuid.New()
	b := &Beneficiary{ID: uuid.New(), OwnerID: owner}

	assert.True(t, b.OwnedBy(owner))
	assert.False(t, b.OwnedBy(uuid.New()))
}

func TestIdempotencyLookupKey(t *testing.T) {
	owner := uuid.New()
	key := IdempotencyLookupKey(owner, "req-123")
	assert.Equal(t, owner.String()+":req-123", key)
}
