package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Beneficiary is the receiving account of a payout, owned exclusively by the
// user who registered it. Its balance is credited only by the settlement
// success path.
type Beneficiary struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	BankName      string          `json:"bank_name"`
	IFSC          *string         `json:"ifsc,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OwnedBy reports whether the beneficiary belongs to the given user.
func (b *Beneficiary) OwnedBy(ownerID uuid.UUID) bool {
	return b.OwnerID == ownerID
}
