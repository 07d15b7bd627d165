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

// BeneficiaryRepo implements ports.BeneficiaryRepository.
type BeneficiaryRepo struct {
	pool Pool
}

// NewBeneficiaryRepo creates a new BeneficiaryRepo.
func NewBeneficiaryRepo(pool Pool) *BeneficiaryRepo {
	return &BeneficiaryRepo{pool: pool}
}

// Create inserts a new beneficiary.
func (r *BeneficiaryRepo) Create(ctx context.Context, b *domain.Beneficiary) error {
	query := `INSERT INTO beneficiaries (id, owner_id, name, account_number, bank_name, ifsc, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.OwnerID, b.Name, b.AccountNumber, b.BankName,
		b.IFSC, b.Balance, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

// GetByID fetches a beneficiary by its UUID.
func (r *BeneficiaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Beneficiary, error) {
	query := `SELECT id, owner_id, name, account_number, bank_name, ifsc, balance, created_at, updated_at
		FROM beneficiaries WHERE id = $1`

	b := &domain.Beneficiary{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.AccountNumber, &b.BankName,
		&b.IFSC, &b.Balance, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get beneficiary by id: %w", err)
	}
	return b, nil
}

// List fetches the owner's beneficiaries with pagination, newest first.
func (r *BeneficiaryRepo) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]domain.Beneficiary, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM beneficiaries WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count beneficiaries: %w", err)
	}

	offset := (page - 1) * limit
	query := `SELECT id, owner_id, name, account_number, bank_name, ifsc, balance, created_at, updated_at
		FROM beneficiaries WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var items []domain.Beneficiary
	for rows.Next() {
		b := domain.Beneficiary{}
		err := rows.Scan(
			&b.ID, &b.OwnerID, &b.Name, &b.AccountNumber, &b.BankName,
			&b.IFSC, &b.Balance, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan beneficiary row: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate beneficiary rows: %w", err)
	}
	return items, total, nil
}

// Update persists the mutable beneficiary fields, owner-scoped.
func (r *BeneficiaryRepo) Update(ctx context.Context, b *domain.Beneficiary) error {
	query := `UPDATE beneficiaries SET name = $1, account_number = $2, bank_name = $3, updated_at = NOW()
		WHERE id = $4 AND owner_id = $5`

	tag, err := r.pool.Exec(ctx, query, b.Name, b.AccountNumber, b.BankName, b.ID, b.OwnerID)
	if err != nil {
		return fmt.Errorf("update beneficiary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("beneficiary not found: %s", b.ID)
	}
	return nil
}

// Delete removes a beneficiary, owner-scoped. Returns false when no row
// matched (missing or owned by someone else).
func (r *BeneficiaryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM beneficiaries WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete beneficiary: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementBalance credits a beneficiary inside tx (settlement success path).
func (r *BeneficiaryRepo) IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE beneficiaries SET balance = balance + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("increment beneficiary balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("beneficiary not found: %s", id)
	}
	return nil
}
