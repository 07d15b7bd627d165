package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// PayoutRepo implements ports.PayoutRepository.
type PayoutRepo struct {
	pool Pool
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(pool Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// Create inserts a new payout within a database transaction.
// A partial unique index on (owner_id, idempotency_key) enforces the dedup
// invariant; a concurrent duplicate surfaces as ErrDuplicateIdempotencyKey so
// the caller can roll back its debit and adopt the winner's row.
func (r *PayoutRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error {
	query := `INSERT INTO payouts (id, owner_id, beneficiary_id, amount, currency, status, idempotency_key, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		p.ID, p.OwnerID, p.BeneficiaryID, p.Amount, p.Currency,
		p.Status, p.IdempotencyKey, p.CreatedAt, p.SettledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

// GetByID fetches a payout by UUID.
func (r *PayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT id, owner_id, beneficiary_id, amount, currency, status, idempotency_key, created_at, settled_at
		FROM payouts WHERE id = $1`

	return scanPayout(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a payout with pessimistic locking.
// This MUST be called within a transaction.
func (r *PayoutRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error) {
	query := `SELECT id, owner_id, beneficiary_id, amount, currency, status, idempotency_key, created_at, settled_at
		FROM payouts WHERE id = $1 FOR UPDATE`

	return scanPayout(tx.QueryRow(ctx, query, id))
}

// GetByOwnerAndKey is the authoritative idempotency lookup.
func (r *PayoutRepo) GetByOwnerAndKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Payout, error) {
	query := `SELECT id, owner_id, beneficiary_id, amount, currency, status, idempotency_key, created_at, settled_at
		FROM payouts WHERE owner_id = $1 AND idempotency_key = $2`

	return scanPayout(r.pool.QueryRow(ctx, query, ownerID, key))
}

// UpdateStatus transitions a PENDING payout to a terminal status within a
// database transaction. The status guard makes the transition a compare-and-
// swap: zero rows affected means another caller finalized the payout first.
func (r *PayoutRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, settledAt time.Time) error {
	query := `UPDATE payouts SET status = $1, settled_at = $2 WHERE id = $3 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, status, settledAt, id)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPayoutFinalized
	}
	return nil
}

// List fetches payouts with filtering and pagination, newest first.
func (r *PayoutRepo) List(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
	args = append(args, params.OwnerID)
	argIdx++

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payouts %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.Limit
	dataQuery := fmt.Sprintf(`SELECT id, owner_id, beneficiary_id, amount, currency, status, idempotency_key, created_at, settled_at
		FROM payouts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		p := domain.Payout{}
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.BeneficiaryID, &p.Amount, &p.Currency,
			&p.Status, &p.IdempotencyKey, &p.CreatedAt, &p.SettledAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payout row: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payout rows: %w", err)
	}
	return payouts, total, nil
}

// GetStats retrieves aggregated payout statistics for an owner.
func (r *PayoutRepo) GetStats(ctx context.Context, ownerID uuid.UUID) (*ports.PayoutStats, error) {
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
		COUNT(*) FILTER (WHERE status = 'SUCCESS') AS successful,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COALESCE(SUM(amount) FILTER (WHERE status = 'SUCCESS'), 0) AS total_paid_out,
		COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0) AS total_pending
		FROM payouts WHERE owner_id = $1`

	stats := &ports.PayoutStats{}
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&stats.TotalPayouts, &stats.Pending, &stats.Successful, &stats.Failed,
		&stats.TotalPaidOut, &stats.TotalPending,
	)
	if err != nil {
		return nil, fmt.Errorf("get payout stats: %w", err)
	}
	return stats, nil
}

// scanPayout is a helper to scan a single row into a Payout.
func scanPayout(row pgx.Row) (*domain.Payout, error) {
	p := &domain.Payout{}
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.BeneficiaryID, &p.Amount, &p.Currency,
		&p.Status, &p.IdempotencyKey, &p.CreatedAt, &p.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payout: %w", err)
	}
	return p, nil
}
