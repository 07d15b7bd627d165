package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"

	"github.com/google/uuid"
)

// exportPageSize is the batch size for streaming CSV export.
const exportPageSize = 500

// queryService implements ports.QueryService.
type queryService struct {
	payoutRepo ports.PayoutRepository
}

// NewQueryService creates a new query service.
func NewQueryService(payoutRepo ports.PayoutRepository) ports.QueryService {
	return &queryService{payoutRepo: payoutRepo}
}

// ListPayouts returns a paginated, filtered list of the owner's payouts.
func (s *queryService) ListPayouts(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Status != nil && !params.Status.Valid() {
		return nil, 0, apperror.Validation("invalid status: must be PENDING, SUCCESS, or FAILED")
	}

	payouts, total, err := s.payoutRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return payouts, total, nil
}

// GetPayout returns a single payout, scoped to its owner. A payout that
// exists but belongs to someone else is reported as not found.
func (s *queryService) GetPayout(ctx context.Context, ownerID, id uuid.UUID) (*domain.Payout, error) {
	payout, err := s.payoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if payout == nil || payout.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("Payout")
	}
	return payout, nil
}

// ExportCSV streams the owner's full payout history as CSV, paging through
// the store so the whole history never sits in memory at once.
func (s *queryService) ExportCSV(ctx context.Context, ownerID uuid.UUID, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "beneficiary_id", "amount", "currency", "status", "idempotency_key", "created_at", "settled_at"}
	if err := cw.Write(header); err != nil {
		return apperror.InternalError(fmt.Errorf("write csv header: %w", err))
	}

	params := ports.PayoutListParams{
		OwnerID: ownerID,
		Page:    1,
		Limit:   exportPageSize,
	}
	for {
		payouts, _, err := s.payoutRepo.List(ctx, params)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("list payouts for export: %w", err))
		}
		for i := range payouts {
			if err := cw.Write(csvRecord(&payouts[i])); err != nil {
				return apperror.InternalError(fmt.Errorf("write csv row: %w", err))
			}
		}
		if len(payouts) < exportPageSize {
			break
		}
		params.Page++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperror.InternalError(fmt.Errorf("flush csv: %w", err))
	}
	return nil
}

func csvRecord(p *domain.Payout) []string {
	key := ""
	if p.IdempotencyKey != nil {
		key = *p.IdempotencyKey
	}
	settledAt := ""
	if p.SettledAt != nil {
		settledAt = p.SettledAt.UTC().Format(time.RFC3339)
	}
	return []string{
		p.ID.String(),
		p.BeneficiaryID.String(),
		p.Amount.String(),
		p.Currency,
		string(p.Status),
		key,
		p.CreatedAt.UTC().Format(time.RFC3339),
		settledAt,
	}
}

// GetStats returns aggregated payout statistics for the owner.
func (s *queryService) GetStats(ctx context.Context, ownerID uuid.UUID) (*ports.PayoutStats, error) {
	stats, err := s.payoutRepo.GetStats(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return stats, nil
}
