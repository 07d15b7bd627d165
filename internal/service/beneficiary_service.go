package service

import (
	"context"
	"fmt"
	"time"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BeneficiaryServiceImpl implements ports.BeneficiaryService.
type BeneficiaryServiceImpl struct {
	benefRepo ports.BeneficiaryRepository
	log       zerolog.Logger
}

// NewBeneficiaryService creates a new BeneficiaryServiceImpl.
func NewBeneficiaryService(benefRepo ports.BeneficiaryRepository, log zerolog.Logger) *BeneficiaryServiceImpl {
	return &BeneficiaryServiceImpl{benefRepo: benefRepo, log: log}
}

// Create registers a new beneficiary for the owner with a zero balance.
func (s *BeneficiaryServiceImpl) Create(ctx context.Context, req ports.CreateBeneficiaryRequest) (*domain.Beneficiary, error) {
	now := time.Now().UTC()
	b := &domain.Beneficiary{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		IFSC:          req.IFSC,
		Balance:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.benefRepo.Create(ctx, b); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create beneficiary: %w", err))
	}

	s.log.Info().
		Str("beneficiary_id", b.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Msg("beneficiary created")

	return b, nil
}

// List returns the owner's beneficiaries with pagination.
func (s *BeneficiaryServiceImpl) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]domain.Beneficiary, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := s.benefRepo.List(ctx, ownerID, page, limit)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list beneficiaries: %w", err))
	}
	return items, total, nil
}

// Update modifies the mutable beneficiary fields. The balance is not one of
// them: it moves only through payout settlement.
func (s *BeneficiaryServiceImpl) Update(ctx context.Context, req ports.UpdateBeneficiaryRequest) (*domain.Beneficiary, error) {
	b, err := s.benefRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get beneficiary: %w", err))
	}
	if b == nil || !b.OwnedBy(req.OwnerID) {
		return nil, apperror.ErrNotFound("Beneficiary")
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.AccountNumber != nil {
		b.AccountNumber = *req.AccountNumber
	}
	if req.BankName != nil {
		b.BankName = *req.BankName
	}
	b.UpdatedAt = time.Now().UTC()

	if err := s.benefRepo.Update(ctx, b); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update beneficiary: %w", err))
	}
	return b, nil
}

// Delete removes the owner's beneficiary.
func (s *BeneficiaryServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.benefRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("delete beneficiary: %w", err))
	}
	if !deleted {
		return apperror.ErrNotFound("Beneficiary")
	}

	s.log.Info().
		Str("beneficiary_id", id.String()).
		Str("owner_id", ownerID.String()).
		Msg("beneficiary deleted")

	return nil
}
