package service

import (
	"context"
	"fmt"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	seedAmount decimal.Decimal
	currency   string
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, seedAmount decimal.Decimal, currency string, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		seedAmount: seedAmount,
		currency:   currency,
		log:        log,
	}
}

// Seed tops up the owner's wallet with the configured seed amount, creating
// the wallet first if it does not exist yet.
func (s *WalletServiceImpl) Seed(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.Seed(ctx, ownerID, s.seedAmount, s.currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("seed wallet: %w", err))
	}

	s.log.Info().
		Str("owner_id", ownerID.String()).
		Str("balance", wallet.Balance.String()).
		Msg("wallet seeded")

	return wallet, nil
}

// Get returns the owner's wallet.
func (s *WalletServiceImpl) Get(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}
	return wallet, nil
}
