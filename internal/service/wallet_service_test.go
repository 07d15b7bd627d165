package service

import (
	"context"
	"testing"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestWalletService_Seed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockWalletRepository(ctrl)
	svc := NewWalletService(repo, decimal.NewFromInt(1000), "INR", zerolog.Nop())

	ctx := context.Background()
	ownerID := uuid.New()

	repo.EXPECT().Seed(ctx, ownerID, decimal.NewFromInt(1000), "INR").Return(&domain.Wallet{
		OwnerID:  ownerID,
		Balance:  decimal.NewFromInt(2000),
		Currency: "INR",
	}, nil)

	wallet, err := svc.Seed(ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(2000)))
}

func TestWalletService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockWalletRepository(ctrl)
	svc := NewWalletService(repo, decimal.NewFromInt(1000), "INR", zerolog.Nop())

	ctx := context.Background()
	ownerID := uuid.New()

	repo.EXPECT().GetByOwnerID(ctx, ownerID).Return(nil, nil)

	_, err := svc.Get(ctx, ownerID)
	require.Error(t, err)
	assert.Equal(t, "PAYOUT_004", appErrCode(t, err))
}
