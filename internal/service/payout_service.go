package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// PayoutServiceImpl implements ports.PayoutService: idempotent payout
// creation and at-most-once settlement, each as one database transaction.
type PayoutServiceImpl struct {
	payoutRepo ports.PayoutRepository
	walletRepo ports.WalletRepository
	benefRepo  ports.BeneficiaryRepository
	resolver   *IdempotencyResolver
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPayoutService creates a new PayoutServiceImpl.
func NewPayoutService(
	payoutRepo ports.PayoutRepository,
	walletRepo ports.WalletRepository,
	benefRepo ports.BeneficiaryRepository,
	resolver *IdempotencyResolver,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		payoutRepo: payoutRepo,
		walletRepo: walletRepo,
		benefRepo:  benefRepo,
		resolver:   resolver,
		idempCache: idempCache,
		transactor: transactor,
		log:        log,
	}
}

// Create debits the wallet and inserts a PENDING payout as one atomic unit.
// The returned bool is true when the request resolved to an existing payout
// via its idempotency key: no new debit, no new record.
func (s *PayoutServiceImpl) Create(ctx context.Context, req ports.CreatePayoutRequest) (*domain.Payout, bool, error) {
	if !req.Amount.IsPositive() {
		return nil, false, apperror.ErrInvalidAmount()
	}

	// Ownership check reports the same error for a missing and a foreign
	// beneficiary so existence never leaks across users.
	beneficiary, err := s.benefRepo.GetByID(ctx, req.BeneficiaryID)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("get beneficiary: %w", err))
	}
	if beneficiary == nil || !beneficiary.OwnedBy(req.OwnerID) {
		return nil, false, apperror.ErrInvalidBeneficiary()
	}

	// Idempotency short-circuit (pure read, no side effect).
	existing, err := s.resolver.Resolve(ctx, req.OwnerID, req.IdempotencyKey)
	if err != nil {
		return nil, false, apperror.InternalError(err)
	}
	if existing != nil {
		return existing, true, nil
	}

	wallet, err := s.walletRepo.GetByOwnerID(ctx, req.OwnerID)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, false, apperror.ErrInsufficientBalance()
	}

	payout := &domain.Payout{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		BeneficiaryID: req.BeneficiaryID,
		Amount:        req.Amount,
		Currency:      wallet.Currency,
		Status:        domain.PayoutStatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		payout.IdempotencyKey = &key
	}

	// Atomic unit: debit + insert commit or abort together.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	debited, err := s.walletRepo.DecrementIfSufficient(ctx, dbTx, req.OwnerID, req.Amount)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
	}
	if !debited {
		return nil, false, apperror.ErrInsufficientBalance()
	}

	if err := s.payoutRepo.Create(ctx, dbTx, payout); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			// Lost the insert race; the deferred rollback discards our
			// debit and the winner's payout is adopted instead.
			return s.adoptWinner(ctx, dbTx, req.OwnerID, req.IdempotencyKey)
		}
		return nil, false, apperror.InternalError(fmt.Errorf("create payout: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.cachePayout(ctx, payout)

	s.log.Info().
		Str("payout_id", payout.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("amount", req.Amount.String()).
		Msg("payout created")

	return payout, false, nil
}

// adoptWinner rolls back the loser's transaction and re-reads the payout
// created by the concurrent request that won the unique-constraint race.
func (s *PayoutServiceImpl) adoptWinner(ctx context.Context, dbTx pgx.Tx, ownerID uuid.UUID, key string) (*domain.Payout, bool, error) {
	if err := dbTx.Rollback(ctx); err != nil {
		s.log.Warn().Err(err).Msg("rollback after idempotency conflict")
	}

	winner, err := s.payoutRepo.GetByOwnerAndKey(ctx, ownerID, key)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("re-read winner payout: %w", err))
	}
	if winner == nil {
		// The winner's transaction is not visible yet. Surface a retryable
		// storage error rather than inventing state.
		return nil, false, apperror.InternalError(fmt.Errorf("idempotency conflict for owner %s but no existing payout found", ownerID))
	}

	s.log.Info().
		Str("payout_id", winner.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("idempotency race resolved to existing payout")

	return winner, true, nil
}

// Settle transitions a PENDING payout to a terminal state with the matching
// balance mutation, as one atomic unit:
//
//	success: status=SUCCESS, beneficiary balance += amount (wallet untouched)
//	failure: status=FAILED, wallet balance += amount (compensating reversal)
func (s *PayoutServiceImpl) Settle(ctx context.Context, ownerID, payoutID uuid.UUID, outcome domain.PayoutOutcome) (*domain.Payout, error) {
	if !outcome.Valid() {
		return nil, apperror.ErrInvalidOutcome()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock the payout row: concurrent settlements serialize here and the
	// status guard in UpdateStatus rejects all but the first.
	payout, err := s.payoutRepo.GetByIDForUpdate(ctx, dbTx, payoutID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock payout: %w", err))
	}
	if payout == nil || payout.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("Payout")
	}
	if payout.IsFinalized() {
		return nil, apperror.ErrAlreadyFinalized()
	}

	now := time.Now().UTC()

	switch outcome {
	case domain.OutcomeSuccess:
		if err := s.payoutRepo.UpdateStatus(ctx, dbTx, payout.ID, domain.PayoutStatusSuccess, now); err != nil {
			return nil, settleUpdateError(err)
		}
		if err := s.benefRepo.IncrementBalance(ctx, dbTx, payout.BeneficiaryID, payout.Amount); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("credit beneficiary: %w", err))
		}
		payout.Status = domain.PayoutStatusSuccess
	case domain.OutcomeFailure:
		if err := s.payoutRepo.UpdateStatus(ctx, dbTx, payout.ID, domain.PayoutStatusFailed, now); err != nil {
			return nil, settleUpdateError(err)
		}
		if err := s.walletRepo.Increment(ctx, dbTx, payout.OwnerID, payout.Amount); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("reverse wallet debit: %w", err))
		}
		payout.Status = domain.PayoutStatusFailed
	}
	payout.SettledAt = &now

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("payout_id", payout.ID.String()).
		Str("status", string(payout.Status)).
		Str("amount", payout.Amount.String()).
		Msg("payout settled")

	return payout, nil
}

func settleUpdateError(err error) error {
	if errors.Is(err, domain.ErrPayoutFinalized) {
		return apperror.ErrAlreadyFinalized()
	}
	return apperror.InternalError(fmt.Errorf("update payout status: %w", err))
}

// cachePayout stores the created payout for fast idempotent replays.
// Best-effort: a cache failure never fails the request.
func (s *PayoutServiceImpl) cachePayout(ctx context.Context, p *domain.Payout) {
	if s.idempCache == nil || p.IdempotencyKey == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	key := domain.IdempotencyLookupKey(p.OwnerID, *p.IdempotencyKey)
	if err := s.idempCache.Set(ctx, key, data, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache payout for idempotency")
	}
}
