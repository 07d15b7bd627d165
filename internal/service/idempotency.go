package service

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IdempotencyResolver finds a prior payout for an owner + client key pair so
// the creation flow can short-circuit without a second debit. Pure read.
//
// Layer 1 is a best-effort Redis cache; layer 2 is the authoritative lookup
// against the payouts table. Cache failures only cost the fast path.
type IdempotencyResolver struct {
	payoutRepo ports.PayoutRepository
	cache      ports.IdempotencyCache
	log        zerolog.Logger
}

// NewIdempotencyResolver creates a new IdempotencyResolver.
func NewIdempotencyResolver(payoutRepo ports.PayoutRepository, cache ports.IdempotencyCache, log zerolog.Logger) *IdempotencyResolver {
	return &IdempotencyResolver{
		payoutRepo: payoutRepo,
		cache:      cache,
		log:        log,
	}
}

// Resolve returns the existing payout for (ownerID, key), or nil on miss.
// An empty key always resolves to nil: absence disables dedup.
func (r *IdempotencyResolver) Resolve(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Payout, error) {
	if key == "" {
		return nil, nil
	}

	lookupKey := domain.IdempotencyLookupKey(ownerID, key)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, lookupKey)
		if err != nil {
			r.log.Warn().Err(err).Str("key", lookupKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			p := &domain.Payout{}
			if err := json.Unmarshal(cached, p); err == nil {
				return p, nil
			}
			r.log.Warn().Str("key", lookupKey).Msg("corrupt cached payout, falling through to DB")
		}
	}

	p, err := r.payoutRepo.GetByOwnerAndKey(ctx, ownerID, key)
	if err != nil {
		return nil, fmt.Errorf("db idempotency check: %w", err)
	}
	return p, nil
}
