package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by owner ID
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Seed(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal, currency string) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	w, ok := r.wallets[ownerID]
	if !ok {
		w = &domain.Wallet{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Balance:   amount,
			Currency:  currency,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.wallets[ownerID] = w
	} else {
		w.Balance = w.Balance.Add(amount)
		w.UpdatedAt = now
	}
	copy := *w
	return &copy, nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return nil, nil
	}
	copy := *w
	return &copy, nil
}

func (r *inMemoryWalletRepo) DecrementIfSufficient(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok || w.Balance.LessThan(amount) {
		return false, nil
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	onRollback(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		w.Balance = w.Balance.Add(amount)
	})
	return true, nil
}

func (r *inMemoryWalletRepo) Increment(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[ownerID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	onRollback(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		w.Balance = w.Balance.Sub(amount)
	})
	return nil
}

// --- In-Memory Beneficiary Repo ---

type inMemoryBeneficiaryRepo struct {
	mu            sync.Mutex
	beneficiaries map[uuid.UUID]*domain.Beneficiary
}

func newInMemoryBeneficiaryRepo() *inMemoryBeneficiaryRepo {
	return &inMemoryBeneficiaryRepo{beneficiaries: make(map[uuid.UUID]*domain.Beneficiary)}
}

func (r *inMemoryBeneficiaryRepo) Create(ctx context.Context, b *domain.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beneficiaries[b.ID] = b
	return nil
}

func (r *inMemoryBeneficiaryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Beneficiary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beneficiaries[id]
	if !ok {
		return nil, nil
	}
	copy := *b
	return &copy, nil
}

func (r *inMemoryBeneficiaryRepo) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]domain.Beneficiary, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Beneficiary
	for _, b := range r.beneficiaries {
		if b.OwnerID == ownerID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))
	start := (page - 1) * limit
	if start >= len(result) {
		return []domain.Beneficiary{}, total, nil
	}
	end := start + limit
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryBeneficiaryRepo) Update(ctx context.Context, b *domain.Beneficiary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.beneficiaries[b.ID]; !ok {
		return fmt.Errorf("beneficiary not found")
	}
	copy := *b
	r.beneficiaries[b.ID] = &copy
	return nil
}

func (r *inMemoryBeneficiaryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beneficiaries[id]
	if !ok || b.OwnerID != ownerID {
		return false, nil
	}
	delete(r.beneficiaries, id)
	return true, nil
}

func (r *inMemoryBeneficiaryRepo) IncrementBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beneficiaries[id]
	if !ok {
		return fmt.Errorf("beneficiary not found")
	}
	b.Balance = b.Balance.Add(amount)
	b.UpdatedAt = time.Now().UTC()
	onRollback(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		b.Balance = b.Balance.Sub(amount)
	})
	return nil
}

// --- In-Memory Payout Repo ---

type inMemoryPayoutRepo struct {
	mu      sync.Mutex
	payouts map[uuid.UUID]*domain.Payout
}

func newInMemoryPayoutRepo() *inMemoryPayoutRepo {
	return &inMemoryPayoutRepo{payouts: make(map[uuid.UUID]*domain.Payout)}
}

// Create enforces the (owner_id, idempotency_key) unique constraint the
// database schema provides, so the creation race behaves like production.
func (r *inMemoryPayoutRepo) Create(ctx context.Context, tx pgx.Tx, p *domain.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.IdempotencyKey != nil {
		for _, existing := range r.payouts {
			if existing.OwnerID == p.OwnerID &&
				existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *p.IdempotencyKey {
				return domain.ErrDuplicateIdempotencyKey
			}
		}
	}
	copy := *p
	r.payouts[p.ID] = &copy
	onRollback(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.payouts, copy.ID)
	})
	return nil
}

func (r *inMemoryPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return nil, nil
	}
	copy := *p
	return &copy, nil
}

func (r *inMemoryPayoutRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Payout, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryPayoutRepo) GetByOwnerAndKey(ctx context.Context, ownerID uuid.UUID, key string) (*domain.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payouts {
		if p.OwnerID == ownerID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			copy := *p
			return &copy, nil
		}
	}
	return nil, nil
}

// UpdateStatus applies the PENDING guard, matching the SQL status check.
func (r *inMemoryPayoutRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PayoutStatus, settledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return fmt.Errorf("payout not found")
	}
	if p.Status != domain.PayoutStatusPending {
		return domain.ErrPayoutFinalized
	}
	p.Status = status
	p.SettledAt = &settledAt
	onRollback(tx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		p.Status = domain.PayoutStatusPending
		p.SettledAt = nil
	})
	return nil
}

func (r *inMemoryPayoutRepo) List(ctx context.Context, params ports.PayoutListParams) ([]domain.Payout, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Payout
	for _, p := range r.payouts {
		if p.OwnerID != params.OwnerID {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.From != nil && p.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && p.CreatedAt.After(*params.To) {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	start := (params.Page - 1) * params.Limit
	if start >= len(result) {
		return []domain.Payout{}, total, nil
	}
	end := start + params.Limit
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryPayoutRepo) GetStats(ctx context.Context, ownerID uuid.UUID) (*ports.PayoutStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &ports.PayoutStats{
		TotalPaidOut: decimal.Zero,
		TotalPending: decimal.Zero,
	}
	for _, p := range r.payouts {
		if p.OwnerID != ownerID {
			continue
		}
		stats.TotalPayouts++
		switch p.Status {
		case domain.PayoutStatusPending:
			stats.Pending++
			stats.TotalPending = stats.TotalPending.Add(p.Amount)
		case domain.PayoutStatusSuccess:
			stats.Successful++
			stats.TotalPaidOut = stats.TotalPaidOut.Add(p.Amount)
		case domain.PayoutStatusFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// onRollback registers an undo for a mutation made inside tx, so that a
// rolled-back unit of work actually reverts its writes the way a real
// database transaction would.
func onRollback(tx pgx.Tx, undo func()) {
	if nt, ok := tx.(*noopTx); ok {
		nt.mu.Lock()
		nt.undo = append(nt.undo, undo)
		nt.mu.Unlock()
	}
}

// noopTx is a pgx.Tx implementation for in-memory testing. Repo mutations
// register compensating undos; Rollback applies them in reverse, Commit
// discards them.
type noopTx struct {
	mu   sync.Mutex
	undo []func()
	done bool
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *noopTx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	return nil
}

func (t *noopTx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
