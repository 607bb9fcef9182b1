package integration

import (
	"context"
	"fmt"
	"math"
	"sync"

	"fundflow/internal/core/domain"
	"fundflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Campaign Repo ---

// inMemoryCampaignRepo simulates the campaign row lock taken by
// GetByIDForUpdate: a per-campaign mutex is held until the transaction
// commits or rolls back, so concurrent submissions serialize exactly as
// they do against PostgreSQL.
type inMemoryCampaignRepo struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*domain.Campaign
	rowLocks  map[uuid.UUID]*sync.Mutex
}

func newInMemoryCampaignRepo() *inMemoryCampaignRepo {
	return &inMemoryCampaignRepo{
		campaigns: make(map[uuid.UUID]*domain.Campaign),
		rowLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *inMemoryCampaignRepo) add(c *domain.Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = c
	r.rowLocks[c.ID] = &sync.Mutex{}
}

func (r *inMemoryCampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *inMemoryCampaignRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Campaign, error) {
	r.mu.RLock()
	rowLock, ok := r.rowLocks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	rowLock.Lock()
	if mt, ok := tx.(*memTx); ok {
		mt.onDone(rowLock.Unlock)
	} else {
		rowLock.Unlock()
	}
	return r.GetByID(ctx, id)
}

// --- In-Memory Donation Repo ---

type inMemoryDonationRepo struct {
	mu        sync.RWMutex
	donations []domain.Donation
}

func newInMemoryDonationRepo() *inMemoryDonationRepo {
	return &inMemoryDonationRepo{}
}

func (r *inMemoryDonationRepo) add(d domain.Donation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.donations = append(r.donations, d)
}

func (r *inMemoryDonationRepo) SumCompletedByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, d := range r.donations {
		if d.CampaignID == campaignID && d.IsCompleted() {
			total += d.Amount
		}
	}
	return total, nil
}

func (r *inMemoryDonationRepo) SumCompletedByCampaignTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID) (int64, error) {
	return r.SumCompletedByCampaign(ctx, campaignID)
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{requests: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.requests[w.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) sumLocked(campaignID uuid.UUID, statuses []domain.WithdrawalStatus) int64 {
	var total int64
	for _, w := range r.requests {
		if w.CampaignID != campaignID {
			continue
		}
		for _, s := range statuses {
			if w.Status == s {
				total += w.Amount
				break
			}
		}
	}
	return total
}

func (r *inMemoryWithdrawalRepo) SumByCampaignAndStatuses(ctx context.Context, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sumLocked(campaignID, statuses), nil
}

func (r *inMemoryWithdrawalRepo) SumByCampaignAndStatusesTx(ctx context.Context, tx pgx.Tx, campaignID uuid.UUID, statuses []domain.WithdrawalStatus) (int64, error) {
	return r.SumByCampaignAndStatuses(ctx, campaignID, statuses)
}

func (r *inMemoryWithdrawalRepo) UpdateTransition(ctx context.Context, w *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[w.ID]
	if !ok {
		return fmt.Errorf("withdrawal request not found")
	}
	if stored.Status != expected {
		return ports.ErrStatusConflict
	}
	cp := *w
	r.requests[w.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) UpdateDocuments(ctx context.Context, id uuid.UUID, docs *domain.DocumentSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("withdrawal request not found")
	}
	stored.Documents = *docs
	return nil
}

func (r *inMemoryWithdrawalRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, w := range r.requests {
		if w.OrganizerID == organizerID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (r *inMemoryWithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, w := range r.requests {
		if params.Status != nil && w.Status != *params.Status {
			continue
		}
		result = append(result, *w)
	}
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.WithdrawalRequest{}, total, nil
	}
	end := int(math.Min(float64(start+params.PageSize), float64(len(result))))
	return result[start:end], total, nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// --- In-Memory Activity Repo ---

type inMemoryActivityRepo struct {
	mu      sync.RWMutex
	entries []domain.ActivityLog
}

func newInMemoryActivityRepo() *inMemoryActivityRepo {
	return &inMemoryActivityRepo{}
}

func (r *inMemoryActivityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *inMemoryActivityRepo) byType(t domain.ActivityType) []domain.ActivityLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ActivityLog
	for _, e := range r.entries {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx is a pgx.Tx implementation for in-memory testing. It holds the
// release callbacks registered by row-locking reads and runs them exactly
// once on commit or rollback.
type memTx struct {
	mu      sync.Mutex
	done    bool
	unlocks []func()
}

func (t *memTx) onDone(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlocks = append(t.unlocks, f)
}

func (t *memTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for _, f := range t.unlocks {
		f()
	}
	t.unlocks = nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.release(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
