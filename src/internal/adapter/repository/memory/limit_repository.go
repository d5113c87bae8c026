package memory

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type LimitRepository struct {
	store *Store
}

func NewLimitRepository(store *Store) *LimitRepository {
	return &LimitRepository{store: store}
}

func (r *LimitRepository) Get(_ context.Context, ownerID string, defaults domain.LimitDefaults, now time.Time) (domain.TransactionLimit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	limit := r.loadLocked(ownerID, defaults, now)
	return cloneLimit(limit), nil
}

// Reserve evaluates and, when allowed, records amount in one step so two
// concurrent callers cannot both pass against the same headroom.
func (r *LimitRepository) Reserve(_ context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, domain.LimitDecision, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	limit := r.loadLocked(ownerID, defaults, now)
	decision := limit.Evaluate(amount, kind, accountType)
	if decision.Allowed {
		limit.Record(amount, kind, accountType, now)
		r.store.limits[ownerID] = limit
	}
	return cloneLimit(limit), decision, nil
}

func (r *LimitRepository) Record(_ context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	limit := r.loadLocked(ownerID, defaults, now)
	limit.Record(amount, kind, accountType, now)
	r.store.limits[ownerID] = limit
	return cloneLimit(limit), nil
}

func (r *LimitRepository) Update(_ context.Context, ownerID string, defaults domain.LimitDefaults, update domain.LimitUpdate, now time.Time) (domain.TransactionLimit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	limit := r.loadLocked(ownerID, defaults, now)
	if err := update.Apply(&limit, now); err != nil {
		return domain.TransactionLimit{}, err
	}
	r.store.limits[ownerID] = limit
	return cloneLimit(limit), nil
}

// loadLocked returns the stored record, creating it from defaults on first
// touch and applying the day rollover. Callers hold the store mutex.
func (r *LimitRepository) loadLocked(ownerID string, defaults domain.LimitDefaults, now time.Time) domain.TransactionLimit {
	limit, ok := r.store.limits[ownerID]
	if !ok {
		limit = domain.NewTransactionLimit(ownerID, defaults, now)
		r.store.limits[ownerID] = limit
		return cloneLimit(limit)
	}

	limit = cloneLimit(limit)
	if limit.ResetIfStale(now) {
		r.store.limits[ownerID] = cloneLimit(limit)
	}
	return limit
}
