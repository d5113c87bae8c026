package memory

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type RateRepository struct {
	store *Store
}

// NewRateRepository seeds the display quotes used when no database is
// configured.
func NewRateRepository(store *Store) *RateRepository {
	store.mu.Lock()
	defer store.mu.Unlock()

	if len(store.rates) == 0 {
		for i, rate := range domain.DefaultRates(time.Now()) {
			rate.ID = int64(i + 1)
			store.rates = append(store.rates, rate)
		}
	}
	return &RateRepository{store: store}
}

func (r *RateRepository) GetRates(_ context.Context) ([]domain.Rate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Rate, len(r.store.rates))
	copy(out, r.store.rates)
	return out, nil
}

func (r *RateRepository) GetRate(_ context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var latest domain.Rate
	found := false
	for _, rate := range r.store.rates {
		if rate.FromCurrency != fromCurrency || rate.ToCurrency != toCurrency {
			continue
		}
		if !found || rate.RateDate.After(latest.RateDate) {
			latest, found = rate, true
		}
	}
	if !found {
		return domain.Rate{}, domain.ErrRecordNotFound
	}
	return latest, nil
}
