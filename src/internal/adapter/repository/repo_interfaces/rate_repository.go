package repo_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

// RateRepository reads stored quotes. Currency codes arrive upper-cased and
// only the exact pair is matched.
type RateRepository interface {
	GetRates(ctx context.Context) ([]domain.Rate, error)
	GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error)
}
