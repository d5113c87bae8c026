package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
)

const rateColumns = `id, from_currency, to_currency, rate, rate_date, created_at`

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// EnsureDefaultRates writes the default quote sheet for today unless a pair
// already has a quote dated today.
func (r *RateRepository) EnsureDefaultRates(ctx context.Context) error {
	seed := domain.DefaultRates(time.Now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed rates: %w", err)
	}
	defer rollback(tx)

	const query = `
INSERT INTO rates (from_currency, to_currency, rate, rate_date)
VALUES ($1, $2, $3, $4)
ON CONFLICT (from_currency, to_currency, rate_date) DO NOTHING`

	inserted := 0
	for _, rate := range seed {
		result, err := tx.ExecContext(ctx, query, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.RateDate)
		if err != nil {
			logger.Error("rate repository seed failed", err, logger.Fields{"pair": rate.Pair()})
			return fmt.Errorf("seed rate %s: %w", rate.Pair(), err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed rates: %w", err)
	}

	logger.Info("rate repository seeded quotes", logger.Fields{"inserted": inserted})
	return nil
}

// GetRates returns the latest quote of every pair.
func (r *RateRepository) GetRates(ctx context.Context) ([]domain.Rate, error) {
	query := `
SELECT DISTINCT ON (from_currency, to_currency) ` + rateColumns + `
FROM rates
ORDER BY from_currency, to_currency, rate_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("rate repository get rates failed", err, nil)
		return nil, fmt.Errorf("get rates: %w", err)
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0)
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	return rates, nil
}

// GetRate returns the latest quote for the exact pair. Callers normalise
// currency codes.
func (r *RateRepository) GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	query := `
SELECT ` + rateColumns + `
FROM rates
WHERE from_currency = $1 AND to_currency = $2
ORDER BY rate_date DESC
LIMIT 1`

	rate, err := scanRate(r.db.QueryRowContext(ctx, query, fromCurrency, toCurrency))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Rate{}, domain.ErrRecordNotFound
	}
	if err != nil {
		logger.Error("rate repository get rate failed", err, logger.Fields{
			"fromCurrency": fromCurrency,
			"toCurrency":   toCurrency,
		})
		return domain.Rate{}, fmt.Errorf("get rate: %w", err)
	}
	return rate, nil
}

func scanRate(row rowScanner) (domain.Rate, error) {
	var rate domain.Rate
	if err := row.Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.RateDate, &rate.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Rate{}, err
		}
		return domain.Rate{}, fmt.Errorf("scan rate: %w", err)
	}
	return rate, nil
}
