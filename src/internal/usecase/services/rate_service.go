package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

// Verify that RateService implements the service_interfaces.RateService interface
var _ service_interfaces.RateService = (*RateService)(nil)

// RateService serves quotes for display. Nothing in the ledger converts
// balances with them.
type RateService struct {
	rateRepo repo_interfaces.RateRepository
}

func NewRateService(rateRepo repo_interfaces.RateRepository) *RateService {
	return &RateService{rateRepo: rateRepo}
}

func (s *RateService) GetRates(ctx context.Context) ([]domain.Rate, error) {
	logger.Info("rate service get rates request", nil)

	rates, err := s.rateRepo.GetRates(ctx)
	if err != nil {
		logger.Error("rate service get rates failed", err, nil)
		return nil, err
	}

	logger.Info("rate service get rates success", logger.Fields{
		"count": len(rates),
	})
	return rates, nil
}

func (s *RateService) GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))

	logger.Info("rate service get rate request", logger.Fields{
		"fromCurrency": from,
		"toCurrency":   to,
	})

	if len(from) != 3 || len(to) != 3 {
		return domain.Rate{}, fmt.Errorf("%w: fromCurrency and toCurrency must be 3 characters", domain.ErrValidation)
	}
	if from == to {
		now := time.Now().UTC()
		return domain.Rate{FromCurrency: from, ToCurrency: to, Rate: decimal.NewFromInt(1), RateDate: now, CreatedAt: now}, nil
	}

	rate, err := s.rateRepo.GetRate(ctx, from, to)
	if errors.Is(err, domain.ErrRecordNotFound) {
		rate, err = s.inverse(ctx, from, to)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("rate service get rate failed", err, logger.Fields{
				"fromCurrency": from,
				"toCurrency":   to,
			})
		}
		return domain.Rate{}, err
	}
	return rate, nil
}

// inverse derives from/to out of a stored to/from quote.
func (s *RateService) inverse(ctx context.Context, from string, to string) (domain.Rate, error) {
	opposite, err := s.rateRepo.GetRate(ctx, to, from)
	if err != nil {
		return domain.Rate{}, err
	}
	rate, ok := opposite.Invert()
	if !ok {
		return domain.Rate{}, domain.ErrRecordNotFound
	}
	logger.Info("rate service derived inverse quote", logger.Fields{
		"pair":   rate.Pair(),
		"source": opposite.Pair(),
	})
	return rate, nil
}
