package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.LimitService = (*LimitService)(nil)

type LimitService struct {
	limitRepo repo_interfaces.LimitRepository
	defaults  domain.LimitDefaults
	now       func() time.Time
}

func NewLimitService(limitRepo repo_interfaces.LimitRepository, defaults domain.LimitDefaults) *LimitService {
	return &LimitService{limitRepo: limitRepo, defaults: defaults, now: utcNow}
}

// CheckLimit evaluates a prospective movement without recording it.
func (s *LimitService) CheckLimit(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.LimitDecision, error) {
	if err := validateLimitInput(ownerID, amount, accountType); err != nil {
		return domain.LimitDecision{}, err
	}

	limit, err := s.limitRepo.Get(ctx, ownerID, s.defaults, s.now())
	if err != nil {
		logger.Error("limit service check failed", err, logger.Fields{"ownerId": ownerID})
		return domain.LimitDecision{}, err
	}

	decision := limit.Evaluate(amount, kind, accountType)
	logger.Info("limit service check result", logger.Fields{
		"ownerId": ownerID,
		"amount":  amount,
		"kind":    kind,
		"allowed": decision.Allowed,
		"reason":  decision.Reason,
	})
	return decision, nil
}

func (s *LimitService) RecordUsage(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.TransactionLimit, error) {
	if err := validateLimitInput(ownerID, amount, accountType); err != nil {
		return domain.TransactionLimit{}, err
	}
	return s.limitRepo.Record(ctx, ownerID, s.defaults, amount, kind, accountType, s.now())
}

// Reserve checks and records in one step. A denial is returned as
// ErrLimitExceeded together with the decision.
func (s *LimitService) Reserve(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.LimitDecision, error) {
	if err := validateLimitInput(ownerID, amount, accountType); err != nil {
		return domain.LimitDecision{}, err
	}

	_, decision, err := s.limitRepo.Reserve(ctx, ownerID, s.defaults, amount, kind, accountType, s.now())
	if err != nil {
		logger.Error("limit service reserve failed", err, logger.Fields{"ownerId": ownerID})
		return domain.LimitDecision{}, err
	}
	if !decision.Allowed {
		logger.Warn("limit service reserve denied", logger.Fields{
			"ownerId": ownerID,
			"amount":  amount,
			"reason":  decision.Reason,
		})
		return decision, fmt.Errorf("%w: %s", domain.ErrLimitExceeded, decision.Reason)
	}
	return decision, nil
}

// Release undoes a reservation whose movement was never written.
func (s *LimitService) Release(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) error {
	if err := validateLimitInput(ownerID, amount, accountType); err != nil {
		return err
	}

	if _, err := s.limitRepo.Record(ctx, ownerID, s.defaults, amount.Neg(), kind, accountType, s.now()); err != nil {
		logger.Error("limit service release failed", err, logger.Fields{"ownerId": ownerID})
		return err
	}
	return nil
}

func (s *LimitService) GetLimits(ctx context.Context, ownerID string) (domain.TransactionLimit, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.TransactionLimit{}, fmt.Errorf("%w: ownerId is required", domain.ErrValidation)
	}
	return s.limitRepo.Get(ctx, ownerID, s.defaults, s.now())
}

func (s *LimitService) UpdateLimits(ctx context.Context, ownerID string, update domain.LimitUpdate) (domain.TransactionLimit, error) {
	logger.Info("limit service update request", logger.Fields{"ownerId": ownerID})

	if strings.TrimSpace(ownerID) == "" {
		return domain.TransactionLimit{}, fmt.Errorf("%w: ownerId is required", domain.ErrValidation)
	}
	return s.limitRepo.Update(ctx, ownerID, s.defaults, update, s.now())
}

func validateLimitInput(ownerID string, amount decimal.Decimal, accountType domain.AccountType) error {
	var errs []string
	if strings.TrimSpace(ownerID) == "" {
		errs = append(errs, "ownerId is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if accountType != "" {
		if _, err := domain.ParseAccountType(string(accountType)); err != nil {
			errs = append(errs, "accountType is not supported")
		}
	}
	if len(errs) > 0 {
		return domain.Invalid(errs)
	}
	return nil
}
