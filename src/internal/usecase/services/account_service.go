package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.AccountService = (*AccountService)(nil)

type AccountService struct {
	accountRepo repo_interfaces.AccountRepository
}

func NewAccountService(accountRepo repo_interfaces.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) CreateHolder(ctx context.Context, holder domain.Holder) (domain.Holder, error) {
	logger.Info("account service create holder request", logger.Fields{
		"email": holder.Email,
	})

	var errs []string
	if _, err := mail.ParseAddress(strings.TrimSpace(holder.Email)); err != nil {
		errs = append(errs, "email is not valid")
	}
	if strings.TrimSpace(holder.FullName) == "" {
		errs = append(errs, "fullName is required")
	}
	if holder.RoutingNumber != "" && !domain.IsValidRoutingNumber(holder.RoutingNumber) {
		errs = append(errs, "routingNumber must be a valid 9-digit ABA number")
	}
	if len(errs) > 0 {
		return domain.Holder{}, domain.Invalid(errs)
	}

	created, err := s.accountRepo.CreateHolder(ctx, holder)
	if err != nil {
		logger.Error("account service create holder failed", err, nil)
		return domain.Holder{}, err
	}

	logger.Info("account service create holder success", logger.Fields{"holderId": created.ID})
	return created, nil
}

func (s *AccountService) GetHolder(ctx context.Context, id string) (domain.Holder, error) {
	return s.accountRepo.GetHolder(ctx, id)
}

func (s *AccountService) Balance(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error) {
	return s.accountRepo.GetBalance(ctx, ownerID, accountType, currency)
}

// Rollup is the statement view: USD per sub-account and in total, with BTC
// reported beside it.
func (s *AccountService) Rollup(ctx context.Context, ownerID string) (domain.Rollup, error) {
	logger.Info("account service rollup request", logger.Fields{"ownerId": ownerID})

	balances, err := s.accountRepo.ListBalances(ctx, ownerID)
	if err != nil {
		logger.Error("account service rollup failed", err, logger.Fields{"ownerId": ownerID})
		return domain.Rollup{}, err
	}
	return domain.BuildRollup(ownerID, balances), nil
}
