package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountService interface {
	CreateHolder(ctx context.Context, holder domain.Holder) (domain.Holder, error)
	GetHolder(ctx context.Context, id string) (domain.Holder, error)
	Balance(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error)
	Rollup(ctx context.Context, ownerID string) (domain.Rollup, error)
}
