package repo_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	CreateHolder(ctx context.Context, holder domain.Holder) (domain.Holder, error)
	GetHolder(ctx context.Context, id string) (domain.Holder, error)
	FindHolderByEmail(ctx context.Context, email string) (domain.Holder, error)
	FindHolderByAccountNumber(ctx context.Context, accountNumber string, routingNumber string) (domain.Holder, error)
	GetBalance(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error)
	ApplyDelta(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error)
	ListBalances(ctx context.Context, ownerID string) ([]domain.Balance, error)
}
