package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type LimitService interface {
	CheckLimit(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.LimitDecision, error)
	RecordUsage(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.TransactionLimit, error)
	Reserve(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) (domain.LimitDecision, error)
	Release(ctx context.Context, ownerID string, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType) error
	GetLimits(ctx context.Context, ownerID string) (domain.TransactionLimit, error)
	UpdateLimits(ctx context.Context, ownerID string, update domain.LimitUpdate) (domain.TransactionLimit, error)
}
