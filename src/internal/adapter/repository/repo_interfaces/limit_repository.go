package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// LimitRepository creates records lazily from defaults and applies the
// calendar-day reset before every read or write.
type LimitRepository interface {
	Get(ctx context.Context, ownerID string, defaults domain.LimitDefaults, now time.Time) (domain.TransactionLimit, error)
	Reserve(ctx context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, domain.LimitDecision, error)
	Record(ctx context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, error)
	Update(ctx context.Context, ownerID string, defaults domain.LimitDefaults, update domain.LimitUpdate, now time.Time) (domain.TransactionLimit, error)
}
