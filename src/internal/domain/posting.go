package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingResult reports what a posting attempt did to one transaction.
// Applied is false when the transaction had already been posted.
type PostingResult struct {
	Transaction  Transaction
	Applied      bool
	Delta        decimal.Decimal
	BalanceAfter decimal.Decimal
}

type PostingAuditEntry struct {
	ID            string
	TransactionID string
	OwnerID       string
	AccountType   AccountType
	Currency      Currency
	Delta         decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}
