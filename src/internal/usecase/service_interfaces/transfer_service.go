package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransferService interface {
	CreateTransfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)
	QuoteFees(class domain.TransferClass, amount decimal.Decimal, urgent bool, destinationCurrency string) (domain.FeeBreakdown, error)
}
