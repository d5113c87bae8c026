package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type ApprovalService interface {
	Submit(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	Approve(ctx context.Context, transactionID string, adminID string, effectiveDate *time.Time) (domain.Transaction, error)
	Reject(ctx context.Context, transactionID string, adminID string, reason string) (domain.Transaction, error)
	ApproveGroup(ctx context.Context, correlationID string, adminID string) ([]domain.Transaction, error)
	ListPending(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}
