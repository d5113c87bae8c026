package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type PostingService interface {
	PostOnce(ctx context.Context, transactionID string) (domain.PostingResult, error)
	PostMany(ctx context.Context, transactionIDs []string) ([]domain.PostingResult, error)
}
