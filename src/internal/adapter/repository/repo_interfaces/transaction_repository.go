package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

// TransactionRepository owns the ledger rows. Every method that touches more
// than one row does so inside a single storage transaction.
type TransactionRepository interface {
	Create(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error)
	CreateAndPost(ctx context.Context, txs []domain.Transaction, postedAt time.Time) ([]domain.PostingResult, error)
	Get(ctx context.Context, id string) (domain.Transaction, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Post(ctx context.Context, ids []string, postedAt time.Time) ([]domain.PostingResult, error)
	Approve(ctx context.Context, ids []string, approval domain.Approval) ([]domain.PostingResult, error)
	Reject(ctx context.Context, id string, rejection domain.Rejection) (domain.Transaction, error)
	ListAudit(ctx context.Context, transactionID string) ([]domain.PostingAuditEntry, error)
}
