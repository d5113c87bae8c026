package services

import (
	"context"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.PostingService = (*PostingService)(nil)

// PostingService applies cleared transactions to balances. Posting a row
// that is already posted is a no-op reported with Applied=false.
type PostingService struct {
	txRepo repo_interfaces.TransactionRepository
	now    func() time.Time
}

func NewPostingService(txRepo repo_interfaces.TransactionRepository) *PostingService {
	return &PostingService{txRepo: txRepo, now: utcNow}
}

func (s *PostingService) PostOnce(ctx context.Context, transactionID string) (domain.PostingResult, error) {
	results, err := s.PostMany(ctx, []string{transactionID})
	if err != nil {
		return domain.PostingResult{}, err
	}
	return results[0], nil
}

// PostMany posts every id in one storage transaction.
func (s *PostingService) PostMany(ctx context.Context, transactionIDs []string) ([]domain.PostingResult, error) {
	logger.Info("posting service post request", logger.Fields{"transactionIds": transactionIDs})

	if len(transactionIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one transaction id is required", domain.ErrValidation)
	}

	results, err := s.txRepo.Post(ctx, transactionIDs, s.now())
	if err != nil {
		logger.Error("posting service post failed", err, logger.Fields{"transactionIds": transactionIDs})
		return nil, err
	}

	for _, result := range results {
		logger.Info("posting service post result", logger.Fields{
			"transactionId": result.Transaction.ID,
			"applied":       result.Applied,
			"delta":         result.Delta,
			"balanceAfter":  result.BalanceAfter,
		})
	}
	return results, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
