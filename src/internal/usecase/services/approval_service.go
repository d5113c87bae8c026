package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.ApprovalService = (*ApprovalService)(nil)

type ApprovalService struct {
	txRepo      repo_interfaces.TransactionRepository
	accountRepo repo_interfaces.AccountRepository
	limits      service_interfaces.LimitService
	dispatcher  *Dispatcher
	now         func() time.Time
}

func NewApprovalService(
	txRepo repo_interfaces.TransactionRepository,
	accountRepo repo_interfaces.AccountRepository,
	limits service_interfaces.LimitService,
	dispatcher *Dispatcher,
) *ApprovalService {
	return &ApprovalService{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		limits:      limits,
		dispatcher:  dispatcher,
		now:         utcNow,
	}
}

// Submit records a back-office movement (deposit, fee, adjustment, ...) in
// the pending state so it goes through the approval queue.
func (s *ApprovalService) Submit(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	logger.Info("approval service submit request", logger.Fields{
		"ownerId": tx.OwnerID,
		"type":    tx.Type,
		"amount":  tx.Amount,
	})

	if tx.Status == "" {
		tx.Status = domain.TransactionStatusPending
	}
	if !tx.Status.IsOpen() {
		return domain.Transaction{}, fmt.Errorf("%w: submitted transactions must be pending", domain.ErrValidation)
	}
	if tx.Currency == "" {
		tx.Currency = domain.CurrencyUSD
	}
	if tx.Channel == "" {
		tx.Channel = "backoffice"
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	if _, err := s.accountRepo.GetHolder(ctx, tx.OwnerID); err != nil {
		return domain.Transaction{}, err
	}

	created, err := s.txRepo.Create(ctx, []domain.Transaction{tx})
	if err != nil {
		logger.Error("approval service submit failed", err, nil)
		return domain.Transaction{}, err
	}

	logger.Info("approval service submit success", logger.Fields{"transactionId": created[0].ID})
	return created[0], nil
}

// Approve clears and posts the transaction in one storage transaction. When
// the delta cannot be applied the row stays pending.
func (s *ApprovalService) Approve(ctx context.Context, transactionID string, adminID string, effectiveDate *time.Time) (domain.Transaction, error) {
	logger.Info("approval service approve request", logger.Fields{
		"transactionId": transactionID,
		"adminId":       adminID,
		"effectiveDate": effectiveDate,
	})

	if strings.TrimSpace(adminID) == "" {
		return domain.Transaction{}, fmt.Errorf("%w: adminId is required", domain.ErrValidation)
	}

	results, err := s.txRepo.Approve(ctx, []string{transactionID}, domain.Approval{
		AdminID:       adminID,
		EffectiveDate: effectiveDate,
		At:            s.now(),
	})
	if err != nil {
		logger.Error("approval service approve failed", err, logger.Fields{"transactionId": transactionID})
		return domain.Transaction{}, err
	}

	approved := results[0].Transaction
	s.notifyOwner(ctx, approved, domain.NotificationTransactionApproved)

	logger.Info("approval service approve success", logger.Fields{
		"transactionId": approved.ID,
		"balanceAfter":  results[0].BalanceAfter,
	})
	return approved, nil
}

func (s *ApprovalService) Reject(ctx context.Context, transactionID string, adminID string, reason string) (domain.Transaction, error) {
	logger.Info("approval service reject request", logger.Fields{
		"transactionId": transactionID,
		"adminId":       adminID,
	})

	if strings.TrimSpace(adminID) == "" {
		return domain.Transaction{}, fmt.Errorf("%w: adminId is required", domain.ErrValidation)
	}

	rejected, err := s.txRepo.Reject(ctx, transactionID, domain.Rejection{
		AdminID: adminID,
		Reason:  strings.TrimSpace(reason),
		At:      s.now(),
	})
	if err != nil {
		logger.Error("approval service reject failed", err, logger.Fields{"transactionId": transactionID})
		return domain.Transaction{}, err
	}

	s.releaseLimit(ctx, rejected)
	s.notifyOwner(ctx, rejected, domain.NotificationTransactionRejected)

	logger.Info("approval service reject success", logger.Fields{"transactionId": rejected.ID})
	return rejected, nil
}

// ApproveGroup clears every open leg sharing correlationID at once.
func (s *ApprovalService) ApproveGroup(ctx context.Context, correlationID string, adminID string) ([]domain.Transaction, error) {
	logger.Info("approval service approve group request", logger.Fields{
		"correlationId": correlationID,
		"adminId":       adminID,
	})

	if strings.TrimSpace(correlationID) == "" {
		return nil, fmt.Errorf("%w: correlationId is required", domain.ErrValidation)
	}
	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: adminId is required", domain.ErrValidation)
	}

	legs, err := s.txRepo.List(ctx, domain.TransactionFilter{
		CorrelationID: correlationID,
		Statuses:      domain.OpenStatuses,
	})
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		return nil, domain.ErrRecordNotFound
	}

	ids := make([]string, 0, len(legs))
	for _, leg := range legs {
		ids = append(ids, leg.ID)
	}

	results, err := s.txRepo.Approve(ctx, ids, domain.Approval{AdminID: adminID, At: s.now()})
	if err != nil {
		logger.Error("approval service approve group failed", err, logger.Fields{"correlationId": correlationID})
		return nil, err
	}

	approved := make([]domain.Transaction, 0, len(results))
	for _, result := range results {
		approved = append(approved, result.Transaction)
		s.notifyOwner(ctx, result.Transaction, domain.NotificationTransactionApproved)
	}

	logger.Info("approval service approve group success", logger.Fields{
		"correlationId": correlationID,
		"count":         len(approved),
	})
	return approved, nil
}

func (s *ApprovalService) ListPending(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.OpenStatuses
	}
	return s.txRepo.List(ctx, filter)
}

// releaseLimit gives back the daily allowance an external leg reserved. Only
// same-day rejections count, since the counters reset at midnight UTC.
func (s *ApprovalService) releaseLimit(ctx context.Context, tx domain.Transaction) {
	if !tx.HoldsTransferLimit() {
		return
	}
	if y, m, d := tx.CreatedAt.UTC().Date(); !sameDay(s.now(), y, m, d) {
		return
	}
	if err := s.limits.Release(ctx, tx.OwnerID, tx.Amount, domain.LimitKindTransfer, tx.AccountType); err != nil {
		logger.Error("approval service limit release failed", err, logger.Fields{"transactionId": tx.ID})
	}
}

func sameDay(t time.Time, year int, month time.Month, day int) bool {
	y, m, d := t.UTC().Date()
	return y == year && m == month && d == day
}

func (s *ApprovalService) notifyOwner(ctx context.Context, tx domain.Transaction, template string) {
	address := ""
	if holder, err := s.accountRepo.GetHolder(ctx, tx.OwnerID); err == nil {
		address = holder.Email
	}

	s.dispatcher.Dispatch(ctx, domain.Notification{
		OwnerID:  tx.OwnerID,
		Address:  address,
		Template: template,
		Data: map[string]any{
			"transactionId":   tx.ID,
			"type":            string(tx.Type),
			"amount":          tx.Amount.StringFixed(2),
			"currency":        string(tx.Currency),
			"status":          tx.Status.DisplayStatus(),
			"rejectionReason": tx.RejectionReason,
		},
	})
}
