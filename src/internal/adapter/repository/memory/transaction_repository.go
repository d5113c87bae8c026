package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
)

type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(_ context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.insertLocked(txs)
}

func (r *TransactionRepository) CreateAndPost(_ context.Context, txs []domain.Transaction, postedAt time.Time) ([]domain.PostingResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := make([]string, 0, len(txs))
	staged := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		ids = append(ids, tx.ID)
		staged = append(staged, tx)
	}

	created, err := r.insertLocked(staged)
	if err != nil {
		return nil, err
	}

	results, err := r.store.postLocked(ids, postedAt, nil)
	if err != nil {
		r.removeLocked(created)
		return nil, err
	}
	return results, nil
}

func (r *TransactionRepository) Get(_ context.Context, id string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, ok := r.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return cloneTransaction(tx), nil
}

func (r *TransactionRepository) List(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.Transaction, 0)
	for _, id := range r.store.txOrder {
		tx, ok := r.store.transactions[id]
		if !ok {
			continue
		}
		if filter.OwnerID != "" && tx.OwnerID != filter.OwnerID {
			continue
		}
		if filter.CorrelationID != "" && tx.CorrelationID != filter.CorrelationID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, tx.Status) {
			continue
		}
		out = append(out, cloneTransaction(tx))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *TransactionRepository) Post(_ context.Context, ids []string, postedAt time.Time) ([]domain.PostingResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.postLocked(ids, postedAt, nil)
}

func (r *TransactionRepository) Approve(_ context.Context, ids []string, approval domain.Approval) ([]domain.PostingResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.postLocked(ids, approval.At, &approval)
}

func (r *TransactionRepository) Reject(_ context.Context, id string, rejection domain.Rejection) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, ok := r.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	if !tx.Status.IsOpen() {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %s is %s", domain.ErrAlreadyProcessed, tx.ID, tx.Status)
	}

	processedAt := rejection.At
	tx.Status = domain.TransactionStatusRejected
	tx.RejectionReason = rejection.Reason
	tx.ProcessedBy = rejection.AdminID
	tx.ProcessedAt = &processedAt
	tx.UpdatedAt = rejection.At
	r.store.transactions[id] = tx

	return cloneTransaction(tx), nil
}

func (r *TransactionRepository) ListAudit(_ context.Context, transactionID string) ([]domain.PostingAuditEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.PostingAuditEntry, 0)
	for _, entry := range r.store.audit {
		if entry.TransactionID == transactionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *TransactionRepository) insertLocked(txs []domain.Transaction) ([]domain.Transaction, error) {
	now := time.Now().UTC()
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if _, exists := r.store.transactions[tx.ID]; exists {
			return nil, fmt.Errorf("%w: transaction %s already exists", domain.ErrValidation, tx.ID)
		}
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		if tx.Date.IsZero() {
			tx.Date = tx.CreatedAt
		}
		tx.UpdatedAt = tx.CreatedAt
		tx.Posted = false
		tx.PostedAt = nil
		out = append(out, tx)
	}

	for _, tx := range out {
		r.store.transactions[tx.ID] = cloneTransaction(tx)
		r.store.txOrder = append(r.store.txOrder, tx.ID)
	}
	return out, nil
}

func (r *TransactionRepository) removeLocked(txs []domain.Transaction) {
	for _, tx := range txs {
		delete(r.store.transactions, tx.ID)
	}
	r.store.txOrder = slices.DeleteFunc(r.store.txOrder, func(id string) bool {
		_, ok := r.store.transactions[id]
		return !ok
	})
}
