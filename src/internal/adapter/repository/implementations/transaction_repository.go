package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
id, owner_id, type, currency, amount, account_type, status, posted, posted_at,
reference, correlation_id, date, edited_by_admin, processed_by, processed_at,
rejection_reason, channel, origin, description, metadata, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{"count": len(txs)})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return nil, fmt.Errorf("begin create transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	var created []domain.Transaction
	if created, err = insertTransactions(ctx, tx, txs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return nil, fmt.Errorf("commit create transaction: %w", err)
	}

	logger.Info("transaction repository create success", logger.Fields{"count": len(created)})
	return created, nil
}

// CreateAndPost inserts approved rows and posts them in the same storage
// transaction, so either every leg lands or none does.
func (r *TransactionRepository) CreateAndPost(ctx context.Context, txs []domain.Transaction, postedAt time.Time) ([]domain.PostingResult, error) {
	logger.Info("transaction repository create and post", logger.Fields{"count": len(txs)})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return nil, fmt.Errorf("begin create and post transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	var created []domain.Transaction
	if created, err = insertTransactions(ctx, tx, txs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(created))
	for _, t := range created {
		ids = append(ids, t.ID)
	}

	var results []domain.PostingResult
	if results, err = postInTx(ctx, tx, ids, postedAt, nil); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return nil, fmt.Errorf("commit create and post transaction: %w", err)
	}

	logger.Info("transaction repository create and post success", logger.Fields{"count": len(results)})
	return results, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{"transactionId": id})
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	statuses := domain.StoredStatusValues(filter.Statuses...)
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE ($1 = '' OR owner_id = $1)
  AND ($2 = '' OR correlation_id = $2)
  AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))
ORDER BY created_at ASC, id ASC
LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, filter.OwnerID, filter.CorrelationID, pq.Array(statuses), limit)
	if err != nil {
		logger.Error("transaction repository list failed", err, nil)
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepository) Post(ctx context.Context, ids []string, postedAt time.Time) ([]domain.PostingResult, error) {
	return r.post(ctx, ids, postedAt, nil)
}

func (r *TransactionRepository) Approve(ctx context.Context, ids []string, approval domain.Approval) ([]domain.PostingResult, error) {
	return r.post(ctx, ids, approval.At, &approval)
}

func (r *TransactionRepository) post(ctx context.Context, ids []string, at time.Time, approval *domain.Approval) ([]domain.PostingResult, error) {
	logger.Info("transaction repository post", logger.Fields{
		"transactionIds": ids,
		"approve":        approval != nil,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return nil, fmt.Errorf("begin posting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	var results []domain.PostingResult
	if results, err = postInTx(ctx, tx, ids, at, approval); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return nil, fmt.Errorf("commit posting transaction: %w", err)
	}

	logger.Info("transaction repository post success", logger.Fields{"transactionIds": ids})
	return results, nil
}

func (r *TransactionRepository) Reject(ctx context.Context, id string, rejection domain.Rejection) (domain.Transaction, error) {
	logger.Info("transaction repository reject", logger.Fields{
		"transactionId": id,
		"adminId":       rejection.AdminID,
	})

	query := `
UPDATE transactions
SET status = $2,
    rejection_reason = $3,
    processed_by = $4,
    processed_at = $5,
    updated_at = $5
WHERE id = $1
  AND status = ANY($6::text[])
RETURNING ` + transactionColumns

	open := domain.StoredStatusValues(domain.OpenStatuses...)
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query,
		id,
		domain.TransactionStatusRejected,
		rejection.Reason,
		rejection.AdminID,
		rejection.At,
		pq.Array(open),
	))
	if err == nil {
		logger.Info("transaction repository reject success", logger.Fields{"transactionId": id})
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error("transaction repository reject failed", err, logger.Fields{"transactionId": id})
		return domain.Transaction{}, fmt.Errorf("reject transaction: %w", err)
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return domain.Transaction{}, getErr
	}
	return domain.Transaction{}, fmt.Errorf("%w: transaction %s is %s", domain.ErrAlreadyProcessed, current.ID, current.Status)
}

func (r *TransactionRepository) ListAudit(ctx context.Context, transactionID string) ([]domain.PostingAuditEntry, error) {
	const query = `
SELECT id, transaction_id, owner_id, account_type, currency, delta, balance_after, created_at
FROM posting_audit
WHERE transaction_id = $1
ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		logger.Error("transaction repository list audit failed", err, logger.Fields{"transactionId": transactionID})
		return nil, fmt.Errorf("list posting audit: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PostingAuditEntry, 0)
	for rows.Next() {
		var entry domain.PostingAuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TransactionID,
			&entry.OwnerID,
			&entry.AccountType,
			&entry.Currency,
			&entry.Delta,
			&entry.BalanceAfter,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan posting audit: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting audit: %w", err)
	}
	return out, nil
}

func insertTransactions(ctx context.Context, tx *sql.Tx, txs []domain.Transaction) ([]domain.Transaction, error) {
	query := `
INSERT INTO transactions (
	id, owner_id, type, currency, amount, account_type, status, posted,
	reference, correlation_id, date, edited_by_admin, processed_by, processed_at,
	rejection_reason, channel, origin, description, metadata, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19
)
RETURNING ` + transactionColumns

	now := time.Now().UTC()
	out := make([]domain.Transaction, 0, len(txs))
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.Date.IsZero() {
			t.Date = t.CreatedAt
		}

		metadata, err := marshalJSON(t.Metadata)
		if err != nil {
			return nil, err
		}

		created, err := scanTransaction(tx.QueryRowContext(ctx, query,
			t.ID,
			t.OwnerID,
			t.Type,
			t.Currency,
			t.Amount,
			t.AccountType,
			t.Status,
			t.Reference,
			t.CorrelationID,
			t.Date,
			t.EditedByAdmin,
			t.ProcessedBy,
			nullTime(t.ProcessedAt),
			t.RejectionReason,
			t.Channel,
			t.Origin,
			t.Description,
			metadata,
			t.CreatedAt,
		))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: transaction %s already exists", domain.ErrValidation, t.ID)
			}
			logger.Error("transaction repository insert failed", err, logger.Fields{"transactionId": t.ID})
			return nil, fmt.Errorf("insert transaction: %w", err)
		}
		out = append(out, created)
	}
	return out, nil
}

// postInTx applies each id under a row lock. The posted flag flips with a
// compare-and-set, so a second attempt observes posted=true and is a no-op.
func postInTx(ctx context.Context, tx *sql.Tx, ids []string, at time.Time, approval *domain.Approval) ([]domain.PostingResult, error) {
	results := make([]domain.PostingResult, 0, len(ids))
	lockQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	for _, id := range ids {
		t, err := scanTransaction(tx.QueryRowContext(ctx, lockQuery, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrRecordNotFound
			}
			return nil, fmt.Errorf("lock transaction: %w", err)
		}

		if approval != nil {
			if !t.Status.IsOpen() {
				return nil, fmt.Errorf("%w: transaction %s is %s", domain.ErrAlreadyProcessed, t.ID, t.Status)
			}
			if t, err = approveRow(ctx, tx, t, *approval); err != nil {
				return nil, err
			}
		}

		if !t.Status.IsCleared() {
			return nil, fmt.Errorf("%w: transaction %s is not cleared", domain.ErrValidation, t.ID)
		}
		if t.Posted {
			results = append(results, domain.PostingResult{Transaction: t, Applied: false, Delta: decimal.Zero})
			continue
		}

		const markPosted = `
UPDATE transactions
SET posted = TRUE,
    posted_at = $2,
    updated_at = $2
WHERE id = $1
  AND posted = FALSE`
		if _, err := execRequiredRows(ctx, tx, markPosted, t.ID, at); err != nil {
			if errors.Is(err, errNoRowsAffected) {
				results = append(results, domain.PostingResult{Transaction: t, Applied: false, Delta: decimal.Zero})
				continue
			}
			return nil, err
		}

		delta := t.SignedDelta()
		balanceAfter, err := applyBalanceDelta(ctx, tx, t.OwnerID, t.AccountType, t.Currency, delta, at)
		if err != nil {
			return nil, err
		}

		const insertAudit = `
INSERT INTO posting_audit (id, transaction_id, owner_id, account_type, currency, delta, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := tx.ExecContext(ctx, insertAudit, uuid.NewString(), t.ID, t.OwnerID, t.AccountType, t.Currency, delta, balanceAfter, at); err != nil {
			return nil, fmt.Errorf("insert posting audit: %w", err)
		}

		postedAt := at
		t.Posted = true
		t.PostedAt = &postedAt
		t.UpdatedAt = at
		results = append(results, domain.PostingResult{Transaction: t, Applied: true, Delta: delta, BalanceAfter: balanceAfter})
	}
	return results, nil
}

func approveRow(ctx context.Context, tx *sql.Tx, t domain.Transaction, approval domain.Approval) (domain.Transaction, error) {
	query := `
UPDATE transactions
SET status = $2,
    processed_by = $3,
    processed_at = $4,
    date = COALESCE($5, date),
    edited_by_admin = edited_by_admin OR $5 IS NOT NULL,
    updated_at = $4
WHERE id = $1
  AND status = ANY($6::text[])
RETURNING ` + transactionColumns

	open := domain.StoredStatusValues(domain.OpenStatuses...)
	approved, err := scanTransaction(tx.QueryRowContext(ctx, query,
		t.ID,
		domain.TransactionStatusApproved,
		approval.AdminID,
		approval.At,
		nullTime(approval.EffectiveDate),
		pq.Array(open),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, fmt.Errorf("%w: transaction %s", domain.ErrAlreadyProcessed, t.ID)
		}
		return domain.Transaction{}, fmt.Errorf("approve transaction: %w", err)
	}
	return approved, nil
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		t           domain.Transaction
		postedAt    sql.NullTime
		processedAt sql.NullTime
		metadata    []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Type,
		&t.Currency,
		&t.Amount,
		&t.AccountType,
		&t.Status,
		&t.Posted,
		&postedAt,
		&t.Reference,
		&t.CorrelationID,
		&t.Date,
		&t.EditedByAdmin,
		&t.ProcessedBy,
		&processedAt,
		&t.RejectionReason,
		&t.Channel,
		&t.Origin,
		&t.Description,
		&metadata,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	t.PostedAt = timePtr(postedAt)
	t.ProcessedAt = timePtr(processedAt)
	if err := unmarshalJSON(metadata, &t.Metadata); err != nil {
		return domain.Transaction{}, err
	}

	// Older rows may carry legacy vocabulary.
	if parsed, err := domain.ParseTransactionType(string(t.Type)); err == nil {
		t.Type = parsed
	}
	if parsed, err := domain.ParseTransactionStatus(string(t.Status)); err == nil {
		t.Status = parsed
	}
	return t, nil
}
