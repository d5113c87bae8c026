package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ScheduledTransferRepository struct {
	db *sql.DB
}

func NewScheduledTransferRepository(db *sql.DB) *ScheduledTransferRepository {
	return &ScheduledTransferRepository{db: db}
}

const scheduleColumns = `
id, owner_id, from_account, to_account, to_account_type, amount, currency, description,
frequency, start_date, end_date, next_execution_date, last_execution_date, status,
executed_count, total_transferred, failed_count, last_error, external_account_details,
created_at, updated_at`

func (r *ScheduledTransferRepository) Create(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}

	logger.Info("scheduled transfer repository create", logger.Fields{
		"scheduleId": schedule.ID,
		"ownerId":    schedule.OwnerID,
		"frequency":  schedule.Frequency,
	})

	details, err := marshalDetails(schedule.ExternalAccountDetails)
	if err != nil {
		return domain.ScheduledTransfer{}, err
	}

	query := `
INSERT INTO scheduled_transfers (
	id, owner_id, from_account, to_account, to_account_type, amount, currency, description,
	frequency, start_date, end_date, next_execution_date, last_execution_date, status,
	executed_count, total_transferred, failed_count, last_error, external_account_details
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
)
RETURNING ` + scheduleColumns

	created, err := scanSchedule(r.db.QueryRowContext(ctx, query,
		schedule.ID,
		schedule.OwnerID,
		schedule.FromAccount,
		schedule.ToAccount,
		schedule.ToAccountType,
		schedule.Amount,
		schedule.Currency,
		schedule.Description,
		schedule.Frequency,
		schedule.StartDate,
		nullTime(schedule.EndDate),
		schedule.NextExecutionDate,
		nullTime(schedule.LastExecutionDate),
		schedule.Status,
		schedule.ExecutedCount,
		schedule.TotalTransferred,
		schedule.FailedCount,
		schedule.LastError,
		details,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ScheduledTransfer{}, fmt.Errorf("%w: scheduled transfer %s already exists", domain.ErrValidation, schedule.ID)
		}
		logger.Error("scheduled transfer repository create failed", err, logger.Fields{"scheduleId": schedule.ID})
		return domain.ScheduledTransfer{}, fmt.Errorf("create scheduled transfer: %w", err)
	}

	logger.Info("scheduled transfer repository create success", logger.Fields{"scheduleId": created.ID})
	return created, nil
}

func (r *ScheduledTransferRepository) Get(ctx context.Context, id string) (domain.ScheduledTransfer, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transfers WHERE id = $1`

	schedule, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
		}
		logger.Error("scheduled transfer repository get failed", err, logger.Fields{"scheduleId": id})
		return domain.ScheduledTransfer{}, fmt.Errorf("get scheduled transfer: %w", err)
	}
	return schedule, nil
}

func (r *ScheduledTransferRepository) List(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledTransfer, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	query := `
SELECT ` + scheduleColumns + `
FROM scheduled_transfers
WHERE ($1 = '' OR owner_id = $1)
  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
ORDER BY created_at ASC`

	return r.query(ctx, query, filter.OwnerID, pq.Array(statuses))
}

func (r *ScheduledTransferRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTransfer, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
SELECT ` + scheduleColumns + `
FROM scheduled_transfers
WHERE status = $1
  AND next_execution_date <= $2
ORDER BY next_execution_date ASC
LIMIT $3`

	return r.query(ctx, query, domain.ScheduleStatusActive, now, limit)
}

func (r *ScheduledTransferRepository) Save(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error) {
	logger.Info("scheduled transfer repository save", logger.Fields{
		"scheduleId":  schedule.ID,
		"status":      schedule.Status,
		"failedCount": schedule.FailedCount,
	})

	// A cancel or pause that landed during the run keeps its status.
	query := `
UPDATE scheduled_transfers
SET next_execution_date = $2,
    last_execution_date = $3,
    status = CASE WHEN status = $9 THEN $4 ELSE status END,
    executed_count = $5,
    total_transferred = $6,
    failed_count = $7,
    last_error = $8,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + scheduleColumns

	saved, err := scanSchedule(r.db.QueryRowContext(ctx, query,
		schedule.ID,
		schedule.NextExecutionDate,
		nullTime(schedule.LastExecutionDate),
		schedule.Status,
		schedule.ExecutedCount,
		schedule.TotalTransferred,
		schedule.FailedCount,
		schedule.LastError,
		domain.ScheduleStatusActive,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
		}
		logger.Error("scheduled transfer repository save failed", err, logger.Fields{"scheduleId": schedule.ID})
		return domain.ScheduledTransfer{}, fmt.Errorf("save scheduled transfer: %w", err)
	}
	return saved, nil
}

func (r *ScheduledTransferRepository) UpdateStatus(ctx context.Context, id string, from []domain.ScheduleStatus, to domain.ScheduleStatus) (domain.ScheduledTransfer, error) {
	logger.Info("scheduled transfer repository update status", logger.Fields{
		"scheduleId": id,
		"to":         to,
	})

	allowed := make([]string, 0, len(from))
	for _, status := range from {
		allowed = append(allowed, string(status))
	}

	query := `
UPDATE scheduled_transfers
SET status = $2,
    failed_count = CASE WHEN $2 = 'active' THEN 0 ELSE failed_count END,
    updated_at = NOW()
WHERE id = $1
  AND status = ANY($3::text[])
RETURNING ` + scheduleColumns

	updated, err := scanSchedule(r.db.QueryRowContext(ctx, query, id, to, pq.Array(allowed)))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error("scheduled transfer repository update status failed", err, logger.Fields{"scheduleId": id})
		return domain.ScheduledTransfer{}, fmt.Errorf("update scheduled transfer status: %w", err)
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return domain.ScheduledTransfer{}, getErr
	}
	return domain.ScheduledTransfer{}, fmt.Errorf("%w: scheduled transfer is %s", domain.ErrValidation, current.Status)
}

func (r *ScheduledTransferRepository) query(ctx context.Context, query string, args ...any) ([]domain.ScheduledTransfer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("scheduled transfer repository query failed", err, nil)
		return nil, fmt.Errorf("query scheduled transfers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ScheduledTransfer, 0)
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled transfer: %w", err)
		}
		out = append(out, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled transfers: %w", err)
	}
	return out, nil
}

func marshalDetails(details *domain.ExternalAccountDetails) (any, error) {
	if details == nil {
		return nil, nil
	}
	return marshalJSON(details)
}

func scanSchedule(row rowScanner) (domain.ScheduledTransfer, error) {
	var (
		s             domain.ScheduledTransfer
		endDate       sql.NullTime
		lastExecution sql.NullTime
		details       []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.FromAccount,
		&s.ToAccount,
		&s.ToAccountType,
		&s.Amount,
		&s.Currency,
		&s.Description,
		&s.Frequency,
		&s.StartDate,
		&endDate,
		&s.NextExecutionDate,
		&lastExecution,
		&s.Status,
		&s.ExecutedCount,
		&s.TotalTransferred,
		&s.FailedCount,
		&s.LastError,
		&details,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return domain.ScheduledTransfer{}, err
	}

	s.EndDate = timePtr(endDate)
	s.LastExecutionDate = timePtr(lastExecution)
	if len(details) > 0 {
		var d domain.ExternalAccountDetails
		if err := unmarshalJSON(details, &d); err != nil {
			return domain.ScheduledTransfer{}, err
		}
		s.ExternalAccountDetails = &d
	}
	return s, nil
}
