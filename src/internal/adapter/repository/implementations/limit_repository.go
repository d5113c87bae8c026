package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

type LimitRepository struct {
	db *sql.DB
}

func NewLimitRepository(db *sql.DB) *LimitRepository {
	return &LimitRepository{db: db}
}

const limitColumns = `
owner_id, limits_enabled, max_transaction_amount, daily_transfer_limit, daily_withdrawal_limit,
account_daily_limits, today_transferred, today_withdrawn, today_by_account, last_reset_date,
created_at, updated_at`

func (r *LimitRepository) Get(ctx context.Context, ownerID string, defaults domain.LimitDefaults, now time.Time) (domain.TransactionLimit, error) {
	limit, _, err := r.withLockedLimit(ctx, ownerID, defaults, now, func(*domain.TransactionLimit) (bool, domain.LimitDecision, error) {
		return false, domain.LimitDecision{}, nil
	})
	return limit, err
}

func (r *LimitRepository) Reserve(ctx context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, domain.LimitDecision, error) {
	logger.Info("limit repository reserve", logger.Fields{
		"ownerId":     ownerID,
		"amount":      amount,
		"kind":        kind,
		"accountType": accountType,
	})

	return r.withLockedLimit(ctx, ownerID, defaults, now, func(limit *domain.TransactionLimit) (bool, domain.LimitDecision, error) {
		decision := limit.Evaluate(amount, kind, accountType)
		if !decision.Allowed {
			return false, decision, nil
		}
		limit.Record(amount, kind, accountType, now)
		return true, decision, nil
	})
}

func (r *LimitRepository) Record(ctx context.Context, ownerID string, defaults domain.LimitDefaults, amount decimal.Decimal, kind domain.LimitKind, accountType domain.AccountType, now time.Time) (domain.TransactionLimit, error) {
	logger.Info("limit repository record", logger.Fields{
		"ownerId":     ownerID,
		"amount":      amount,
		"kind":        kind,
		"accountType": accountType,
	})

	limit, _, err := r.withLockedLimit(ctx, ownerID, defaults, now, func(limit *domain.TransactionLimit) (bool, domain.LimitDecision, error) {
		limit.Record(amount, kind, accountType, now)
		return true, domain.LimitDecision{}, nil
	})
	return limit, err
}

func (r *LimitRepository) Update(ctx context.Context, ownerID string, defaults domain.LimitDefaults, update domain.LimitUpdate, now time.Time) (domain.TransactionLimit, error) {
	logger.Info("limit repository update", logger.Fields{"ownerId": ownerID})

	limit, _, err := r.withLockedLimit(ctx, ownerID, defaults, now, func(limit *domain.TransactionLimit) (bool, domain.LimitDecision, error) {
		if err := update.Apply(limit, now); err != nil {
			return false, domain.LimitDecision{}, err
		}
		return true, domain.LimitDecision{}, nil
	})
	return limit, err
}

// withLockedLimit loads the owner's record under SELECT ... FOR UPDATE,
// creating it from defaults on first touch and applying the day rollover,
// then persists it when fn or the rollover changed it.
func (r *LimitRepository) withLockedLimit(
	ctx context.Context,
	ownerID string,
	defaults domain.LimitDefaults,
	now time.Time,
	fn func(*domain.TransactionLimit) (bool, domain.LimitDecision, error),
) (domain.TransactionLimit, domain.LimitDecision, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("limit repository begin tx failed", err, nil)
		return domain.TransactionLimit{}, domain.LimitDecision{}, fmt.Errorf("begin limit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	if err = insertDefaultLimit(ctx, tx, domain.NewTransactionLimit(ownerID, defaults, now)); err != nil {
		return domain.TransactionLimit{}, domain.LimitDecision{}, err
	}

	query := `SELECT ` + limitColumns + ` FROM transaction_limits WHERE owner_id = $1 FOR UPDATE`
	var limit domain.TransactionLimit
	if limit, err = scanLimit(tx.QueryRowContext(ctx, query, ownerID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrRecordNotFound
			return domain.TransactionLimit{}, domain.LimitDecision{}, err
		}
		logger.Error("limit repository lock failed", err, logger.Fields{"ownerId": ownerID})
		return domain.TransactionLimit{}, domain.LimitDecision{}, fmt.Errorf("lock limit: %w", err)
	}

	dirty := limit.ResetIfStale(now)

	var (
		changed  bool
		decision domain.LimitDecision
	)
	if changed, decision, err = fn(&limit); err != nil {
		return domain.TransactionLimit{}, domain.LimitDecision{}, err
	}

	if dirty || changed {
		if err = saveLimit(ctx, tx, limit); err != nil {
			return domain.TransactionLimit{}, domain.LimitDecision{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		logger.Error("limit repository commit tx failed", err, nil)
		return domain.TransactionLimit{}, domain.LimitDecision{}, fmt.Errorf("commit limit transaction: %w", err)
	}
	return limit, decision, nil
}

func insertDefaultLimit(ctx context.Context, tx *sql.Tx, limit domain.TransactionLimit) error {
	accountLimits, err := marshalJSON(limit.AccountDailyLimits)
	if err != nil {
		return err
	}
	counters, err := marshalJSON(limit.TodayByAccount)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO transaction_limits (
	owner_id, limits_enabled, max_transaction_amount, daily_transfer_limit, daily_withdrawal_limit,
	account_daily_limits, today_transferred, today_withdrawn, today_by_account, last_reset_date,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (owner_id) DO NOTHING`

	if _, err := tx.ExecContext(ctx, query,
		limit.OwnerID,
		limit.LimitsEnabled,
		limit.MaxTransactionAmount,
		limit.DailyTransferLimit,
		limit.DailyWithdrawalLimit,
		accountLimits,
		limit.TodayTransferred,
		limit.TodayWithdrawn,
		counters,
		limit.LastResetDate,
		limit.CreatedAt,
	); err != nil {
		logger.Error("limit repository insert default failed", err, logger.Fields{"ownerId": limit.OwnerID})
		return fmt.Errorf("insert default limit: %w", err)
	}
	return nil
}

func saveLimit(ctx context.Context, tx *sql.Tx, limit domain.TransactionLimit) error {
	accountLimits, err := marshalJSON(limit.AccountDailyLimits)
	if err != nil {
		return err
	}
	counters, err := marshalJSON(limit.TodayByAccount)
	if err != nil {
		return err
	}

	const query = `
UPDATE transaction_limits
SET limits_enabled = $2,
    max_transaction_amount = $3,
    daily_transfer_limit = $4,
    daily_withdrawal_limit = $5,
    account_daily_limits = $6,
    today_transferred = $7,
    today_withdrawn = $8,
    today_by_account = $9,
    last_reset_date = $10,
    updated_at = $11
WHERE owner_id = $1`

	if _, err := execRequiredRows(ctx, tx, query,
		limit.OwnerID,
		limit.LimitsEnabled,
		limit.MaxTransactionAmount,
		limit.DailyTransferLimit,
		limit.DailyWithdrawalLimit,
		accountLimits,
		limit.TodayTransferred,
		limit.TodayWithdrawn,
		counters,
		limit.LastResetDate,
		limit.UpdatedAt,
	); err != nil {
		logger.Error("limit repository save failed", err, logger.Fields{"ownerId": limit.OwnerID})
		return fmt.Errorf("save limit: %w", err)
	}
	return nil
}

func scanLimit(row rowScanner) (domain.TransactionLimit, error) {
	var (
		l             domain.TransactionLimit
		accountLimits []byte
		counters      []byte
	)
	if err := row.Scan(
		&l.OwnerID,
		&l.LimitsEnabled,
		&l.MaxTransactionAmount,
		&l.DailyTransferLimit,
		&l.DailyWithdrawalLimit,
		&accountLimits,
		&l.TodayTransferred,
		&l.TodayWithdrawn,
		&counters,
		&l.LastResetDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return domain.TransactionLimit{}, err
	}

	l.AccountDailyLimits = make(map[domain.AccountType]decimal.Decimal)
	l.TodayByAccount = make(map[domain.AccountType]decimal.Decimal)
	if err := unmarshalJSON(accountLimits, &l.AccountDailyLimits); err != nil {
		return domain.TransactionLimit{}, err
	}
	if err := unmarshalJSON(counters, &l.TodayByAccount); err != nil {
		return domain.TransactionLimit{}, err
	}
	return l, nil
}
