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
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateHolder inserts the holder together with a zero balance row for every
// (account type, currency) pair.
func (r *AccountRepository) CreateHolder(ctx context.Context, holder domain.Holder) (domain.Holder, error) {
	if holder.ID == "" {
		holder.ID = uuid.NewString()
	}
	holder.Email = strings.ToLower(strings.TrimSpace(holder.Email))

	logger.Info("account repository create holder", logger.Fields{
		"holderId": holder.ID,
		"email":    holder.Email,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("account repository begin tx failed", err, nil)
		return domain.Holder{}, fmt.Errorf("begin create holder transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	const insertHolder = `
INSERT INTO holders (id, email, full_name, phone_number, account_number, routing_number)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`

	if err = tx.QueryRowContext(ctx, insertHolder,
		holder.ID,
		holder.Email,
		holder.FullName,
		holder.PhoneNumber,
		holder.AccountNumber,
		holder.RoutingNumber,
	).Scan(&holder.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("%w: holder already exists", domain.ErrValidation)
			return domain.Holder{}, err
		}
		logger.Error("account repository create holder failed", err, logger.Fields{"holderId": holder.ID})
		return domain.Holder{}, fmt.Errorf("create holder: %w", err)
	}

	const insertBalance = `
INSERT INTO balances (owner_id, account_type, currency, amount)
VALUES ($1, $2, $3, 0)`

	for _, accountType := range domain.AccountTypes {
		for _, currency := range []domain.Currency{domain.CurrencyUSD, domain.CurrencyBTC} {
			if _, err = tx.ExecContext(ctx, insertBalance, holder.ID, accountType, currency); err != nil {
				logger.Error("account repository open balance failed", err, logger.Fields{
					"holderId":    holder.ID,
					"accountType": accountType,
					"currency":    currency,
				})
				return domain.Holder{}, fmt.Errorf("open balance row: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		logger.Error("account repository commit tx failed", err, nil)
		return domain.Holder{}, fmt.Errorf("commit create holder transaction: %w", err)
	}

	logger.Info("account repository create holder success", logger.Fields{"holderId": holder.ID})
	return holder, nil
}

func (r *AccountRepository) GetHolder(ctx context.Context, id string) (domain.Holder, error) {
	return r.findHolder(ctx, `WHERE id = $1`, strings.TrimSpace(id))
}

func (r *AccountRepository) FindHolderByEmail(ctx context.Context, email string) (domain.Holder, error) {
	return r.findHolder(ctx, `WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *AccountRepository) FindHolderByAccountNumber(ctx context.Context, accountNumber string, routingNumber string) (domain.Holder, error) {
	return r.findHolder(ctx, `WHERE account_number = $1 AND routing_number = $2`,
		strings.TrimSpace(accountNumber), strings.TrimSpace(routingNumber))
}

func (r *AccountRepository) findHolder(ctx context.Context, where string, args ...any) (domain.Holder, error) {
	query := `
SELECT id, email, full_name, phone_number, account_number, routing_number, created_at
FROM holders
` + where + `
LIMIT 1`

	var holder domain.Holder
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&holder.ID,
		&holder.Email,
		&holder.FullName,
		&holder.PhoneNumber,
		&holder.AccountNumber,
		&holder.RoutingNumber,
		&holder.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Holder{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository find holder failed", err, nil)
		return domain.Holder{}, fmt.Errorf("find holder: %w", err)
	}
	return holder, nil
}

func (r *AccountRepository) GetBalance(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error) {
	const query = `
SELECT amount
FROM balances
WHERE owner_id = $1 AND account_type = $2 AND currency = $3`

	var amount decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, ownerID, accountType, currency).Scan(&amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.ErrRecordNotFound
		}
		logger.Error("account repository get balance failed", err, logger.Fields{
			"ownerId":     ownerID,
			"accountType": accountType,
			"currency":    currency,
		})
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return amount, nil
}

// ApplyDelta moves a single balance row without a ledger entry. Debits only
// succeed while the row stays non-negative.
func (r *AccountRepository) ApplyDelta(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	logger.Info("account repository apply delta", logger.Fields{
		"ownerId":     ownerID,
		"accountType": accountType,
		"currency":    currency,
		"delta":       delta,
	})

	next, err := applyBalanceDelta(ctx, r.db, ownerID, accountType, currency, delta, time.Now().UTC())
	if err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

func (r *AccountRepository) ListBalances(ctx context.Context, ownerID string) ([]domain.Balance, error) {
	const query = `
SELECT owner_id, account_type, currency, amount, updated_at
FROM balances
WHERE owner_id = $1
ORDER BY account_type ASC, currency ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.Error("account repository list balances failed", err, logger.Fields{"ownerId": ownerID})
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()

	balances := make([]domain.Balance, 0, 6)
	for rows.Next() {
		var balance domain.Balance
		if err := rows.Scan(
			&balance.OwnerID,
			&balance.AccountType,
			&balance.Currency,
			&balance.Amount,
			&balance.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		balances = append(balances, balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}
	if len(balances) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return balances, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// applyBalanceDelta is the conditional balance update shared by posting and
// ApplyDelta. The WHERE clause makes the non-negative check and the write a
// single statement.
func applyBalanceDelta(ctx context.Context, q queryRower, ownerID string, accountType domain.AccountType, currency domain.Currency, delta decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	const update = `
UPDATE balances
SET amount = amount + $4::numeric,
    updated_at = $5
WHERE owner_id = $1
  AND account_type = $2
  AND currency = $3
  AND amount + $4::numeric >= 0
RETURNING amount`

	var next decimal.Decimal
	err := q.QueryRowContext(ctx, update, ownerID, accountType, currency, delta, at).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error("balance update failed", err, logger.Fields{
			"ownerId":     ownerID,
			"accountType": accountType,
			"currency":    currency,
		})
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	const exists = `
SELECT 1 FROM balances WHERE owner_id = $1 AND account_type = $2 AND currency = $3`
	var one int
	if err := q.QueryRowContext(ctx, exists, ownerID, accountType, currency).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: balance row for owner %s", domain.ErrRecordNotFound, ownerID)
		}
		return decimal.Zero, fmt.Errorf("check balance row: %w", err)
	}
	return decimal.Zero, domain.ErrInsufficientFunds
}
