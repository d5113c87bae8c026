//go:build integration

package implementations

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the database named by LEDGER_TEST_DSN and applies
// the migrations. Each test creates its own holder, so runs can share a
// database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("LEDGER_TEST_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db, "../../../../migrations"))
	return db
}

func newTestHolder(t *testing.T, accounts *AccountRepository, funded string) domain.Holder {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	holder, err := accounts.CreateHolder(ctx, domain.Holder{ID: id, Email: id + "@example.com", FullName: "Integration " + id[:8]})
	require.NoError(t, err)

	if funded != "" {
		_, err = accounts.ApplyDelta(ctx, holder.ID, domain.AccountTypeChecking, domain.CurrencyUSD, decimal.RequireFromString(funded))
		require.NoError(t, err)
	}
	return holder
}

func TestIntegrationPostAppliesOnceUnderContention(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	txs := NewTransactionRepository(db)
	holder := newTestHolder(t, accounts, "100")

	created, err := txs.Create(ctx, []domain.Transaction{{
		OwnerID:     holder.ID,
		Type:        domain.TransactionTypeWithdraw,
		Currency:    domain.CurrencyUSD,
		Amount:      decimal.NewFromInt(40),
		AccountType: domain.AccountTypeChecking,
		Status:      domain.TransactionStatusApproved,
	}})
	require.NoError(t, err)
	id := created[0].ID

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := txs.Post(ctx, []string{id}, time.Now().UTC())
			if !assert.NoError(t, err) {
				return
			}
			if results[0].Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)

	balance, err := accounts.GetBalance(ctx, holder.ID, domain.AccountTypeChecking, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60).Equal(balance), "balance %s", balance)

	audit, err := txs.ListAudit(ctx, id)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.True(t, decimal.NewFromInt(-40).Equal(audit[0].Delta))
}

func TestIntegrationCreateAndPostRollsBackOnOverdraft(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	txs := NewTransactionRepository(db)
	holder := newTestHolder(t, accounts, "50")

	correlation := uuid.NewString()
	_, err := txs.CreateAndPost(ctx, []domain.Transaction{
		{
			OwnerID: holder.ID, Type: domain.TransactionTypeTransferOut, Currency: domain.CurrencyUSD,
			Amount: decimal.NewFromInt(80), AccountType: domain.AccountTypeChecking,
			Status: domain.TransactionStatusApproved, CorrelationID: correlation,
		},
		{
			OwnerID: holder.ID, Type: domain.TransactionTypeTransferIn, Currency: domain.CurrencyUSD,
			Amount: decimal.NewFromInt(80), AccountType: domain.AccountTypeSavings,
			Status: domain.TransactionStatusApproved, CorrelationID: correlation,
		},
	}, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	legs, err := txs.List(ctx, domain.TransactionFilter{CorrelationID: correlation})
	require.NoError(t, err)
	assert.Empty(t, legs)

	balance, err := accounts.GetBalance(ctx, holder.ID, domain.AccountTypeChecking, domain.CurrencyUSD)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(balance))
}

func TestIntegrationApplyBalanceDeltaGuardsZero(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	holder := newTestHolder(t, accounts, "25")

	_, err := applyBalanceDelta(ctx, db, holder.ID, domain.AccountTypeChecking, domain.CurrencyUSD, decimal.NewFromInt(-26), time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	next, err := applyBalanceDelta(ctx, db, holder.ID, domain.AccountTypeChecking, domain.CurrencyUSD, decimal.NewFromInt(-25), time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, next.IsZero())

	_, err = applyBalanceDelta(ctx, db, uuid.NewString(), domain.AccountTypeChecking, domain.CurrencyUSD, decimal.NewFromInt(1), time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestIntegrationLegacyProcessingRowIsStillOpen(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	txs := NewTransactionRepository(db)
	holder := newTestHolder(t, accounts, "")

	created, err := txs.Create(ctx, []domain.Transaction{
		{OwnerID: holder.ID, Type: domain.TransactionTypeDeposit, Currency: domain.CurrencyUSD, Amount: decimal.NewFromInt(30), AccountType: domain.AccountTypeChecking, Status: domain.TransactionStatusPending},
		{OwnerID: holder.ID, Type: domain.TransactionTypeFee, Currency: domain.CurrencyUSD, Amount: decimal.NewFromInt(5), AccountType: domain.AccountTypeChecking, Status: domain.TransactionStatusPending},
	})
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `UPDATE transactions SET status = 'processing' WHERE owner_id = $1`, holder.ID)
	require.NoError(t, err)

	open, err := txs.List(ctx, domain.TransactionFilter{OwnerID: holder.ID, Statuses: domain.OpenStatuses})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	results, err := txs.Approve(ctx, []string{created[0].ID}, domain.Approval{AdminID: "admin-1", At: time.Now().UTC()})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, results[0].Transaction.Status)
	assert.True(t, results[0].Applied)

	rejected, err := txs.Reject(ctx, created[1].ID, domain.Rejection{AdminID: "admin-1", Reason: "waived", At: time.Now().UTC()})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, rejected.Status)
}

func TestIntegrationScheduleSaveKeepsConcurrentCancel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	accounts := NewAccountRepository(db)
	schedules := NewScheduledTransferRepository(db)
	holder := newTestHolder(t, accounts, "")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := schedules.Create(ctx, domain.ScheduledTransfer{
		OwnerID:           holder.ID,
		FromAccount:       domain.AccountTypeChecking,
		ToAccount:         "savings",
		ToAccountType:     domain.DestinationInternal,
		Amount:            decimal.NewFromInt(10),
		Currency:          domain.CurrencyUSD,
		Frequency:         domain.FrequencyWeekly,
		StartDate:         start,
		NextExecutionDate: start,
		Status:            domain.ScheduleStatusActive,
	})
	require.NoError(t, err)

	run := created
	_, err = schedules.UpdateStatus(ctx, created.ID, []domain.ScheduleStatus{domain.ScheduleStatusActive}, domain.ScheduleStatusCancelled)
	require.NoError(t, err)

	run.RecordSuccess(start)
	saved, err := schedules.Save(ctx, run)
	require.NoError(t, err)

	assert.Equal(t, domain.ScheduleStatusCancelled, saved.Status)
	assert.Equal(t, 1, saved.ExecutedCount)
	assert.True(t, saved.NextExecutionDate.Equal(start.AddDate(0, 0, 7)))
}
