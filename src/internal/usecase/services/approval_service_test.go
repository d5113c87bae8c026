package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, f *fixture, ownerID string, txType domain.TransactionType, amount string) domain.Transaction {
	t.Helper()
	tx, err := f.approvals.Submit(context.Background(), domain.Transaction{
		OwnerID:     ownerID,
		Type:        txType,
		Amount:      amountOf(amount),
		AccountType: domain.AccountTypeChecking,
	})
	require.NoError(t, err)
	return tx
}

func TestSubmitThenApproveAppliesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	deposit := submit(t, f, "u1", domain.TransactionTypeDeposit, "250")
	assert.Equal(t, domain.TransactionStatusPending, deposit.Status)
	assert.Equal(t, domain.CurrencyUSD, deposit.Currency)
	assertAmount(t, "0", f.balance(t, "u1", domain.AccountTypeChecking))

	approved, err := f.approvals.Approve(ctx, deposit.ID, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.ProcessedBy)
	assert.True(t, approved.Posted)
	assertAmount(t, "250", f.balance(t, "u1", domain.AccountTypeChecking))

	_, err = f.approvals.Approve(ctx, deposit.ID, "admin-2", nil)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assertAmount(t, "250", f.balance(t, "u1", domain.AccountTypeChecking))

	f.dispatcher.Flush()
	assert.Len(t, f.notifier.byTemplate(domain.NotificationTransactionApproved), 1)
}

func TestConcurrentApprovalsApplyOnce(t *testing.T) {
	f := newFixture(t)
	f.holder(t, "u1")
	deposit := submit(t, f, "u1", domain.TransactionTypeDeposit, "75")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.approvals.Approve(context.Background(), deposit.ID, "admin", nil); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assertAmount(t, "75", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestApproveWithoutFundsStaysPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "20")

	withdrawal := submit(t, f, "u1", domain.TransactionTypeWithdraw, "50")
	_, err := f.approvals.Approve(ctx, withdrawal.ID, "admin-1", nil)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	stored, err := f.txs.Get(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, stored.Status)
	assert.False(t, stored.Posted)
	assertAmount(t, "20", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestRejectedTransactionCannotBeApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	deposit := submit(t, f, "u1", domain.TransactionTypeDeposit, "40")
	rejected, err := f.approvals.Reject(ctx, deposit.ID, "admin-1", " duplicate ")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.RejectionReason)

	_, err = f.approvals.Approve(ctx, deposit.ID, "admin-1", nil)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assertAmount(t, "0", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestRejectingExternalTransferReleasesDailyLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "1000")

	result, err := f.transfers.CreateTransfer(ctx, domain.TransferRequest{
		OwnerID:  "u1",
		Class:    domain.TransferClassACH,
		Amount:   amountOf("100"),
		Urgent:   true,
		External: achDetails(),
	})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assertAmount(t, "113", limits.TodayTransferred)

	for _, leg := range result.Transactions {
		_, err := f.approvals.Reject(ctx, leg.ID, "admin-1", "beneficiary bank unreachable")
		require.NoError(t, err)
	}

	limits, err = f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, limits.TodayTransferred.IsZero())
	assert.True(t, limits.TodayByAccount[domain.AccountTypeChecking].IsZero())
	assertAmount(t, "1000", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestRejectingBackOfficeMovementLeavesLimitsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "1000")

	_, err := f.transfers.CreateTransfer(ctx, internalTransfer("u1", "200"))
	require.NoError(t, err)
	fee := submit(t, f, "u1", domain.TransactionTypeFee, "15")

	_, err = f.approvals.Reject(ctx, fee.ID, "admin-1", "waived")
	require.NoError(t, err)

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assertAmount(t, "200", limits.TodayTransferred)
}

func TestApproveWithEffectiveDateMarksAdminEdit(t *testing.T) {
	f := newFixture(t)
	f.holder(t, "u1")
	deposit := submit(t, f, "u1", domain.TransactionTypeDeposit, "10")

	effective := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	approved, err := f.approvals.Approve(context.Background(), deposit.ID, "admin-1", &effective)
	require.NoError(t, err)
	assert.True(t, approved.EditedByAdmin)
	assert.True(t, approved.Date.Equal(effective))
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	_, err := f.approvals.Submit(ctx, domain.Transaction{
		OwnerID:     "u1",
		Type:        domain.TransactionTypeDeposit,
		Amount:      amountOf("10"),
		AccountType: domain.AccountTypeChecking,
		Status:      domain.TransactionStatusApproved,
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.approvals.Submit(ctx, domain.Transaction{
		OwnerID:     "ghost",
		Type:        domain.TransactionTypeDeposit,
		Amount:      amountOf("10"),
		AccountType: domain.AccountTypeChecking,
	})
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = f.approvals.Approve(ctx, "missing", "", nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestListPendingDefaultsToOpenStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	first := submit(t, f, "u1", domain.TransactionTypeDeposit, "10")
	submit(t, f, "u1", domain.TransactionTypeDeposit, "20")
	_, err := f.approvals.Approve(ctx, first.ID, "admin-1", nil)
	require.NoError(t, err)

	pending, err := f.approvals.ListPending(ctx, domain.TransactionFilter{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assertAmount(t, "20", pending[0].Amount)
}
