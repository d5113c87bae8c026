package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testLimit(now time.Time) TransactionLimit {
	return NewTransactionLimit("owner-1", LimitDefaults{
		MaxTransactionAmount: decimal.NewFromInt(10000),
		DailyTransferLimit:   decimal.NewFromInt(25000),
		DailyWithdrawalLimit: decimal.NewFromInt(5000),
		AccountDailyLimits: map[AccountType]decimal.Decimal{
			AccountTypeChecking: decimal.NewFromInt(10000),
			AccountTypeSavings:  decimal.NewFromInt(5000),
		},
	}, now)
}

func TestEvaluateOrder(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := testLimit(now)

	d := l.Evaluate(decimal.NewFromInt(10001), LimitKindTransfer, AccountTypeChecking)
	assert.False(t, d.Allowed)
	assert.Equal(t, LimitReasonPerTransaction, d.Reason)

	l.Record(decimal.NewFromInt(9000), LimitKindTransfer, AccountTypeChecking, now)
	d = l.Evaluate(decimal.NewFromInt(2000), LimitKindTransfer, AccountTypeChecking)
	assert.False(t, d.Allowed)
	assert.Equal(t, LimitReasonAccountDaily, d.Reason)

	d = l.Evaluate(decimal.NewFromInt(2000), LimitKindTransfer, AccountTypeInvestment)
	assert.True(t, d.Allowed)
	assert.True(t, d.Remaining.Equal(decimal.NewFromInt(14000)), d.Remaining.String())

	d = l.Evaluate(decimal.NewFromInt(5001), LimitKindWithdrawal, "")
	assert.False(t, d.Allowed)
	assert.Equal(t, LimitReasonDailyWithdraw, d.Reason)
}

func TestEvaluateDisabledAllowsEverything(t *testing.T) {
	now := time.Now().UTC()
	l := testLimit(now)
	l.LimitsEnabled = false

	d := l.Evaluate(decimal.NewFromInt(1_000_000), LimitKindTransfer, AccountTypeChecking)
	assert.True(t, d.Allowed)
}

func TestRecordReleaseFloorsAtZero(t *testing.T) {
	now := time.Now().UTC()
	l := testLimit(now)

	l.Record(decimal.NewFromInt(100), LimitKindTransfer, AccountTypeSavings, now)
	l.Record(decimal.NewFromInt(-300), LimitKindTransfer, AccountTypeSavings, now)
	assert.True(t, l.TodayTransferred.IsZero())
	assert.True(t, l.TodayByAccount[AccountTypeSavings].IsZero())
}

func TestResetIfStale(t *testing.T) {
	day1 := time.Date(2025, time.March, 1, 23, 0, 0, 0, time.UTC)
	l := testLimit(day1)
	l.Record(decimal.NewFromInt(500), LimitKindWithdrawal, AccountTypeChecking, day1)

	assert.False(t, l.ResetIfStale(day1.Add(30*time.Minute)))
	assert.True(t, l.ResetIfStale(day1.Add(2*time.Hour)))
	assert.True(t, l.TodayWithdrawn.IsZero())
	assert.Equal(t, "2025-03-02", l.LastResetDate)
}

func TestLimitUpdateRejectsNegative(t *testing.T) {
	l := testLimit(time.Now().UTC())
	negative := decimal.NewFromInt(-1)

	err := LimitUpdate{DailyTransferLimit: &negative}.Apply(&l, time.Now().UTC())
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, l.DailyTransferLimit.Equal(decimal.NewFromInt(25000)))
}
