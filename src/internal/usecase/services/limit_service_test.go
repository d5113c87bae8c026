package services_test

import (
	"context"
	"testing"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLimitDoesNotRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	decision, err := f.limits.CheckLimit(ctx, "u1", amountOf("4000"), domain.LimitKindTransfer, domain.AccountTypeChecking)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assertAmount(t, "21000", decision.Remaining)

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, limits.TodayTransferred.IsZero())
}

func TestCheckLimitAccountCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.limits.RecordUsage(ctx, "u1", amountOf("4500"), domain.LimitKindTransfer, domain.AccountTypeSavings)
	require.NoError(t, err)

	decision, err := f.limits.CheckLimit(ctx, "u1", amountOf("600"), domain.LimitKindTransfer, domain.AccountTypeSavings)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.LimitReasonAccountDaily, decision.Reason)

	aggregate, err := f.limits.CheckLimit(ctx, "u1", amountOf("600"), domain.LimitKindTransfer, "")
	require.NoError(t, err)
	assert.True(t, aggregate.Allowed)
}

func TestReserveAndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.limits.Reserve(ctx, "u1", amountOf("3000"), domain.LimitKindWithdrawal, domain.AccountTypeChecking)
	require.NoError(t, err)

	_, err = f.limits.Reserve(ctx, "u1", amountOf("2500"), domain.LimitKindWithdrawal, domain.AccountTypeChecking)
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
	assert.Contains(t, err.Error(), domain.LimitReasonDailyWithdraw)

	require.NoError(t, f.limits.Release(ctx, "u1", amountOf("3000"), domain.LimitKindWithdrawal, domain.AccountTypeChecking))

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, limits.TodayWithdrawn.IsZero())
	assert.True(t, limits.TodayByAccount[domain.AccountTypeChecking].IsZero())
}

func TestUpdateLimitsDisablesChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	disabled := false
	updated, err := f.limits.UpdateLimits(ctx, "u1", domain.LimitUpdate{LimitsEnabled: &disabled})
	require.NoError(t, err)
	assert.False(t, updated.LimitsEnabled)

	decision, err := f.limits.CheckLimit(ctx, "u1", amountOf("99999"), domain.LimitKindTransfer, domain.AccountTypeChecking)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimitInputValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.limits.CheckLimit(ctx, "", amountOf("1"), domain.LimitKindTransfer, "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.limits.CheckLimit(ctx, "u1", amountOf("0"), domain.LimitKindTransfer, "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.limits.CheckLimit(ctx, "u1", amountOf("1"), domain.LimitKindTransfer, domain.AccountType("brokerage"))
	require.ErrorIs(t, err, domain.ErrValidation)
}
