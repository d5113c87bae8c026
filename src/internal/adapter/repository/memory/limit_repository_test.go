package memory

import (
	"context"
	"testing"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefaults() domain.LimitDefaults {
	return domain.LimitDefaults{
		MaxTransactionAmount: decimal.NewFromInt(10000),
		DailyTransferLimit:   decimal.NewFromInt(25000),
		DailyWithdrawalLimit: decimal.NewFromInt(5000),
		AccountDailyLimits: map[domain.AccountType]decimal.Decimal{
			domain.AccountTypeChecking:   decimal.NewFromInt(10000),
			domain.AccountTypeSavings:    decimal.NewFromInt(5000),
			domain.AccountTypeInvestment: decimal.NewFromInt(5000),
		},
	}
}

func TestReserveResetsStaleCounters(t *testing.T) {
	store := NewStore()
	repo := NewLimitRepository(store)
	ctx := context.Background()

	yesterday := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	_, err := repo.Record(ctx, "u1", testDefaults(), decimal.NewFromInt(9000), domain.LimitKindTransfer, domain.AccountTypeChecking, yesterday)
	require.NoError(t, err)

	today := yesterday.Add(24 * time.Hour)
	limit, decision, err := repo.Reserve(ctx, "u1", testDefaults(), decimal.NewFromInt(5000), domain.LimitKindTransfer, domain.AccountTypeChecking, today)
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, today.Format(domain.DateLayout), limit.LastResetDate)
	assert.True(t, limit.TodayTransferred.Equal(decimal.NewFromInt(5000)))
}

func TestReserveDeniedDoesNotCount(t *testing.T) {
	store := NewStore()
	repo := NewLimitRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	_, decision, err := repo.Reserve(ctx, "u1", testDefaults(), decimal.NewFromInt(6000), domain.LimitKindTransfer, domain.AccountTypeSavings, now)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.LimitReasonAccountDaily, decision.Reason)

	limit, err := repo.Get(ctx, "u1", testDefaults(), now)
	require.NoError(t, err)
	assert.True(t, limit.TodayTransferred.IsZero())
}
