package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestMonthlyKeepsAnchorDayAndClamps(t *testing.T) {
	anchor := date(2025, time.January, 31)

	want := []time.Time{
		date(2025, time.February, 28),
		date(2025, time.March, 31),
		date(2025, time.April, 30),
		date(2025, time.May, 31),
	}

	next := anchor
	for _, w := range want {
		next = FrequencyMonthly.NextAfter(anchor, next)
		assert.Equal(t, w, next)
	}
}

func TestMonthlyLeapYear(t *testing.T) {
	anchor := date(2024, time.January, 31)
	assert.Equal(t, date(2024, time.February, 29), FrequencyMonthly.NextAfter(anchor, anchor))
}

func TestNextAfterSkipsMissedPeriods(t *testing.T) {
	anchor := date(2025, time.January, 6)
	assert.Equal(t, date(2025, time.January, 13), FrequencyWeekly.NextAfter(anchor, anchor))
	assert.Equal(t, date(2025, time.March, 3), FrequencyWeekly.NextAfter(anchor, date(2025, time.February, 28)))
	assert.Equal(t, date(2025, time.January, 20), FrequencyBiweekly.NextAfter(anchor, anchor))
	assert.Equal(t, date(2025, time.April, 6), FrequencyQuarterly.NextAfter(anchor, anchor))
	assert.Equal(t, date(2026, time.January, 6), FrequencyAnnually.NextAfter(anchor, anchor))
	assert.Equal(t, date(2025, time.January, 7), FrequencyDaily.NextAfter(anchor, anchor))
}

func TestRecordFailurePausesAfterThree(t *testing.T) {
	s := ScheduledTransfer{
		Frequency:         FrequencyDaily,
		StartDate:         date(2025, time.January, 1),
		NextExecutionDate: date(2025, time.January, 1),
		Status:            ScheduleStatusActive,
		Amount:            decimal.NewFromInt(10),
	}

	for i := 1; i <= 2; i++ {
		s.RecordFailure(errors.New("insufficient"))
		assert.Equal(t, ScheduleStatusActive, s.Status)
		assert.Equal(t, i, s.FailedCount)
	}
	s.RecordFailure(errors.New("insufficient"))
	assert.Equal(t, ScheduleStatusPaused, s.Status)
	assert.Equal(t, date(2025, time.January, 4), s.NextExecutionDate)
	assert.False(t, s.IsDue(date(2025, time.February, 1)))
}

func TestRecordSuccessCompletesPastEndDate(t *testing.T) {
	end := date(2025, time.January, 2)
	s := ScheduledTransfer{
		Frequency:         FrequencyDaily,
		StartDate:         date(2025, time.January, 1),
		EndDate:           &end,
		NextExecutionDate: date(2025, time.January, 1),
		Status:            ScheduleStatusActive,
		Amount:            decimal.NewFromInt(10),
		TotalTransferred:  decimal.Zero,
		FailedCount:       2,
	}

	s.RecordSuccess(date(2025, time.January, 1))
	assert.Equal(t, ScheduleStatusActive, s.Status)
	assert.Equal(t, 0, s.FailedCount)

	s.RecordSuccess(date(2025, time.January, 2))
	assert.Equal(t, ScheduleStatusCompleted, s.Status)
	assert.Equal(t, 2, s.ExecutedCount)
	assert.True(t, s.TotalTransferred.Equal(decimal.NewFromInt(20)))
}

func TestScheduleValidate(t *testing.T) {
	s := ScheduledTransfer{
		OwnerID:       "owner-1",
		FromAccount:   AccountTypeChecking,
		ToAccount:     "checking",
		ToAccountType: DestinationInternal,
		Amount:        decimal.NewFromInt(10),
		Frequency:     FrequencyMonthly,
		StartDate:     date(2025, time.January, 1),
	}
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be the same")

	s.ToAccount = "savings"
	assert.NoError(t, s.Validate())

	s.ToAccountType = DestinationExternal
	assert.ErrorIs(t, s.Validate(), ErrValidation)
}
