package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

func ParseFrequency(raw string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(raw))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyBiweekly:
		return FrequencyBiweekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyQuarterly:
		return FrequencyQuarterly, nil
	case FrequencyAnnually:
		return FrequencyAnnually, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", ErrValidation, raw)
	}
}

// step returns the period as (days, months); exactly one is non-zero.
func (f Frequency) step() (int, int) {
	switch f {
	case FrequencyDaily:
		return 1, 0
	case FrequencyWeekly:
		return 7, 0
	case FrequencyBiweekly:
		return 14, 0
	case FrequencyMonthly:
		return 0, 1
	case FrequencyQuarterly:
		return 0, 3
	case FrequencyAnnually:
		return 0, 12
	default:
		return 0, 0
	}
}

// Occurrence returns the k-th occurrence counted from anchor (k=0 is anchor).
// Month based frequencies keep the anchor's day and clamp it to the last day
// of shorter months, so Jan 31 yields Feb 28, Mar 31, Apr 30.
func (f Frequency) Occurrence(anchor time.Time, k int) time.Time {
	days, months := f.step()
	if months == 0 {
		return anchor.AddDate(0, 0, days*k)
	}
	return addMonthsClamped(anchor, months*k)
}

// NextAfter returns the first occurrence strictly after the given time.
func (f Frequency) NextAfter(anchor, after time.Time) time.Time {
	if anchor.After(after) {
		return anchor
	}

	days, months := f.step()
	if days == 0 && months == 0 {
		return after
	}

	var estimate int
	if months == 0 {
		estimate = int(after.Sub(anchor).Hours()/24) / days
	} else {
		elapsed := (after.Year()-anchor.Year())*12 + int(after.Month()) - int(anchor.Month())
		estimate = elapsed / months
	}

	k := estimate - 1
	if k < 1 {
		k = 1
	}
	next := f.Occurrence(anchor, k)
	for !next.After(after) {
		k++
		next = f.Occurrence(anchor, k)
	}
	return next
}

func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusPaused    ScheduleStatus = "paused"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

type DestinationKind string

const (
	DestinationInternal DestinationKind = "internal"
	DestinationExternal DestinationKind = "external"
)

// MaxConsecutiveFailures pauses a schedule once reached.
const MaxConsecutiveFailures = 3

type ScheduledTransfer struct {
	ID                     string
	OwnerID                string
	FromAccount            AccountType
	ToAccount              string
	ToAccountType          DestinationKind
	Amount                 decimal.Decimal
	Currency               Currency
	Description            string
	Frequency              Frequency
	StartDate              time.Time
	EndDate                *time.Time
	NextExecutionDate      time.Time
	LastExecutionDate      *time.Time
	Status                 ScheduleStatus
	ExecutedCount          int
	TotalTransferred       decimal.Decimal
	FailedCount            int
	LastError              string
	ExternalAccountDetails *ExternalAccountDetails
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (s ScheduledTransfer) Validate() error {
	var errs []string

	if strings.TrimSpace(s.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}
	if _, err := ParseAccountType(string(s.FromAccount)); err != nil {
		errs = append(errs, "fromAccount is not supported")
	}
	if s.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if _, err := ParseFrequency(string(s.Frequency)); err != nil {
		errs = append(errs, "frequency is not supported")
	}
	if s.StartDate.IsZero() {
		errs = append(errs, "startDate is required")
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		errs = append(errs, "endDate cannot be before startDate")
	}

	switch s.ToAccountType {
	case DestinationInternal:
		to, err := ParseAccountType(s.ToAccount)
		if err != nil {
			errs = append(errs, "toAccount is not supported")
		} else if to == s.FromAccount {
			errs = append(errs, "fromAccount and toAccount cannot be the same")
		}
	case DestinationExternal:
		if s.ExternalAccountDetails == nil {
			errs = append(errs, "externalAccountDetails are required")
		} else {
			policy, _ := PolicyFor(TransferClassACH)
			if err := s.ExternalAccountDetails.Validate(policy); err != nil {
				errs = append(errs, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
			}
		}
	default:
		errs = append(errs, "toAccountType must be internal or external")
	}

	if len(errs) > 0 {
		return Invalid(errs)
	}
	return nil
}

func (s ScheduledTransfer) IsDue(now time.Time) bool {
	return s.Status == ScheduleStatusActive && !s.NextExecutionDate.After(now)
}

// RecordSuccess books a successful execution and advances the schedule.
func (s *ScheduledTransfer) RecordSuccess(at time.Time) {
	executed := at
	s.LastExecutionDate = &executed
	s.ExecutedCount++
	s.TotalTransferred = s.TotalTransferred.Add(s.Amount)
	s.FailedCount = 0
	s.LastError = ""
	s.advance()
}

// RecordFailure books a failed attempt. The schedule still advances.
func (s *ScheduledTransfer) RecordFailure(cause error) {
	s.FailedCount++
	if cause != nil {
		s.LastError = cause.Error()
	}
	s.advance()
	if s.FailedCount >= MaxConsecutiveFailures && s.Status == ScheduleStatusActive {
		s.Status = ScheduleStatusPaused
	}
}

func (s *ScheduledTransfer) advance() {
	s.NextExecutionDate = s.Frequency.NextAfter(s.StartDate, s.NextExecutionDate)
	if s.EndDate != nil && s.NextExecutionDate.After(*s.EndDate) {
		s.Status = ScheduleStatusCompleted
	}
}

type ScheduleFilter struct {
	OwnerID  string
	Statuses []ScheduleStatus
}

// SweepReport summarises one executor pass.
type SweepReport struct {
	Skipped   bool
	Due       int
	Succeeded int
	Failed    int
	Paused    int
	Completed int
}
