package models

import (
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateScheduleRequest struct {
	FromAccount            string                         `json:"fromAccount"`
	ToAccount              string                         `json:"toAccount"`
	ToAccountType          string                         `json:"toAccountType"`
	Amount                 decimal.Decimal                `json:"amount"`
	Currency               string                         `json:"currency"`
	Description            string                         `json:"description"`
	Frequency              string                         `json:"frequency"`
	StartDate              time.Time                      `json:"startDate"`
	EndDate                *time.Time                     `json:"endDate"`
	ExternalAccountDetails *domain.ExternalAccountDetails `json:"externalAccountDetails"`
}

func (r CreateScheduleRequest) ToDomain(ownerID string) (domain.ScheduledTransfer, error) {
	var errs []string

	from, err := domain.ParseAccountType(r.FromAccount)
	if err != nil {
		errs = append(errs, "fromAccount is not supported")
	}
	currency, err := domain.ParseCurrency(r.Currency)
	if err != nil {
		errs = append(errs, "currency is not supported")
	}
	frequency, err := domain.ParseFrequency(r.Frequency)
	if err != nil {
		errs = append(errs, "frequency is not supported")
	}
	if r.StartDate.IsZero() {
		errs = append(errs, "startDate is required")
	}
	if err := validationError(errs); err != nil {
		return domain.ScheduledTransfer{}, err
	}

	schedule := domain.ScheduledTransfer{
		OwnerID:                ownerID,
		FromAccount:            from,
		ToAccount:              strings.TrimSpace(r.ToAccount),
		ToAccountType:          domain.DestinationKind(strings.ToLower(strings.TrimSpace(r.ToAccountType))),
		Amount:                 r.Amount,
		Currency:               currency,
		Description:            strings.TrimSpace(r.Description),
		Frequency:              frequency,
		StartDate:              r.StartDate.UTC(),
		ExternalAccountDetails: r.ExternalAccountDetails,
	}
	if r.EndDate != nil {
		end := r.EndDate.UTC()
		schedule.EndDate = &end
	}
	return schedule, nil
}

type ScheduleResponse struct {
	ID                     string                         `json:"id"`
	OwnerID                string                         `json:"ownerId"`
	FromAccount            string                         `json:"fromAccount"`
	ToAccount              string                         `json:"toAccount,omitempty"`
	ToAccountType          string                         `json:"toAccountType"`
	Amount                 decimal.Decimal                `json:"amount"`
	Currency               string                         `json:"currency"`
	Description            string                         `json:"description,omitempty"`
	Frequency              string                         `json:"frequency"`
	StartDate              string                         `json:"startDate"`
	EndDate                string                         `json:"endDate,omitempty"`
	NextExecutionDate      string                         `json:"nextExecutionDate"`
	LastExecutionDate      string                         `json:"lastExecutionDate,omitempty"`
	Status                 string                         `json:"status"`
	ExecutedCount          int                            `json:"executedCount"`
	TotalTransferred       decimal.Decimal                `json:"totalTransferred"`
	FailedCount            int                            `json:"failedCount"`
	LastError              string                         `json:"lastError,omitempty"`
	ExternalAccountDetails *domain.ExternalAccountDetails `json:"externalAccountDetails,omitempty"`
}

func NewScheduleResponse(s domain.ScheduledTransfer) ScheduleResponse {
	return ScheduleResponse{
		ID:                     s.ID,
		OwnerID:                s.OwnerID,
		FromAccount:            string(s.FromAccount),
		ToAccount:              s.ToAccount,
		ToAccountType:          string(s.ToAccountType),
		Amount:                 s.Amount,
		Currency:               string(s.Currency),
		Description:            s.Description,
		Frequency:              string(s.Frequency),
		StartDate:              formatTime(s.StartDate),
		EndDate:                formatTimePtr(s.EndDate),
		NextExecutionDate:      formatTime(s.NextExecutionDate),
		LastExecutionDate:      formatTimePtr(s.LastExecutionDate),
		Status:                 string(s.Status),
		ExecutedCount:          s.ExecutedCount,
		TotalTransferred:       s.TotalTransferred,
		FailedCount:            s.FailedCount,
		LastError:              s.LastError,
		ExternalAccountDetails: s.ExternalAccountDetails,
	}
}

func NewScheduleResponses(schedules []domain.ScheduledTransfer) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, NewScheduleResponse(s))
	}
	return out
}

type SweepRequest struct {
	Now *time.Time `json:"now"`
}

type SweepReportResponse struct {
	Skipped   bool `json:"skipped"`
	Due       int  `json:"due"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Paused    int  `json:"paused"`
	Completed int  `json:"completed"`
}

func NewSweepReportResponse(r domain.SweepReport) SweepReportResponse {
	return SweepReportResponse{
		Skipped:   r.Skipped,
		Due:       r.Due,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Paused:    r.Paused,
		Completed: r.Completed,
	}
}
