package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type ScheduleService interface {
	CreateSchedule(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error)
	PauseSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error)
	ResumeSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error)
	CancelSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error)
	ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledTransfer, error)
	RunSweep(ctx context.Context, now time.Time) (domain.SweepReport, error)
}
