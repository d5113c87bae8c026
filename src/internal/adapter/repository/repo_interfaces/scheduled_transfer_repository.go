package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type ScheduledTransferRepository interface {
	Create(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error)
	Get(ctx context.Context, id string) (domain.ScheduledTransfer, error)
	List(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledTransfer, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.ScheduledTransfer, error)
	// Save records a run's counters and next date. The status is replaced only
	// while the stored schedule is still active.
	Save(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error)
	UpdateStatus(ctx context.Context, id string, from []domain.ScheduleStatus, to domain.ScheduleStatus) (domain.ScheduledTransfer, error)
}
