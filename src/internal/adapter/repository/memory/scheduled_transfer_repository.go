package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
)

type ScheduledTransferRepository struct {
	store *Store
}

func NewScheduledTransferRepository(store *Store) *ScheduledTransferRepository {
	return &ScheduledTransferRepository{store: store}
}

func (r *ScheduledTransferRepository) Create(_ context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if _, exists := r.store.schedules[schedule.ID]; exists {
		return domain.ScheduledTransfer{}, fmt.Errorf("%w: scheduled transfer %s already exists", domain.ErrValidation, schedule.ID)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = schedule.CreatedAt

	r.store.schedules[schedule.ID] = cloneSchedule(schedule)
	return cloneSchedule(schedule), nil
}

func (r *ScheduledTransferRepository) Get(_ context.Context, id string) (domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule, ok := r.store.schedules[id]
	if !ok {
		return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
	}
	return cloneSchedule(schedule), nil
}

func (r *ScheduledTransferRepository) List(_ context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.ScheduledTransfer, 0)
	for _, schedule := range r.store.schedules {
		if filter.OwnerID != "" && schedule.OwnerID != filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, schedule.Status) {
			continue
		}
		out = append(out, cloneSchedule(schedule))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListDue returns active schedules whose next execution is not after now,
// oldest first.
func (r *ScheduledTransferRepository) ListDue(_ context.Context, now time.Time, limit int) ([]domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.ScheduledTransfer, 0)
	for _, schedule := range r.store.schedules {
		if schedule.IsDue(now) {
			out = append(out, cloneSchedule(schedule))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextExecutionDate.Before(out[j].NextExecutionDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ScheduledTransferRepository) Save(_ context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.schedules[schedule.ID]
	if !ok {
		return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
	}

	stored.NextExecutionDate = schedule.NextExecutionDate
	stored.LastExecutionDate = schedule.LastExecutionDate
	stored.ExecutedCount = schedule.ExecutedCount
	stored.TotalTransferred = schedule.TotalTransferred
	stored.FailedCount = schedule.FailedCount
	stored.LastError = schedule.LastError
	if stored.Status == domain.ScheduleStatusActive {
		stored.Status = schedule.Status
	}
	stored.UpdatedAt = time.Now().UTC()
	r.store.schedules[schedule.ID] = cloneSchedule(stored)
	return cloneSchedule(stored), nil
}

func (r *ScheduledTransferRepository) UpdateStatus(_ context.Context, id string, from []domain.ScheduleStatus, to domain.ScheduleStatus) (domain.ScheduledTransfer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule, ok := r.store.schedules[id]
	if !ok {
		return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
	}
	if !slices.Contains(from, schedule.Status) {
		return domain.ScheduledTransfer{}, fmt.Errorf("%w: scheduled transfer is %s", domain.ErrValidation, schedule.Status)
	}

	schedule.Status = to
	if to == domain.ScheduleStatusActive {
		schedule.FailedCount = 0
	}
	schedule.UpdatedAt = time.Now().UTC()
	r.store.schedules[id] = schedule
	return cloneSchedule(schedule), nil
}
