package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var _ service_interfaces.ScheduleService = (*ScheduleService)(nil)

const (
	sweepLockName  = "scheduled-transfer-sweep"
	sweepBatchSize = 500
)

type ScheduleService struct {
	scheduleRepo repo_interfaces.ScheduledTransferRepository
	accountRepo  repo_interfaces.AccountRepository
	txRepo       repo_interfaces.TransactionRepository
	dispatcher   *Dispatcher
	locker       service_interfaces.SweepLocker
	workers      int
	now          func() time.Time
}

func NewScheduleService(
	scheduleRepo repo_interfaces.ScheduledTransferRepository,
	accountRepo repo_interfaces.AccountRepository,
	txRepo repo_interfaces.TransactionRepository,
	dispatcher *Dispatcher,
	locker service_interfaces.SweepLocker,
	workers int,
) *ScheduleService {
	if workers < 1 {
		workers = 1
	}
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		accountRepo:  accountRepo,
		txRepo:       txRepo,
		dispatcher:   dispatcher,
		locker:       locker,
		workers:      workers,
		now:          utcNow,
	}
}

func (s *ScheduleService) CreateSchedule(ctx context.Context, schedule domain.ScheduledTransfer) (domain.ScheduledTransfer, error) {
	logger.Info("schedule service create request", logger.Fields{
		"ownerId":   schedule.OwnerID,
		"frequency": schedule.Frequency,
		"amount":    schedule.Amount,
	})

	if schedule.Currency == "" {
		schedule.Currency = domain.CurrencyUSD
	}
	if schedule.ToAccountType == "" {
		schedule.ToAccountType = domain.DestinationInternal
	}
	if schedule.ToAccountType == domain.DestinationInternal {
		schedule.ToAccount = strings.ToLower(strings.TrimSpace(schedule.ToAccount))
	}
	if schedule.ToAccountType == domain.DestinationExternal && schedule.Currency != domain.CurrencyUSD {
		return domain.ScheduledTransfer{}, fmt.Errorf("%w: external schedules are funded in USD", domain.ErrValidation)
	}
	if err := schedule.Validate(); err != nil {
		return domain.ScheduledTransfer{}, err
	}
	if _, err := s.accountRepo.GetHolder(ctx, schedule.OwnerID); err != nil {
		return domain.ScheduledTransfer{}, err
	}

	schedule.ID = uuid.NewString()
	schedule.Status = domain.ScheduleStatusActive
	schedule.NextExecutionDate = schedule.StartDate
	schedule.LastExecutionDate = nil
	schedule.ExecutedCount = 0
	schedule.TotalTransferred = decimal.Zero
	schedule.FailedCount = 0
	schedule.LastError = ""

	created, err := s.scheduleRepo.Create(ctx, schedule)
	if err != nil {
		logger.Error("schedule service create failed", err, nil)
		return domain.ScheduledTransfer{}, err
	}

	logger.Info("schedule service create success", logger.Fields{
		"scheduleId":        created.ID,
		"nextExecutionDate": created.NextExecutionDate,
	})
	return created, nil
}

func (s *ScheduleService) PauseSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error) {
	return s.transition(ctx, ownerID, id, []domain.ScheduleStatus{domain.ScheduleStatusActive}, domain.ScheduleStatusPaused)
}

// ResumeSchedule reactivates a paused schedule and clears its failure streak.
func (s *ScheduleService) ResumeSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error) {
	return s.transition(ctx, ownerID, id, []domain.ScheduleStatus{domain.ScheduleStatusPaused}, domain.ScheduleStatusActive)
}

func (s *ScheduleService) CancelSchedule(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error) {
	return s.transition(ctx, ownerID, id, []domain.ScheduleStatus{domain.ScheduleStatusActive, domain.ScheduleStatusPaused}, domain.ScheduleStatusCancelled)
}

func (s *ScheduleService) ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.ScheduledTransfer, error) {
	return s.scheduleRepo.List(ctx, filter)
}

// transition moves a schedule between states. An empty ownerID is the
// back-office caller and skips the ownership check.
func (s *ScheduleService) transition(ctx context.Context, ownerID string, id string, from []domain.ScheduleStatus, to domain.ScheduleStatus) (domain.ScheduledTransfer, error) {
	logger.Info("schedule service transition request", logger.Fields{
		"scheduleId": id,
		"ownerId":    ownerID,
		"to":         to,
	})

	current, err := s.scheduleRepo.Get(ctx, id)
	if err != nil {
		return domain.ScheduledTransfer{}, err
	}
	if ownerID != "" && current.OwnerID != ownerID {
		return domain.ScheduledTransfer{}, domain.ErrRecordNotFound
	}

	updated, err := s.scheduleRepo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		logger.Error("schedule service transition failed", err, logger.Fields{"scheduleId": id})
		return domain.ScheduledTransfer{}, err
	}
	return updated, nil
}

// RunSweep executes every due schedule once. Items are independent: one
// failure is recorded on its schedule and never aborts the others.
func (s *ScheduleService) RunSweep(ctx context.Context, now time.Time) (domain.SweepReport, error) {
	logger.Info("schedule service sweep start", logger.Fields{"now": now})

	release, ok, err := s.locker.TryLock(ctx, sweepLockName)
	if err != nil {
		logger.Error("schedule service sweep lock failed", err, nil)
		return domain.SweepReport{}, err
	}
	if !ok {
		logger.Info("schedule service sweep skipped, lock held elsewhere", nil)
		return domain.SweepReport{Skipped: true}, nil
	}
	defer release()

	due, err := s.scheduleRepo.ListDue(ctx, now, sweepBatchSize)
	if err != nil {
		logger.Error("schedule service list due failed", err, nil)
		return domain.SweepReport{}, err
	}

	var (
		mu     sync.Mutex
		report = domain.SweepReport{Due: len(due)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, schedule := range due {
		g.Go(func() error {
			outcome := s.execute(gctx, schedule, now)

			mu.Lock()
			defer mu.Unlock()
			if outcome.Status == domain.ScheduleStatusPaused {
				report.Paused++
			}
			if outcome.Status == domain.ScheduleStatusCompleted {
				report.Completed++
			}
			if outcome.FailedCount > 0 {
				report.Failed++
			} else {
				report.Succeeded++
			}
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("schedule service sweep done", logger.Fields{
		"due":       report.Due,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"paused":    report.Paused,
		"completed": report.Completed,
	})
	return report, nil
}

func (s *ScheduleService) execute(ctx context.Context, schedule domain.ScheduledTransfer, now time.Time) domain.ScheduledTransfer {
	err := s.runOnce(ctx, schedule, now)
	if err != nil {
		logger.Warn("scheduled transfer execution failed", logger.Fields{
			"scheduleId": schedule.ID,
			"error":      err.Error(),
		})
		schedule.RecordFailure(err)
	} else {
		schedule.RecordSuccess(now)
	}

	saved, saveErr := s.scheduleRepo.Save(ctx, schedule)
	if saveErr != nil {
		logger.Error("scheduled transfer save failed", saveErr, logger.Fields{"scheduleId": schedule.ID})
		return schedule
	}

	if schedule.Status == domain.ScheduleStatusPaused && saved.Status == domain.ScheduleStatusPaused {
		s.dispatcher.Dispatch(ctx, domain.Notification{
			OwnerID:  saved.OwnerID,
			Template: domain.NotificationSchedulePaused,
			Data: map[string]any{
				"scheduleId":  saved.ID,
				"failedCount": saved.FailedCount,
				"lastError":   saved.LastError,
			},
		})
	}
	return saved
}

func (s *ScheduleService) runOnce(ctx context.Context, schedule domain.ScheduledTransfer, now time.Time) error {
	available, err := s.accountRepo.GetBalance(ctx, schedule.OwnerID, schedule.FromAccount, schedule.Currency)
	if err != nil {
		return err
	}
	if available.LessThan(schedule.Amount) {
		return domain.ErrInsufficientFunds
	}

	reference := generateThirtyDigitTransferReference()
	correlationID := uuid.NewString()
	base := domain.Transaction{
		OwnerID:       schedule.OwnerID,
		Currency:      schedule.Currency,
		Amount:        schedule.Amount,
		Reference:     reference,
		CorrelationID: correlationID,
		Date:          now,
		Channel:       "scheduled",
		Origin:        "schedule",
		Description:   schedule.Description,
		CreatedAt:     now,
	}

	if schedule.ToAccountType == domain.DestinationExternal {
		out := base
		out.ID = uuid.NewString()
		out.Type = domain.TransactionTypeTransferOut
		out.AccountType = schedule.FromAccount
		out.Status = domain.TransactionStatusPending
		out.Metadata = map[string]any{
			"scheduleId":             schedule.ID,
			"externalAccountDetails": detailsToMap(schedule.ExternalAccountDetails),
		}
		_, err := s.txRepo.Create(ctx, []domain.Transaction{out})
		return err
	}

	toAccount, err := domain.ParseAccountType(schedule.ToAccount)
	if err != nil {
		return err
	}

	out := base
	out.ID = uuid.NewString()
	out.Type = domain.TransactionTypeTransferOut
	out.AccountType = schedule.FromAccount
	out.Status = domain.TransactionStatusApproved
	out.Metadata = map[string]any{"scheduleId": schedule.ID}

	in := base
	in.ID = uuid.NewString()
	in.Type = domain.TransactionTypeTransferIn
	in.AccountType = toAccount
	in.Status = domain.TransactionStatusApproved
	in.Metadata = map[string]any{"scheduleId": schedule.ID}

	_, err = s.txRepo.CreateAndPost(ctx, []domain.Transaction{out, in}, now)
	return err
}

// RunSweepWorker drives RunSweep on a ticker until ctx is done.
func (s *ScheduleService) RunSweepWorker(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunSweep(ctx, s.now()); err != nil {
				logger.Error("scheduled sweep failed", err, nil)
			}
		}
	}
}
