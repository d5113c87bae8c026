package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

// Notifier delivers owner notifications. Callers treat failures as
// non-fatal.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification) error
}

// SweepLocker guards the scheduled transfer sweep across instances. ok is
// false when another holder owns the lock.
type SweepLocker interface {
	TryLock(ctx context.Context, name string) (release func(), ok bool, err error)
}
