// Package local holds single-process stand-ins used when Redis is not
// configured.
package local

import (
	"context"
	"sync"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

var (
	_ service_interfaces.SweepLocker = (*Locker)(nil)
	_ service_interfaces.Notifier    = LogNotifier{}
)

// Locker is an in-process TryLock keyed by name.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocker() *Locker {
	return &Locker{held: make(map[string]bool)}
}

func (l *Locker) TryLock(_ context.Context, name string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, true, nil
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, notification domain.Notification) error {
	logger.Info("notification", logger.Fields{
		"ownerId":  notification.OwnerID,
		"address":  notification.Address,
		"template": notification.Template,
		"data":     notification.Data,
	})
	return nil
}
