package services

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

const notifyTimeout = 5 * time.Second

// Dispatcher sends notifications off the request path. Failures are logged
// and never surface to the caller.
type Dispatcher struct {
	notifier service_interfaces.Notifier
	wg       sync.WaitGroup
}

func NewDispatcher(notifier service_interfaces.Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

func (d *Dispatcher) Dispatch(ctx context.Context, notification domain.Notification) {
	if d == nil || d.notifier == nil {
		return
	}
	if notification.SentAt.IsZero() {
		notification.SentAt = time.Now().UTC()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := d.notifier.Notify(sendCtx, notification); err != nil {
			logger.Error("notification dispatch failed", err, logger.Fields{
				"ownerId":  notification.OwnerID,
				"template": notification.Template,
			})
		}
	}()
}

// Flush blocks until every in-flight notification has been attempted.
func (d *Dispatcher) Flush() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
