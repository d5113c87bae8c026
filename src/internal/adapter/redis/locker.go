package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

var _ service_interfaces.SweepLocker = (*Locker)(nil)

const lockKeyPrefix = "lock:"

// Locker hands out single-attempt RedLock mutexes. A sweep that cannot get
// the lock is skipped rather than queued.
type Locker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewLocker(client goredislib.UniversalClient, expiry time.Duration) *Locker {
	if expiry <= 0 {
		expiry = 30 * time.Second
	}
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

func (l *Locker) TryLock(ctx context.Context, name string) (func(), bool, error) {
	key := lockKeyPrefix + name
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry), redsync.WithTries(1))

	if err := mutex.LockContext(ctx); err != nil {
		if isContention(err) {
			logger.Info("lock held elsewhere", logger.Fields{"key": key})
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}

	release := func() {
		// The sweep context may already be done; unlock on a fresh one.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			logger.Warn("lock release failed", logger.Fields{
				"key":   key,
				"ok":    ok,
				"error": fmt.Sprint(err),
			})
		}
	}
	return release, true, nil
}

func isContention(err error) bool {
	var takenPtr *redsync.ErrTaken
	var taken redsync.ErrTaken
	return errors.Is(err, redsync.ErrFailed) || errors.As(err, &takenPtr) || errors.As(err, &taken)
}
