package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/inventory_review/config"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const lockRetryInterval = 100 * time.Millisecond

// TableLock serializes every load-mutate-save cycle on the review tables.
// Inside one process a single-slot semaphore is used; when a redislock client
// is configured the lock "lock:<name>" is also held so the server and the
// operator CLI never interleave.
type TableLock struct {
	sem    chan struct{}
	locker *redislock.Client
	name   string
	ttl    time.Duration
	wait   time.Duration
	logger *logrus.Logger
}

func NewTableLock(locker *redislock.Client, name string, ttl, wait time.Duration) *TableLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if wait <= 0 {
		wait = 30 * time.Second
	}
	return &TableLock{
		sem:    make(chan struct{}, 1),
		locker: locker,
		name:   name,
		ttl:    ttl,
		wait:   wait,
		logger: config.GetLogger(),
	}
}

// Acquire blocks until the lock is held, the wait elapses or ctx is done.
// The returned release func must be called exactly once.
func (l *TableLock) Acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrLockNotObtained, ctx.Err())
	case <-timer.C:
		l.logger.WithFields(logrus.Fields{"field": "tableLock", "name": l.name}).Warn("table lock busy")
		return nil, ErrLockNotObtained
	}

	if l.locker == nil {
		return func() { <-l.sem }, nil
	}

	retries := int(l.wait / lockRetryInterval)
	lock, err := l.locker.Obtain(ctx, fmt.Sprintf("lock:%s", l.name), l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), retries),
	})
	if err != nil {
		<-l.sem
		if errors.Is(err, redislock.ErrNotObtained) {
			config.LogError(l.logger, "workflow", "TableLock.Acquire", "Could not obtain redis lock", l.name, err)
			return nil, ErrLockNotObtained
		}
		config.LogError(l.logger, "workflow", "TableLock.Acquire", "Error obtaining redis lock", l.name, err)
		return nil, fmt.Errorf("%w: %w", ErrLockNotObtained, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(stop, l.ttl/2, func(ctx context.Context) error {
			return lock.Refresh(ctx, l.ttl, nil)
		}, l.logger.WithFields(logrus.Fields{"field": "tableLock", "name": l.name}))
	}()

	return func() {
		close(stop)
		<-done
		// the request context may already be cancelled here
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			l.logger.WithFields(logrus.Fields{"field": "tableLock", "name": l.name}).Warn("failed to release redis lock: " + err.Error())
		}
		<-l.sem
	}, nil
}

// keepAlive calls refresh every interval until stop is closed. A failed
// refresh is logged and retried on the next tick; the lease may lapse if
// Redis stays unreachable for a whole TTL.
func keepAlive(stop <-chan struct{}, interval time.Duration, refresh func(ctx context.Context) error, logger logrus.FieldLogger) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := refresh(ctx)
			cancel()
			if err != nil {
				logger.Warn("failed to refresh redis lock: " + err.Error())
			}
		}
	}
}
