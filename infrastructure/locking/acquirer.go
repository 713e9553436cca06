package locking

import (
	"context"
	"errors"
	"time"

	"catnook-backend/application/ports"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Options tunes how long a caller waits for a busy resource
type Options struct {
	Wait            time.Duration
	TTL             time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultOptions() Options {
	return Options{
		Wait:            2 * time.Second,
		TTL:             10 * time.Second,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}

// Acquirer turns a non-blocking Locker into a bounded wait with
// exponential backoff. Running out of wait time is a retryable conflict.
type Acquirer struct {
	locker ports.Locker
	opts   Options
	logger *zap.Logger
}

func NewAcquirer(locker ports.Locker, opts Options, logger *zap.Logger) *Acquirer {
	return &Acquirer{locker: locker, opts: opts, logger: logger}
}

// Acquire waits up to Options.Wait for resource
func (a *Acquirer) Acquire(ctx context.Context, resource string) (ports.Lock, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.InitialInterval
	b.MaxInterval = a.opts.MaxInterval

	attempts := 0
	lock, err := backoff.Retry(ctx, func() (ports.Lock, error) {
		attempts++
		l, err := a.locker.TryAcquire(ctx, resource, a.opts.TTL)
		if err == nil {
			return l, nil
		}
		if errors.Is(err, ports.ErrLockHeld) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(a.opts.Wait))
	if err == nil {
		return lock, nil
	}

	if errors.Is(err, ports.ErrLockHeld) || errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("Lock wait exhausted",
			zap.String("resource", resource),
			zap.Int("attempts", attempts),
			zap.Duration("wait", a.opts.Wait),
		)
		return nil, pkgerrors.ErrLockTimeout.With("resource", resource).WithCause(err)
	}
	return nil, err
}

// AcquireAll takes the resources in the order given. Callers must always
// pass the same order (cat before user) so two requests cannot deadlock.
// The returned func releases everything in reverse order.
func (a *Acquirer) AcquireAll(ctx context.Context, resources ...string) (func(), error) {
	held := make([]ports.Lock, 0, len(resources))
	release := func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(rctx); err != nil {
				a.logger.Warn("Failed to release lock", zap.Error(err))
			}
		}
	}

	for _, res := range resources {
		l, err := a.Acquire(ctx, res)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, l)
	}
	return release, nil
}
