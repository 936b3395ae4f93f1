package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/telemetry/tracing"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type GuardParams struct {
	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed one.
	Retries int
	// InitialInterval is the first backoff wait, 100ms when zero.
	InitialInterval time.Duration
}

// Guard decorates a Store with per-attempt timeouts, retries with
// exponential backoff and serialized writes per user.
type Guard struct {
	next   Store
	params GuardParams

	writeLocks sync.Map // user id -> *sync.Mutex
}

func NewGuard(next Store, params GuardParams) *Guard {
	if params.InitialInterval <= 0 {
		params.InitialInterval = 100 * time.Millisecond
	}
	if params.Retries < 0 {
		params.Retries = 0
	}
	return &Guard{
		next:   next,
		params: params,
	}
}

func (g *Guard) Get(ctx context.Context, userID, key string) (value []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.guard.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, ignoreNotFound(err))
	}()
	span.SetAttributes(attribute.String("key", key))

	err = g.retry(ctx, func(ctx context.Context) error {
		var getErr error
		value, getErr = g.next.Get(ctx, userID, key)
		return getErr
	})
	return value, wrap("get", userID, key, err)
}

func (g *Guard) Set(ctx context.Context, userID, key string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.guard.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("key", key),
		attribute.Int("size", len(value)),
	)

	unlock := g.lockUser(userID)
	defer unlock()

	err = g.retry(ctx, func(ctx context.Context) error {
		return g.next.Set(ctx, userID, key, value)
	})
	return wrap("set", userID, key, err)
}

func (g *Guard) List(ctx context.Context, userID, prefix string) (keys []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.guard.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	err = g.retry(ctx, func(ctx context.Context) error {
		var listErr error
		keys, listErr = g.next.List(ctx, userID, prefix)
		return listErr
	})
	return keys, wrap("list", userID, prefix, err)
}

func (g *Guard) Delete(ctx context.Context, userID, key string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.guard.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	unlock := g.lockUser(userID)
	defer unlock()

	err = g.retry(ctx, func(ctx context.Context) error {
		return g.next.Delete(ctx, userID, key)
	})
	return wrap("delete", userID, key, err)
}

func (g *Guard) lockUser(userID string) func() {
	lock, _ := g.writeLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (g *Guard) retry(ctx context.Context, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.params.InitialInterval
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		attemptCtx, cancel := g.attemptContext(ctx)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		log.Debugf("storage attempt %d failed, retrying: %s", attempt, err)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.params.Retries)), ctx))
}

func (g *Guard) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.params.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.params.Timeout)
}

// retryable rejects missing keys and cancellations of the caller's context.
// A timed out attempt is retried as long as the parent context is alive.
func retryable(parent context.Context, err error) bool {
	if errors.Is(err, ErrKeyNotFound) {
		return false
	}
	if parent.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	return err
}
