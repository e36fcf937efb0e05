package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotObtained = errors.New("could not obtain lock")

// Locker serializes work on a key across processes
type Locker interface {
	// Obtain blocks until the lock is held or ctx ends; call release when done
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type redisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: redislock.New(client)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// release with a fresh context; the caller's may already be done
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}

// localLocker serializes within one process only
type localLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() Locker {
	return &localLocker{locks: make(map[string]chan struct{})}
}

func (l *localLocker) Obtain(ctx context.Context, key string, _ time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.locks[key]
		if !busy {
			ch := make(chan struct{})
			l.locks[key] = ch
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.locks, key)
				l.mu.Unlock()
				close(ch)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, ErrLockNotObtained
		}
	}
}
