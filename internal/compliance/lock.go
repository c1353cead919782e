package compliance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockNotObtained is returned when another writer already holds the
// entity lock. Locks are tried once: a second writer on the same entity gets
// a conflict instead of queueing behind the first and overwriting it.
var ErrLockNotObtained = errors.New("entity lock not obtained")

// Locker grants exclusive per-key access. Release must be called exactly once.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

func LockKey(kind EntityKind, id string) string {
	return "gst:lock:" + string(kind) + ":" + id
}

// LocalLocker serializes writers inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Obtain(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ErrLockNotObtained
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// RedisLocker serializes writers across instances sharing one Redis.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		locker: redislock.New(rdb),
		ttl:    ttl,
		log:    log,
	}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: redislock.NoRetry()})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	} else if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// An unreleased lock expires after the TTL.
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.log.WithFields(logrus.Fields{"module": "compliance", "func": "RedisLocker.Release", "key": key}).
					WithError(err).Warn("failed to release entity lock")
			}
		})
	}, nil
}
