package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker provides the mutual-exclusion scope around every read-check-write
// on capacity. The returned unlock func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// LocalLocker serializes callers within one process. It honours context
// cancellation while waiting.
type LocalLocker struct {
	sem chan struct{}
}

// NewLocalLocker returns an unlocked LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sem: make(chan struct{}, 1)}
}

func (l *LocalLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// releaseScript deletes the lock key only if it still holds our token, so a
// holder whose lease expired cannot release a lock taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker extends a LocalLocker with a Redis lease so that several server
// instances sharing one database also share one critical section.
type RedisLocker struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	retry time.Duration
	local *LocalLocker
}

// NewRedisLocker returns a locker using key as the lease name. The lease
// expires after ttl so a crashed holder cannot block bookings forever.
func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl, retry: 20 * time.Millisecond, local: NewLocalLocker()}
}

func (l *RedisLocker) Lock(ctx context.Context) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx)
	if err != nil {
		return nil, err
	}
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("acquire booking lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			unlockLocal()
			return nil, ctx.Err()
		}
	}
	return func() {
		// Release with a fresh context: the caller's may already be done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// On failure the lease still expires on its own after ttl.
		_ = releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err()
		unlockLocal()
	}, nil
}
