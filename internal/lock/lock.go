// Package lock serializes region writes across service replicas.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrTimeout is returned when the lock could not be taken before the wait ran out.
var ErrTimeout = errors.New("lock: timed out waiting for lock")

// Locker hands out named exclusive locks. The returned release func must be called
// exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Nop is used when no redis is configured; a single replica relies on the database alone.
type Nop struct{}

func (Nop) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

// releaseScript deletes the key only while it still holds our token, so an expired lock
// that another holder has since taken is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock with a token per holder.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err == nil && ok {
			return l.releaser(key, token), nil
		}
		if ctx.Err() != nil {
			return nil, ErrTimeout
		}
		if err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrTimeout
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	return func() {
		// Use a fresh context: the request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("lock: release failed, key will expire")
		}
	}
}
