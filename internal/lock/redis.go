package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker with Redis SET NX, so several server
// instances sharing one snapshot location cannot clobber each other's saves.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a locker over an existing Redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire attempts to acquire a lock.
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (r *RedisLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	for i := 0; i <= maxRetries; i++ {
		acquired, err := r.Acquire(ctx, key, ttl)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		if i < maxRetries {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return false, nil
}

// Release releases a lock.
func (r *RedisLocker) Release(ctx context.Context, key string) (bool, error) {
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// IsHeld checks whether a lock is currently held.
func (r *RedisLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ensure RedisLocker implements Locker.
var _ Locker = (*RedisLocker)(nil)
