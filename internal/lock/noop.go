package lock

import (
	"context"
	"time"
)

// NoOpLocker always succeeds. Use when snapshot locking is not wanted.
type NoOpLocker struct{}

// NewNoOpLocker creates a new no-op locker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

// Acquire always returns true.
func (n *NoOpLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, ctx.Err()
}

// AcquireWithRetry always returns true.
func (n *NoOpLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return true, ctx.Err()
}

// Release always returns true.
func (n *NoOpLocker) Release(ctx context.Context, key string) (bool, error) {
	return true, ctx.Err()
}

// IsHeld always returns false.
func (n *NoOpLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	return false, ctx.Err()
}

// Ensure NoOpLocker implements Locker.
var _ Locker = (*NoOpLocker)(nil)
