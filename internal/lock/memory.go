package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker with process-local locks.
// Suitable for single-node deployments; locks do not survive restarts and
// are invisible to other processes.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]time.Time)}
}

// Acquire attempts to acquire a lock.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if expiry, held := m.locks[key]; held && now.Before(expiry) {
		return false, nil
	}
	m.locks[key] = now.Add(ttl)
	return true, nil
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (m *MemoryLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	for i := 0; i <= maxRetries; i++ {
		acquired, err := m.Acquire(ctx, key, ttl)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		// Don't sleep after the last attempt.
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
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[key]; !held {
		return false, nil
	}
	delete(m.locks, key)
	return true, nil
}

// IsHeld checks whether a lock is currently held.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, held := m.locks[key]
	if !held {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(m.locks, key)
		return false, nil
	}
	return true, nil
}

// Ensure MemoryLocker implements Locker.
var _ Locker = (*MemoryLocker)(nil)
