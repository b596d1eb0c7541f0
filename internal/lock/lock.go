// Package lock provides local and distributed locking for the snapshot
// save path. A single-node deployment uses the in-memory locker; deployments
// sharing one snapshot location (file on shared storage, S3 object, common
// database) can switch to the Redis locker without changing callers.
package lock

import (
	"context"
	"time"
)

// Locker is the locking abstraction guarding snapshot writes.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if another holder has it.
	// The lock expires automatically after the TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// AcquireWithRetry retries Acquire up to maxRetries times with
	// retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)

	// IsHeld checks whether a lock is currently held.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// SnapshotKey is the lock key serialising snapshot writes.
const SnapshotKey = "lock:catalogue:snapshot"
