package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/lock"
)

// Manager wraps a snapshot store with the save lock. Every write goes
// through here so that two processes sharing one snapshot location cannot
// interleave writes.
type Manager struct {
	store   Store
	locker  lock.Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

// NewManager creates a persistence manager over a store and a locker.
func NewManager(store Store, locker lock.Locker, lockTTL time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger.With().Str("component", "persistence").Logger(),
	}
}

// Save writes the snapshot under the save lock.
func (m *Manager) Save(ctx context.Context, snap *Snapshot) error {
	acquired, err := m.locker.AcquireWithRetry(ctx, lock.SnapshotKey, m.lockTTL, 3, 500*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquiring snapshot lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("snapshot lock is held by another writer")
	}
	defer func() {
		if _, err := m.locker.Release(ctx, lock.SnapshotKey); err != nil {
			m.logger.Warn().Err(err).Msg("failed to release snapshot lock")
		}
	}()

	return m.store.Save(ctx, snap)
}

// Load reads the latest snapshot. Returns ErrSnapshotNotFound when no
// snapshot has been written yet.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	return m.store.Load(ctx)
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
