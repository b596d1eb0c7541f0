package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/config"
)

// ErrSnapshotNotFound indicates no snapshot exists at the configured
// location yet. First boot of a fresh deployment is the normal cause.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists catalogue snapshots to one backing location.
type Store interface {
	// Save writes the snapshot, replacing any previous one.
	Save(ctx context.Context, snap *Snapshot) error

	// Load reads the latest snapshot.
	// Returns ErrSnapshotNotFound if none has been saved yet.
	Load(ctx context.Context) (*Snapshot, error)

	// Close releases backend resources.
	Close() error
}

// NewStore creates the snapshot store selected by configuration.
func NewStore(ctx context.Context, cfg config.PersistenceConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "json":
		return NewFileStore(cfg.Path, logger), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLite, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres, logger)
	case "s3":
		return NewS3Store(ctx, cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}
}
