package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore persists the snapshot as a single JSON document on disk.
// This is the default backend and the canonical snapshot format.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a file-backed snapshot store.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "persistence").Str("backend", "json").Logger(),
	}
}

// Save writes the snapshot atomically: a temp file in the same directory is
// renamed over the target, so a crash mid-write cannot corrupt the snapshot.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	s.logger.Info().Str("path", s.path).Int("bytes", len(data)).Msg("snapshot saved")
	return nil
}

// Load reads and decodes the snapshot document.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	s.logger.Info().Str("path", s.path).
		Int("books", len(snap.Books)).
		Int("users", len(snap.Users)).
		Int("transactions", len(snap.Transactions)).
		Msg("snapshot loaded")
	return &snap, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
