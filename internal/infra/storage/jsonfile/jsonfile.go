// Package jsonfile persists the CRM state as a single JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"go.uber.org/zap"
)

// Repository implements port.StateRepository on top of a JSON file.
type Repository struct {
	path   string
	logger *zap.Logger
}

// New creates a repository writing to path. The parent directory is created on first save.
func New(path string, logger *zap.Logger) *Repository {
	return &Repository{path: path, logger: logger}
}

// Backend names the backend in errors and metrics.
func (r *Repository) Backend() string { return "json" }

// Load reads the state file. A missing file is port.ErrNoState;
// a file that does not decode is *domain.ErrCorruptState.
func (r *Repository) Load(ctx context.Context) (*domain.AppState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, port.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st, err := storage.Decode(r.path, data)
	if err != nil {
		r.logger.Error("state file is malformed", zap.String("path", r.path), zap.Error(err))
		return nil, err
	}
	return st, nil
}

// Save writes the state atomically: a temp file in the same directory is
// synced and renamed over the target, so readers never see a partial file.
func (r *Repository) Save(ctx context.Context, st *domain.AppState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := storage.Encode(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}

	r.logger.Debug("state saved", zap.String("path", r.path), zap.Int("bytes", len(data)))
	return nil
}
