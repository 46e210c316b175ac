// Package badgerdb persists the CRM state in an embedded BadgerDB.
//
// The whole state is one value under a single key, so Save is one
// transaction and a reader sees either the previous or the new state.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// stateKey holds the encoded state.
var stateKey = []byte("crm/state/v1")

// Config holds configuration for the BadgerDB instance.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is true.
	Dir string

	// InMemory keeps everything in RAM (tests).
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}

// Repository implements port.StateRepository on BadgerDB.
type Repository struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (or creates) the database.
func Open(cfg Config, logger *zap.Logger) (*Repository, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("badger: dir is required for a persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger.Named("badger").WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Repository{db: db, logger: logger}, nil
}

// Backend names the backend in errors and metrics.
func (r *Repository) Backend() string { return "badger" }

// Load reads the state. A missing key is port.ErrNoState.
func (r *Repository) Load(ctx context.Context) (*domain.AppState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, port.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("badger get state: %w", err)
	}

	return storage.Decode("badger:"+string(stateKey), data)
}

// Save replaces the state in a single transaction.
func (r *Repository) Save(ctx context.Context, st *domain.AppState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := storage.Encode(st)
	if err != nil {
		return err
	}
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, data)
	}); err != nil {
		return fmt.Errorf("badger set state: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}
