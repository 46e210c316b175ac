package main

import (
	"fmt"

	"github.com/boddenberg/technova-crm-go/internal/config"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage/badgerdb"
	"github.com/boddenberg/technova-crm-go/internal/infra/storage/jsonfile"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"go.uber.org/zap"
)

// openRepository builds the configured backend wrapped in retry and circuit
// breaking. The returned close func releases the backend.
func openRepository(cfg *config.Config, logger *zap.Logger) (*storage.Resilient, func() error, error) {
	var (
		next    port.StateRepository
		closeFn = func() error { return nil }
	)

	switch cfg.StorageBackend {
	case config.BackendBadger:
		db, err := badgerdb.Open(badgerdb.Config{Dir: cfg.BadgerDir, SyncWrites: true}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger: %w", err)
		}
		next, closeFn = db, db.Close
		logger.Info("using badger storage", zap.String("dir", cfg.BadgerDir))
	default:
		next = jsonfile.New(cfg.DataFile, logger)
		logger.Info("using json file storage", zap.String("path", cfg.DataFile))
	}

	repo := storage.NewResilient(next, resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}, logger)
	return repo, closeFn, nil
}
