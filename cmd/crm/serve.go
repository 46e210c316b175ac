package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/config"
	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/handler"
	"github.com/boddenberg/technova-crm-go/internal/infra/cache"
	"github.com/boddenberg/technova-crm-go/internal/infra/observability"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/infra/seed"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("goal_baseline", cfg.GoalBaseline.String()),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	if cfg.InsecureSecret() {
		logger.Error("refusing to start with the development JWT secret", zap.String("log_level", cfg.LogLevel))
		return errors.New("JWT_SECRET must be set outside debug level")
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "technova-crm")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	// --- Seed ---
	var seedUsers []domain.User
	if cfg.SeedUsersFile != "" {
		seedUsers, err = seed.LoadUsers(cfg.SeedUsersFile)
		if err != nil {
			return err
		}
	} else {
		seedUsers = seed.Admin(cfg.SeedAdminLogin, cfg.SeedAdminPassword)
	}

	// --- Store ---
	crm, err := service.NewCRM(parent, repo, metrics, logger,
		service.WithSeedUsers(seedUsers),
		service.WithGoalBaseline(cfg.GoalBaseline),
	)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	// --- Sessions ---
	revoked := cache.New[struct{}](cfg.JWTAccessTTL)
	defer revoked.Close()
	sessions := service.NewSessionManager(crm, cfg.JWTSecret, cfg.JWTAccessTTL, revoked, logger)

	// --- Router ---
	router := handler.NewRouter(crm, sessions, metrics, resilience.NewBulkhead(cfg.MaxConcurrency), logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
