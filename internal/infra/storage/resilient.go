package storage

import (
	"context"
	"errors"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Resilient wraps a repository with retry + exponential backoff and a
// circuit breaker. Missing and corrupt state are answers, not failures:
// they are returned at once and do not count against the breaker.
type Resilient struct {
	next    port.StateRepository
	backend string
	retry   resilience.Config
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilient decorates next.
func NewResilient(next port.StateRepository, cfg resilience.Config, logger *zap.Logger) *Resilient {
	backend := "repository"
	if b, ok := next.(interface{ Backend() string }); ok {
		backend = b.Backend()
	}
	return &Resilient{
		next:    next,
		backend: backend,
		retry:   cfg,
		cb:      resilience.NewCircuitBreaker("storage-"+backend, isFailure, logger),
		logger:  logger,
	}
}

// Backend reports the wrapped backend's name.
func (r *Resilient) Backend() string { return r.backend }

// Load calls the wrapped Load through the breaker.
func (r *Resilient) Load(ctx context.Context) (*domain.AppState, error) {
	var st *domain.AppState
	err := r.call(ctx, "load", func() error {
		var err error
		st, err = r.next.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Save calls the wrapped Save through the breaker.
func (r *Resilient) Save(ctx context.Context, st *domain.AppState) error {
	return r.call(ctx, "save", func() error {
		return r.next.Save(ctx, st)
	})
}

func (r *Resilient) call(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	_, err := r.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, r.retry, func() error {
			attempt++
			err := fn()
			if err == nil {
				return nil
			}
			if !isFailure(err) {
				return resilience.Permanent(err)
			}
			r.logger.Warn("storage call failed",
				zap.String("backend", r.backend),
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrPersistence{Backend: r.backend, Err: err}
	}
	return err
}

// isFailure reports whether err means the backend is unhealthy.
func isFailure(err error) bool {
	var corrupt *domain.ErrCorruptState
	switch {
	case errors.Is(err, port.ErrNoState),
		errors.As(err, &corrupt),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
