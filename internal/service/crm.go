// Package service provides the business logic layer of the CRM.
// CRM is the single state container: it owns every entity collection and
// the session user, and is the only component allowed to mutate them.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/observability"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/crm")

// DefaultGoalBaseline is the target of a month with no previous-month goal.
var DefaultGoalBaseline = decimal.NewFromInt(5000)

// CRM is the state store. Every mutation is serialised by mu and applied
// copy-on-write: the operation runs on a clone, the clone is saved, and only
// then does it replace the committed state. Callers never observe partial changes.
type CRM struct {
	mu      sync.Mutex
	state   *domain.AppState
	current *domain.User
	session string // id of the current login, new on every Login

	repo    port.StateRepository
	backend string
	metrics *observability.Metrics
	logger  *zap.Logger

	now      func() time.Time
	newID    func() string
	seed     []domain.User
	baseline decimal.Decimal
}

// Option customises a CRM at construction.
type Option func(*CRM)

// WithClock replaces time.Now (tests pin the calendar month with it).
func WithClock(now func() time.Time) Option {
	return func(s *CRM) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString for entity ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *CRM) { s.newID = newID }
}

// WithSeedUsers sets the users created when no state has been persisted yet.
func WithSeedUsers(users []domain.User) Option {
	return func(s *CRM) { s.seed = append([]domain.User{}, users...) }
}

// WithGoalBaseline overrides DefaultGoalBaseline.
func WithGoalBaseline(v decimal.Decimal) Option {
	return func(s *CRM) { s.baseline = v }
}

// NewCRM loads the persisted state and returns the store.
// When nothing was persisted yet a default state (seed users, empty collections)
// is created and saved. Any other load failure, malformed data included, is returned.
func NewCRM(ctx context.Context, repo port.StateRepository, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) (*CRM, error) {
	s := &CRM{
		repo:     repo,
		backend:  backendName(repo),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		baseline: DefaultGoalBaseline,
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := repo.Load(ctx)
	switch {
	case errors.Is(err, port.ErrNoState):
		logger.Info("no persisted state, creating default state",
			zap.Int("seed_users", len(s.seed)),
		)
		st = &domain.AppState{Users: append([]domain.User{}, s.seed...)}
		st = st.Clone()
		st.Goals, _ = EnsureCurrentMonthGoal(st.Goals, st.Clients, s.now(), s.baseline)
		if err := repo.Save(ctx, st); err != nil {
			return nil, s.persistenceError(err)
		}
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}

	s.state = st.Clone()
	logger.Info("state loaded",
		zap.String("backend", s.backend),
		zap.Int("users", len(s.state.Users)),
		zap.Int("clients", len(s.state.Clients)),
		zap.Int("goals", len(s.state.Goals)),
		zap.Int("financial_entries", len(s.state.FinancialEntries)),
	)
	return s, nil
}

// txn is the working copy handed to a mutation.
type txn struct {
	state  *domain.AppState
	user   *domain.User
	now    time.Time
	ledger ledgerDelta
}

// mutate runs fn on a clone of the state with the goal rollover applied,
// saves the clone and commits it. Any error leaves the committed state untouched.
func (s *CRM) mutate(ctx context.Context, op string, fn func(tx *txn) error) error {
	ctx, span := tracer.Start(ctx, "CRM."+op)
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(op, time.Since(start))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{state: s.state.Clone(), user: s.current, now: s.now()}
	var outcome RolloverOutcome
	tx.state.Goals, outcome = EnsureCurrentMonthGoal(tx.state.Goals, tx.state.Clients, tx.now, s.baseline)

	if err := fn(tx); err != nil {
		s.metrics.IncrMutation(op, "error")
		span.RecordError(err)
		return err
	}

	if err := s.repo.Save(ctx, tx.state); err != nil {
		s.metrics.IncrMutation(op, "error")
		span.SetStatus(codes.Error, "save failed")
		span.RecordError(err)
		s.logger.Error("state save failed, mutation discarded",
			zap.String("operation", op),
			zap.String("backend", s.backend),
			zap.Error(err),
		)
		return s.persistenceError(err)
	}

	s.state = tx.state
	s.metrics.IncrMutation(op, "success")
	s.recordLedger(tx.ledger)
	s.recordRollover(outcome, tx.now)
	span.SetAttributes(
		attribute.Int("ledger.created", tx.ledger.created),
		attribute.Int("ledger.removed", tx.ledger.removed),
		attribute.Int("ledger.amended", tx.ledger.amended),
	)
	return nil
}

// view runs fn against the committed state under the store lock. The goal
// rollover runs first; when it inserts this month's goal, the new state is
// persisted like any mutation.
func (s *CRM) view(ctx context.Context, op string, fn func(st *domain.AppState, user *domain.User, now time.Time) error) error {
	ctx, span := tracer.Start(ctx, "CRM."+op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if _, ok := s.state.GoalFor(domain.MonthKey(now)); !ok {
		next := s.state.Clone()
		var outcome RolloverOutcome
		next.Goals, outcome = EnsureCurrentMonthGoal(next.Goals, next.Clients, now, s.baseline)
		if err := s.repo.Save(ctx, next); err != nil {
			span.RecordError(err)
			return s.persistenceError(err)
		}
		s.state = next
		s.recordRollover(outcome, now)
	}

	return fn(s.state, s.current, now)
}

// Snapshot returns a deep copy of the state plus the session user.
// Passwords are blanked: the snapshot is meant for presentation.
func (s *CRM) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := s.view(ctx, "Snapshot", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		cp := st.Clone()
		for i := range cp.Users {
			cp.Users[i] = cp.Users[i].Public()
		}
		snap = &domain.Snapshot{AppState: *cp, CurrentUser: publicUser(user)}
		return nil
	})
	return snap, err
}

// CurrentUser returns the session user, or nil when nobody is logged in.
func (s *CRM) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return publicUser(s.current)
}

// Backend names the persistence backend.
func (s *CRM) Backend() string { return s.backend }

func (s *CRM) recordLedger(d ledgerDelta) {
	s.metrics.IncrLedgerSync("created", d.created)
	s.metrics.IncrLedgerSync("removed", d.removed)
	s.metrics.IncrLedgerSync("amended", d.amended)
}

func (s *CRM) recordRollover(outcome RolloverOutcome, now time.Time) {
	if outcome == RolloverNone {
		return
	}
	s.metrics.IncrGoalRollover(string(outcome))
	s.logger.Info("monthly goal created",
		zap.String("month", domain.MonthKey(now)),
		zap.String("outcome", string(outcome)),
	)
}

func (s *CRM) persistenceError(err error) error {
	s.metrics.IncrPersistenceError(s.backend)
	var perr *domain.ErrPersistence
	if errors.As(err, &perr) {
		return err
	}
	return &domain.ErrPersistence{Backend: s.backend, Err: err}
}

func backendName(repo port.StateRepository) string {
	if b, ok := repo.(interface{ Backend() string }); ok {
		return b.Backend()
	}
	return "repository"
}

func publicUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := u.Public()
	return &cp
}

// requireSession returns the session user or an ErrUnauthorized.
func requireSession(user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	return user, nil
}

// requireTab checks that the session user's role may open tab.
func requireTab(user *domain.User, tab domain.Tab) (*domain.User, error) {
	u, err := requireSession(user)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccess(u.Role, tab) {
		return nil, &domain.ErrForbidden{Action: fmt.Sprintf("role %s cannot access %s", u.Role, tab)}
	}
	return u, nil
}
