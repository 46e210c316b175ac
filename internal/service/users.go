package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Session
// ============================================================

// Login opens the session for the user whose login and password match exactly.
// On mismatch it returns ErrUnauthorized and the state is unchanged.
// Passwords are opaque compared values; there is no lockout.
func (s *CRM) Login(ctx context.Context, login, password string) (*domain.User, error) {
	u, _, err := s.login(ctx, login, password)
	return u, err
}

// login is Login that also returns the id of the opened session.
func (s *CRM) login(ctx context.Context, login, password string) (*domain.User, string, error) {
	_, span := tracer.Start(ctx, "CRM.Login")
	defer span.End()
	span.SetAttributes(attribute.String("login", login))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.state.Users {
		if u.Login == login && u.Password == password {
			cp := u
			s.current = &cp
			s.session = uuid.NewString()
			s.metrics.IncrLogin("success")
			s.logger.Info("user logged in",
				zap.String("user_id", u.ID),
				zap.String("role", string(u.Role)),
			)
			return publicUser(&cp), s.session, nil
		}
	}

	s.metrics.IncrLogin("failure")
	s.logger.Warn("login: invalid credentials", zap.String("login", login))
	return nil, "", &domain.ErrUnauthorized{Message: "invalid credentials"}
}

// Logout clears the session user. Durable collections are untouched.
func (s *CRM) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.logger.Info("user logged out", zap.String("user_id", s.current.ID))
	}
	s.current = nil
	s.session = ""
}

// currentSession returns the session user and the id of its login.
func (s *CRM) currentSession() (*domain.User, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return publicUser(s.current), s.session
}

// ============================================================
// Users
// ============================================================

// AddUser creates a user. The session user must be allowed on the users tab,
// and logins are unique (case-insensitively).
func (s *CRM) AddUser(ctx context.Context, in domain.NewUserInput) (*domain.User, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	var created domain.User
	err := s.mutate(ctx, "add_user", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabUsers); err != nil {
			return err
		}
		for _, u := range tx.state.Users {
			if strings.EqualFold(u.Login, in.Login) {
				return &domain.ErrConflict{Message: fmt.Sprintf("login already in use: %s", in.Login)}
			}
		}
		created = domain.User{
			ID:       s.newID(),
			Login:    in.Login,
			Name:     in.Name,
			Role:     in.Role,
			Password: in.Password,
		}
		tx.state.Users = append(tx.state.Users, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", created.ID),
		zap.String("role", string(created.Role)),
	)
	pub := created.Public()
	return &pub, nil
}

// DeleteUser removes a user. The session user can never delete itself.
func (s *CRM) DeleteUser(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete_user", func(tx *txn) error {
		u, err := requireTab(tx.user, domain.TabUsers)
		if err != nil {
			return err
		}
		if u.ID == id {
			return &domain.ErrForbidden{Action: "delete the session user"}
		}
		idx := tx.state.FindUser(id)
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "user", ID: id}
		}
		tx.state.Users = append(tx.state.Users[:idx], tx.state.Users[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// ListUsers returns every user without passwords.
func (s *CRM) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := s.view(ctx, "ListUsers", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		if _, err := requireTab(user, domain.TabUsers); err != nil {
			return err
		}
		out = make([]domain.User, 0, len(st.Users))
		for _, u := range st.Users {
			out = append(out, u.Public())
		}
		return nil
	})
	return out, err
}

// resolveResponsible returns the id and cached name of the responsible user.
// An empty id means the session user.
func resolveResponsible(st *domain.AppState, session *domain.User, id string) (string, string, error) {
	if id == "" {
		if session == nil {
			return "", "", &domain.ErrValidation{Field: "responsibleId", Message: "is required without a session"}
		}
		id = session.ID
	}
	idx := st.FindUser(id)
	if idx < 0 {
		return "", "", &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return id, st.Users[idx].Name, nil
}
