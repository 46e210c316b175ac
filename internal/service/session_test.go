package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/cache"

	"go.uber.org/zap"
)

func newTestSessions(t *testing.T) (*SessionManager, *CRM) {
	t.Helper()
	crm := newTestCRM(t, &memRepo{})
	revoked := cache.New[struct{}](time.Minute)
	t.Cleanup(revoked.Close)
	return NewSessionManager(crm, "test-secret", time.Minute, revoked, zap.NewNop()), crm
}

func TestSessionManager_LoginAndValidate(t *testing.T) {
	m, _ := newTestSessions(t)

	res, err := m.Login(context.Background(), &domain.LoginRequest{Login: "ana", Password: "ana"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.TokenType != "Bearer" || res.ExpiresIn != 60 {
		t.Errorf("unexpected login result: %+v", res)
	}
	if len(res.Tabs) != 5 {
		t.Errorf("expected 5 tabs for SELLER, got %v", res.Tabs)
	}

	claims, user, err := m.Validate(res.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Sub != "u-ana" || claims.Role != domain.RoleSeller || claims.ID == "" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if user.ID != "u-ana" {
		t.Errorf("expected session user ana, got %s", user.ID)
	}
}

func TestSessionManager_InvalidCredentials(t *testing.T) {
	m, _ := newTestSessions(t)

	_, err := m.Login(context.Background(), &domain.LoginRequest{Login: "ana", Password: "nope"})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err = m.Login(context.Background(), &domain.LoginRequest{Login: "ana"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation for missing password, got %v", err)
	}
}

func TestSessionManager_NewLoginInvalidatesPreviousToken(t *testing.T) {
	m, _ := newTestSessions(t)
	ctx := context.Background()

	first, err := m.Login(ctx, &domain.LoginRequest{Login: "ana", Password: "ana"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := m.Login(ctx, &domain.LoginRequest{Login: "admin", Password: "admin"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, _, err := m.Validate(first.AccessToken); err == nil {
		t.Fatal("expected token of the replaced session to be rejected")
	}
}

func TestSessionManager_SameUserLoginInvalidatesPreviousToken(t *testing.T) {
	m, _ := newTestSessions(t)
	ctx := context.Background()

	first, err := m.Login(ctx, &domain.LoginRequest{Login: "ana", Password: "ana"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, err := m.Login(ctx, &domain.LoginRequest{Login: "ana", Password: "ana"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, _, err := m.Validate(first.AccessToken); err == nil {
		t.Error("expected the earlier token of the same user to be rejected")
	}
	if _, _, err := m.Validate(second.AccessToken); err != nil {
		t.Errorf("expected the latest token to be valid, got %v", err)
	}
}

func TestSessionManager_Logout(t *testing.T) {
	m, crm := newTestSessions(t)
	ctx := context.Background()

	res, err := m.Login(ctx, &domain.LoginRequest{Login: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, _, err := m.Validate(res.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	m.Logout(ctx, claims)
	if crm.CurrentUser() != nil {
		t.Error("expected store session to be closed")
	}

	// Same user logs in again: the old token stays revoked.
	if _, err := m.Login(ctx, &domain.LoginRequest{Login: "admin", Password: "admin"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := m.Validate(res.AccessToken); err == nil {
		t.Fatal("expected revoked token to be rejected")
	}
}

func TestSessionManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m, _ := newTestSessions(t)

	res, err := m.Login(context.Background(), &domain.LoginRequest{Login: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	otherRevoked := cache.New[struct{}](time.Minute)
	defer otherRevoked.Close()
	other := NewSessionManager(m.crm, "another-secret", time.Minute, otherRevoked, zap.NewNop())
	if _, _, err := other.Validate(res.AccessToken); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, _, err := m.Validate(res.AccessToken); err == nil {
		t.Error("expected expired token to be rejected")
	}

	if _, _, err := m.Validate("not-a-token"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}
