package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

const (
	tokenTypeAccess = "access"
	tokenIssuer     = "technova-crm"
)

// SessionClaims are the custom claims of an access token.
type SessionClaims struct {
	Sub  string      `json:"sub"`
	Sid  string      `json:"sid"`
	Role domain.Role `json:"role"`
	Type string      `json:"type"`
	jwt.RegisteredClaims
}

// SessionManager puts HTTP bearer tokens on top of the store's single session.
// Logged-out token ids are kept in revoked until the token would have expired.
type SessionManager struct {
	crm       *CRM
	jwtSecret []byte
	accessTTL time.Duration
	revoked   port.Cache[struct{}]
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionManager creates a session manager. revoked should hold entries at
// least as long as accessTTL.
func NewSessionManager(crm *CRM, jwtSecret string, accessTTL time.Duration, revoked port.Cache[struct{}], logger *zap.Logger) *SessionManager {
	return &SessionManager{
		crm:       crm,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		revoked:   revoked,
		logger:    logger,
		now:       time.Now,
	}
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (m *SessionManager) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionManager.Login")
	defer span.End()

	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	user, sid, err := m.crm.login(ctx, req.Login, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := m.signAccessToken(user, sid)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &domain.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(m.accessTTL.Seconds()),
		User:        *user,
		Tabs:        domain.TabsFor(user.Role),
	}, nil
}

// ============================================================
// Logout: POST /v1/auth/logout
// ============================================================

// Logout revokes the token and ends the store session.
func (m *SessionManager) Logout(ctx context.Context, claims *SessionClaims) {
	_, span := sessionTracer.Start(ctx, "SessionManager.Logout")
	defer span.End()

	if claims.ID != "" {
		m.revoked.Set(claims.ID, struct{}{})
	}
	m.crm.Logout()
	m.logger.Info("session closed", zap.String("user_id", claims.Sub))
}

// ============================================================
// Validate (used by middleware)
// ============================================================

// Validate parses an access token. It is accepted only while it is not revoked
// and it was issued for the store's current login: any later login, by the
// same user or someone else, invalidates every earlier token.
func (m *SessionManager) Validate(tokenString string) (*SessionClaims, *domain.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess {
		return nil, nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	if _, revoked := m.revoked.Get(claims.ID); revoked {
		return nil, nil, &domain.ErrUnauthorized{Message: "token revoked"}
	}

	current, sid := m.crm.currentSession()
	if current == nil || current.ID != claims.Sub || sid != claims.Sid {
		return nil, nil, &domain.ErrUnauthorized{Message: "session is no longer active"}
	}
	return claims, current, nil
}

func (m *SessionManager) signAccessToken(u *domain.User, sid string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Sub:  u.ID,
		Sid:  sid,
		Role: u.Role,
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}
