package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const (
	userKey   contextKey = "user"
	claimsKey contextKey = "claims"
)

// JWTAuthMiddleware validates Bearer tokens and injects the session user into context.
func JWTAuthMiddleware(sessions *service.SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, user, err := sessions.Validate(parts[1])
			if err != nil {
				logger.Warn("auth: token rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTab rejects requests whose session role may not open tab.
func RequireTab(tab domain.Tab, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil || !domain.CanAccess(u.Role, tab) {
				logger.Warn("tab access denied",
					zap.String("path", r.URL.Path),
					zap.String("tab", string(tab)),
				)
				writeError(w, http.StatusForbidden, "forbidden: tab "+string(tab))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests from any role but role.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil || u.Role != role {
				writeError(w, http.StatusForbidden, "forbidden: requires role "+string(role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BulkheadMiddleware caps concurrent requests; a request that cannot get a
// slot before its context ends gets 503.
func BulkheadMiddleware(b *resilience.Bulkhead) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := b.Acquire(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "server busy")
				return
			}
			defer b.Release()
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated session user.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}

// ClaimsFromContext returns the validated token claims.
func ClaimsFromContext(ctx context.Context) *service.SessionClaims {
	c, _ := ctx.Value(claimsKey).(*service.SessionClaims)
	return c
}
