package handler

import (
	"net/http"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Authentication
// ============================================================

func authLoginHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := sessions.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(sessions *service.SessionManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		claims := ClaimsFromContext(ctx)
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		sessions.Logout(ctx, claims)
		w.WriteHeader(http.StatusNoContent)
	}
}

type meResponse struct {
	User domain.User  `json:"user"`
	Tabs []domain.Tab `json:"tabs"`
}

func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			writeError(w, http.StatusUnauthorized, "no active session")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{User: *u, Tabs: domain.TabsFor(u.Role)})
	}
}
