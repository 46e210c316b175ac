package handler

import (
	"net/http"

	"github.com/boddenberg/technova-crm-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard, goals, ranking, state export
// ============================================================

func dashboardHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		m, err := crm.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func goalsHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals")
		defer span.End()

		goals, err := crm.GoalsHistory(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
	}
}

func rankingHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ranking")
		defer span.End()

		ranking, err := crm.Ranking(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ranking": ranking})
	}
}

// stateHandler exports the whole state, passwords blanked.
func stateHandler(crm *service.CRM, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/state")
		defer span.End()

		snap, err := crm.Snapshot(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
