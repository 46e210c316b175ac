package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/boddenberg/technova-crm-go/internal/infra/observability"
	"github.com/boddenberg/technova-crm-go/internal/infra/resilience"
	"github.com/boddenberg/technova-crm-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(crm *service.CRM, sessions *service.SessionManager, metrics *observability.Metrics, bulkhead *resilience.Bulkhead, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(crm))
	r.Get("/readyz", readyzHandler(crm))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(BulkheadMiddleware(bulkhead))

		r.Post("/auth/login", authLoginHandler(sessions, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(sessions, logger))

			r.Post("/auth/logout", authLogoutHandler(sessions, logger))
			r.Get("/auth/me", authMeHandler())

			r.With(RequireTab(domain.TabDashboard, logger)).Get("/dashboard", dashboardHandler(crm, logger))
			r.With(RequireTab(domain.TabGoals, logger)).Get("/goals", goalsHandler(crm, logger))
			r.With(RequireTab(domain.TabRanking, logger)).Get("/ranking", rankingHandler(crm, logger))

			r.Route("/clients", func(r chi.Router) {
				r.Use(RequireTab(domain.TabClients, logger))
				r.Get("/", listClientsHandler(crm, logger))
				r.Post("/", createClientHandler(crm, logger))
				r.Patch("/{clientId}", updateClientHandler(crm, logger))
				r.With(RequireTab(domain.TabPipeline, logger)).Put("/{clientId}/status", updateClientStatusHandler(crm, logger))
				r.Delete("/{clientId}", deleteClientHandler(crm, logger))
			})

			r.Route("/meetings", func(r chi.Router) {
				r.Use(RequireTab(domain.TabAgenda, logger))
				r.Get("/", listMeetingsHandler(crm, logger))
				r.Post("/", createMeetingHandler(crm, logger))
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(RequireTab(domain.TabUsers, logger))
				r.Get("/", listUsersHandler(crm, logger))
				r.Post("/", createUserHandler(crm, logger))
				r.Delete("/{userId}", deleteUserHandler(crm, logger))
			})

			r.Route("/finance", func(r chi.Router) {
				r.Use(RequireTab(domain.TabFinance, logger))
				r.Get("/entries", listFinancialEntriesHandler(crm, logger))
				r.Post("/entries", createFinancialEntryHandler(crm, logger))
				r.Delete("/entries/{entryId}", deleteFinancialEntryHandler(crm, logger))
				r.Get("/summary", financeSummaryHandler(crm, logger))
			})

			r.Route("/fixed-costs", func(r chi.Router) {
				r.Use(RequireTab(domain.TabFixedCosts, logger))
				r.Get("/", listFixedCostsHandler(crm, logger))
				r.Post("/", createFixedCostHandler(crm, logger))
				r.Delete("/{costId}", deleteFixedCostHandler(crm, logger))
				r.Put("/{costId}/status", updateFixedCostStatusHandler(crm, logger))
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))
				r.Get("/state", stateHandler(crm, logger))
				r.Get("/ops/metrics", opsMetricsHandler(metrics))
			})
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

type healthResponse struct {
	Status    string `json:"status"`
	Backend   string `json:"backend"`
	CheckedAt string `json:"checked_at"`
}

func healthzHandler(crm *service.CRM) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Backend:   crm.Backend(),
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readyzHandler reports ready once the store has loaded its state.
func readyzHandler(crm *service.CRM) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if crm == nil {
			writeError(w, http.StatusServiceUnavailable, "state not loaded")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
