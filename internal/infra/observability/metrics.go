package observability

import (
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the CRM.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	mutations         *prometheus.CounterVec
	ledgerSync        *prometheus.CounterVec
	goalRollovers     *prometheus.CounterVec
	logins            *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_operation_duration_seconds",
				Help:    "Duration of store operations, persistence included.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_mutations_total",
				Help: "Total state mutations by operation and result.",
			},
			[]string{"operation", "result"},
		),
		ledgerSync: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_ledger_sync_total",
				Help: "Ledger entries created, removed or amended by pipeline transitions.",
			},
			[]string{"action"},
		),
		goalRollovers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_goal_rollovers_total",
				Help: "Monthly goals created by the rollover, by outcome.",
			},
			[]string{"outcome"},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_logins_total",
				Help: "Login attempts by result.",
			},
			[]string{"result"},
		),
		persistenceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_persistence_errors_total",
				Help: "Failed state saves by backend.",
			},
			[]string{"backend"},
		),
	}
}

// RecordOperationDuration records the duration of a store operation.
func (m *Metrics) RecordOperationDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrMutation counts a mutation attempt; result is "success" or "error".
func (m *Metrics) IncrMutation(operation, result string) {
	m.mutations.WithLabelValues(operation, result).Inc()
}

// IncrLedgerSync counts one ledger sync action ("created", "removed", "amended").
func (m *Metrics) IncrLedgerSync(action string, n int) {
	if n <= 0 {
		return
	}
	m.ledgerSync.WithLabelValues(action).Add(float64(n))
}

// IncrGoalRollover counts a created monthly goal ("baseline", "escalated", "repeated").
func (m *Metrics) IncrGoalRollover(outcome string) {
	m.goalRollovers.WithLabelValues(outcome).Inc()
}

// IncrLogin counts a login attempt; result is "success" or "failure".
func (m *Metrics) IncrLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// IncrPersistenceError counts a failed save.
func (m *Metrics) IncrPersistenceError(backend string) {
	m.persistenceErrors.WithLabelValues(backend).Inc()
}

// Snapshot returns the cumulative counters suitable for GET /v1/ops/metrics.
func (m *Metrics) Snapshot() *domain.OpsMetrics {
	families, err := m.Registry.Gather()
	if err != nil {
		return &domain.OpsMetrics{}
	}

	total := sumCounter(families, "crm_mutations_total", "", "")
	failed := sumCounter(families, "crm_mutations_total", "result", "error")
	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	return &domain.OpsMetrics{
		Mutations:         int64(total),
		MutationErrors:    int64(failed),
		LedgerCreated:     int64(sumCounter(families, "crm_ledger_sync_total", "action", "created")),
		LedgerRemoved:     int64(sumCounter(families, "crm_ledger_sync_total", "action", "removed")),
		LedgerAmended:     int64(sumCounter(families, "crm_ledger_sync_total", "action", "amended")),
		GoalRollovers:     int64(sumCounter(families, "crm_goal_rollovers_total", "", "")),
		LoginSuccess:      int64(sumCounter(families, "crm_logins_total", "result", "success")),
		LoginFailure:      int64(sumCounter(families, "crm_logins_total", "result", "failure")),
		PersistenceErrors: int64(sumCounter(families, "crm_persistence_errors_total", "", "")),
		ErrorRate:         errorRate,
	}
}

// sumCounter adds up every series of a counter family, optionally restricted
// to series whose label equals value. An empty label sums all series.
func sumCounter(families []*dto.MetricFamily, name, label, value string) float64 {
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" && !hasLabel(metric, label, value) {
				continue
			}
			sum += metric.GetCounter().GetValue()
		}
	}
	return sum
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
