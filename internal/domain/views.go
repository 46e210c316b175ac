package domain

import "github.com/shopspring/decimal"

// ============================================================
// Derived, role-scoped views
// ============================================================

// DashboardMetrics is the dashboard projection for the session user.
type DashboardMetrics struct {
	Prospects      int             `json:"prospects"`
	Meetings       int             `json:"meetings"`
	Closed         int             `json:"closed"`
	Revenue        decimal.Decimal `json:"revenue"`
	Goal           decimal.Decimal `json:"goal"`
	ConversionRate float64         `json:"conversionRate"`
	Remaining      decimal.Decimal `json:"remaining"`
	Percent        float64         `json:"percent"`
	Month          string          `json:"month"`
}

// RankingEntry is one seller's current-month performance.
type RankingEntry struct {
	Position  int             `json:"position"`
	SellerID  string          `json:"sellerId"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
	Closings  int             `json:"closings"`
	AvatarKey string          `json:"avatarKey"`
}

// GoalProgress is a goal record together with the revenue reached in its month.
type GoalProgress struct {
	Month       string          `json:"month"`
	TargetValue decimal.Decimal `json:"targetValue"`
	Revenue     decimal.Decimal `json:"revenue"`
	Percent     float64         `json:"percent"`    // uncapped
	BarPercent  float64         `json:"barPercent"` // capped at 100
	Hit         bool            `json:"hit"`
}

// FinanceSummary aggregates the ledger.
type FinanceSummary struct {
	TotalIncome   decimal.Decimal  `json:"totalIncome"`
	TotalExpenses decimal.Decimal  `json:"totalExpenses"`
	Balance       decimal.Decimal  `json:"balance"`
	Recent        []FinancialEntry `json:"recent"`
	Movements     []FinancialEntry `json:"movements"`
}

// FixedCostSummary aggregates recurring obligations.
type FixedCostSummary struct {
	TotalPending decimal.Decimal `json:"totalPending"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	Costs        []FixedCost     `json:"costs"`
}

// OpsMetrics is the JSON counter snapshot served on GET /v1/ops/metrics.
type OpsMetrics struct {
	Mutations         int64   `json:"mutations"`
	MutationErrors    int64   `json:"mutation_errors"`
	LedgerCreated     int64   `json:"ledger_created"`
	LedgerRemoved     int64   `json:"ledger_removed"`
	LedgerAmended     int64   `json:"ledger_amended"`
	GoalRollovers     int64   `json:"goal_rollovers"`
	LoginSuccess      int64   `json:"login_success"`
	LoginFailure      int64   `json:"login_failure"`
	PersistenceErrors int64   `json:"persistence_errors"`
	ErrorRate         float64 `json:"error_rate"`
}
