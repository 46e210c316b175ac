package service

import (
	"context"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"github.com/shopspring/decimal"
)

// RolloverOutcome describes what EnsureCurrentMonthGoal did.
type RolloverOutcome string

const (
	RolloverNone      RolloverOutcome = ""
	RolloverBaseline  RolloverOutcome = "baseline"
	RolloverEscalated RolloverOutcome = "escalated"
	RolloverRepeated  RolloverOutcome = "repeated"
)

// goalEscalation multiplies the target after a month that hit its goal.
var goalEscalation = decimal.RequireFromString("1.5")

// EnsureCurrentMonthGoal returns goals with a record for the month of now,
// appending one if it is missing. It is idempotent and insert-only: existing
// records are never edited, and skipped months are not backfilled (after a gap
// only the current month is created, from the baseline when the previous
// calendar month has no goal).
//
// The new target is previous target × 1.5 when the closed revenue of the
// previous month reached it, the previous target unchanged otherwise.
// The input slice is never modified.
func EnsureCurrentMonthGoal(goals []domain.MonthlyGoal, clients []domain.Client, now time.Time, baseline decimal.Decimal) ([]domain.MonthlyGoal, RolloverOutcome) {
	current := domain.MonthKey(now)
	for _, g := range goals {
		if g.Month == current {
			return goals, RolloverNone
		}
	}

	previous := domain.PreviousMonthKey(now)
	target := baseline
	outcome := RolloverBaseline
	for _, g := range goals {
		if g.Month != previous {
			continue
		}
		if ClosedRevenue(clients, previous).GreaterThanOrEqual(g.TargetValue) {
			target = g.TargetValue.Mul(goalEscalation)
			outcome = RolloverEscalated
		} else {
			target = g.TargetValue
			outcome = RolloverRepeated
		}
		break
	}

	next := domain.MonthlyGoal{
		Month:        current,
		TargetValue:  target,
		ReachedValue: decimal.Zero,
		IsCompleted:  false,
	}
	return append(goals[:len(goals):len(goals)], next), outcome
}

// ClosedRevenue sums the contract value of CLOSED clients created in month.
func ClosedRevenue(clients []domain.Client, month string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range clients {
		if c.Status == domain.StatusClosed && domain.InMonth(c.CreatedAt, month) {
			total = total.Add(c.ContractValue)
		}
	}
	return total
}

// GoalsHistory returns every goal, newest first, with the revenue reached in its month.
func (s *CRM) GoalsHistory(ctx context.Context) ([]domain.GoalProgress, error) {
	var out []domain.GoalProgress
	err := s.view(ctx, "GoalsHistory", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		if _, err := requireTab(user, domain.TabGoals); err != nil {
			return err
		}
		out = make([]domain.GoalProgress, 0, len(st.Goals))
		for i := len(st.Goals) - 1; i >= 0; i-- {
			g := st.Goals[i]
			revenue := ClosedRevenue(st.Clients, g.Month)
			pct := ratioPercent(revenue, g.TargetValue)
			out = append(out, domain.GoalProgress{
				Month:       g.Month,
				TargetValue: g.TargetValue,
				Revenue:     revenue,
				Percent:     pct,
				BarPercent:  min(100, pct),
				Hit:         revenue.GreaterThanOrEqual(g.TargetValue),
			})
		}
		return nil
	})
	return out, err
}

// ratioPercent returns part/whole·100, or 0 when whole is not positive.
func ratioPercent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
