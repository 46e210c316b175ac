package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// recentEntries is the size of the "latest movements" list of the finance summary.
const recentEntries = 10

// ============================================================
// Ledger
// ============================================================

// AddFinancialEntry records a manual cash movement owned by the session user.
func (s *CRM) AddFinancialEntry(ctx context.Context, in domain.NewFinancialEntryInput) (*domain.FinancialEntry, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	var created domain.FinancialEntry
	err := s.mutate(ctx, "add_financial_entry", func(tx *txn) error {
		u, err := requireTab(tx.user, domain.TabFinance)
		if err != nil {
			return err
		}
		date := in.Date
		if date.IsZero() {
			date = tx.now
		}
		created = domain.FinancialEntry{
			ID:            s.newID(),
			Type:          in.Type,
			Description:   in.Description,
			Amount:        in.Amount,
			Category:      in.Category,
			PaymentMethod: in.PaymentMethod,
			Date:          date.UTC(),
			ResponsibleID: u.ID,
			Notes:         in.Notes,
		}
		tx.state.FinancialEntries = append(tx.state.FinancialEntries, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("financial entry added",
		zap.String("entry_id", created.ID),
		zap.String("type", string(created.Type)),
		zap.String("amount", created.Amount.String()),
	)
	return &created, nil
}

// DeleteFinancialEntry removes a manual entry. Sale entries are owned by the
// client they are linked to and can only go away through that client.
func (s *CRM) DeleteFinancialEntry(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete_financial_entry", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabFinance); err != nil {
			return err
		}
		idx := slices.IndexFunc(tx.state.FinancialEntries, func(e domain.FinancialEntry) bool { return e.ID == id })
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "financial entry", ID: id}
		}
		if tx.state.FinancialEntries[idx].SystemGenerated() {
			return &domain.ErrForbidden{Action: "delete a sale entry linked to a client"}
		}
		tx.state.FinancialEntries = slices.Delete(tx.state.FinancialEntries, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("financial entry deleted", zap.String("entry_id", id))
	return nil
}

// ListFinancialEntries returns the entries whose description or category
// contains search (case-insensitive), newest first.
func (s *CRM) ListFinancialEntries(ctx context.Context, search string) ([]domain.FinancialEntry, error) {
	var out []domain.FinancialEntry
	err := s.view(ctx, "ListFinancialEntries", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		if _, err := requireTab(user, domain.TabFinance); err != nil {
			return err
		}
		out = filterEntries(st.FinancialEntries, search)
		return nil
	})
	return out, err
}

// FinanceSummary totals the whole ledger and lists the matching movements.
func (s *CRM) FinanceSummary(ctx context.Context, search string) (*domain.FinanceSummary, error) {
	var sum *domain.FinanceSummary
	err := s.view(ctx, "FinanceSummary", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		if _, err := requireTab(user, domain.TabFinance); err != nil {
			return err
		}

		income, expenses := decimal.Zero, decimal.Zero
		for _, e := range st.FinancialEntries {
			switch e.Type {
			case domain.EntryIncome:
				income = income.Add(e.Amount)
			case domain.EntryExpense:
				expenses = expenses.Add(e.Amount)
			}
		}

		recent := newestFirst(st.FinancialEntries)
		if len(recent) > recentEntries {
			recent = recent[:recentEntries]
		}

		sum = &domain.FinanceSummary{
			TotalIncome:   income,
			TotalExpenses: expenses,
			Balance:       income.Sub(expenses),
			Recent:        recent,
			Movements:     filterEntries(st.FinancialEntries, search),
		}
		return nil
	})
	return sum, err
}

func filterEntries(entries []domain.FinancialEntry, search string) []domain.FinancialEntry {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.FinancialEntry, 0, len(entries))
	for _, e := range entries {
		if needle == "" ||
			strings.Contains(strings.ToLower(e.Description), needle) ||
			strings.Contains(strings.ToLower(e.Category), needle) {
			out = append(out, e)
		}
	}
	return newestFirst(out)
}

// newestFirst returns a copy sorted by date, newest first. Entries with the
// same date keep their insertion order.
func newestFirst(entries []domain.FinancialEntry) []domain.FinancialEntry {
	out := slices.Clone(entries)
	if out == nil {
		out = []domain.FinancialEntry{}
	}
	slices.SortStableFunc(out, func(a, b domain.FinancialEntry) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// ============================================================
// Fixed costs
// ============================================================

// AddFixedCost registers a recurring obligation, initially PENDING.
func (s *CRM) AddFixedCost(ctx context.Context, in domain.NewFixedCostInput) (*domain.FixedCost, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	var created domain.FixedCost
	err := s.mutate(ctx, "add_fixed_cost", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabFixedCosts); err != nil {
			return err
		}
		created = domain.FixedCost{
			ID:          s.newID(),
			Description: in.Description,
			Amount:      in.Amount,
			DueDate:     in.DueDate,
			Status:      domain.FixedCostPending,
			Category:    in.Category,
		}
		tx.state.FixedCosts = append(tx.state.FixedCosts, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixed cost added",
		zap.String("fixed_cost_id", created.ID),
		zap.Int("due_date", created.DueDate),
	)
	return &created, nil
}

// DeleteFixedCost removes a recurring obligation.
func (s *CRM) DeleteFixedCost(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete_fixed_cost", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabFixedCosts); err != nil {
			return err
		}
		idx := slices.IndexFunc(tx.state.FixedCosts, func(c domain.FixedCost) bool { return c.ID == id })
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "fixed cost", ID: id}
		}
		tx.state.FixedCosts = slices.Delete(tx.state.FixedCosts, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("fixed cost deleted", zap.String("fixed_cost_id", id))
	return nil
}

// UpdateFixedCostStatus toggles a fixed cost. Marking it PAID stamps the
// current month; going back to PENDING keeps the last paid month.
// Nothing resets a PAID cost when the month turns.
func (s *CRM) UpdateFixedCostStatus(ctx context.Context, id string, status domain.FixedCostStatus) (*domain.FixedCost, error) {
	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be one of [PENDING PAID]"}
	}

	var updated domain.FixedCost
	err := s.mutate(ctx, "update_fixed_cost_status", func(tx *txn) error {
		if _, err := requireTab(tx.user, domain.TabFixedCosts); err != nil {
			return err
		}
		idx := slices.IndexFunc(tx.state.FixedCosts, func(c domain.FixedCost) bool { return c.ID == id })
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "fixed cost", ID: id}
		}
		c := &tx.state.FixedCosts[idx]
		c.Status = status
		if status == domain.FixedCostPaid {
			month := domain.MonthKey(tx.now)
			c.LastPaidMonth = &month
		}
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("fixed cost status changed",
		zap.String("fixed_cost_id", id),
		zap.String("status", string(status)),
	)
	return &updated, nil
}

// ListFixedCosts returns every fixed cost ordered by due day.
func (s *CRM) ListFixedCosts(ctx context.Context) ([]domain.FixedCost, error) {
	sum, err := s.FixedCostSummary(ctx)
	if err != nil {
		return nil, err
	}
	return sum.Costs, nil
}

// FixedCostSummary totals pending and paid obligations.
func (s *CRM) FixedCostSummary(ctx context.Context) (*domain.FixedCostSummary, error) {
	var sum *domain.FixedCostSummary
	err := s.view(ctx, "FixedCostSummary", func(st *domain.AppState, user *domain.User, _ time.Time) error {
		if _, err := requireTab(user, domain.TabFixedCosts); err != nil {
			return err
		}
		costs := slices.Clone(st.FixedCosts)
		if costs == nil {
			costs = []domain.FixedCost{}
		}
		slices.SortStableFunc(costs, func(a, b domain.FixedCost) int { return a.DueDate - b.DueDate })

		sum = &domain.FixedCostSummary{TotalPending: decimal.Zero, TotalPaid: decimal.Zero, Costs: costs}
		for _, c := range costs {
			if c.Status == domain.FixedCostPaid {
				sum.TotalPaid = sum.TotalPaid.Add(c.Amount)
			} else {
				sum.TotalPending = sum.TotalPending.Add(c.Amount)
			}
		}
		return nil
	})
	return sum, err
}
