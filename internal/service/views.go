package service

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/boddenberg/technova-crm-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Dashboard computes the session user's metrics. SELLER sees only the clients
// they are responsible for; every other role sees all clients.
func (s *CRM) Dashboard(ctx context.Context) (*domain.DashboardMetrics, error) {
	var m *domain.DashboardMetrics
	err := s.view(ctx, "Dashboard", func(st *domain.AppState, user *domain.User, now time.Time) error {
		u, err := requireTab(user, domain.TabDashboard)
		if err != nil {
			return err
		}
		m = dashboardFor(st, scopedClients(st.Clients, u), now)
		return nil
	})
	return m, err
}

func dashboardFor(st *domain.AppState, clients []domain.Client, now time.Time) *domain.DashboardMetrics {
	month := domain.MonthKey(now)
	m := &domain.DashboardMetrics{Month: month, Goal: decimal.Zero}

	for _, c := range clients {
		switch c.Status {
		case domain.StatusProspect:
			m.Prospects++
		case domain.StatusMeeting:
			m.Meetings++
		case domain.StatusClosed:
			m.Closed++
		}
	}
	m.Revenue = ClosedRevenue(clients, month)
	if g, ok := st.GoalFor(month); ok {
		m.Goal = g.TargetValue
	}

	if m.Prospects > 0 {
		m.ConversionRate = float64(m.Closed) / float64(m.Prospects) * 100
	}
	m.Remaining = decimal.Max(decimal.Zero, m.Goal.Sub(m.Revenue))
	m.Percent = min(100, ratioPercent(m.Revenue, m.Goal))
	return m
}

// Ranking orders the sellers by the revenue they closed this month, then by
// number of closings, then by name.
func (s *CRM) Ranking(ctx context.Context) ([]domain.RankingEntry, error) {
	var out []domain.RankingEntry
	err := s.view(ctx, "Ranking", func(st *domain.AppState, user *domain.User, now time.Time) error {
		if _, err := requireTab(user, domain.TabRanking); err != nil {
			return err
		}
		out = rankSellers(st, domain.MonthKey(now))
		return nil
	})
	return out, err
}

func rankSellers(st *domain.AppState, month string) []domain.RankingEntry {
	out := make([]domain.RankingEntry, 0)
	for _, u := range st.Users {
		if u.Role != domain.RoleSeller {
			continue
		}
		e := domain.RankingEntry{SellerID: u.ID, Name: u.Name, Revenue: decimal.Zero, AvatarKey: avatarKey(u.Name)}
		for _, c := range st.Clients {
			if c.ResponsibleID != u.ID || c.Status != domain.StatusClosed || !domain.InMonth(c.CreatedAt, month) {
				continue
			}
			e.Revenue = e.Revenue.Add(c.ContractValue)
			e.Closings++
		}
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(a, b domain.RankingEntry) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		if a.Closings != b.Closings {
			return b.Closings - a.Closings
		}
		return strings.Compare(a.Name, b.Name)
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func avatarKey(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return strings.ToUpper(string(r))
}
