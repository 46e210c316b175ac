package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()

	m.IncrMutation("AddClient", "success")
	m.IncrMutation("AddClient", "success")
	m.IncrMutation("DeleteClient", "success")
	m.IncrMutation("AddUser", "error")
	m.IncrLedgerSync("created", 2)
	m.IncrLedgerSync("removed", 1)
	m.IncrLedgerSync("amended", 0)
	m.IncrGoalRollover("escalated")
	m.IncrLogin("success")
	m.IncrLogin("failure")
	m.IncrLogin("failure")
	m.IncrPersistenceError("json")

	s := m.Snapshot()
	if s.Mutations != 4 || s.MutationErrors != 1 {
		t.Errorf("expected 4 mutations / 1 error, got %d / %d", s.Mutations, s.MutationErrors)
	}
	if s.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %v", s.ErrorRate)
	}
	if s.LedgerCreated != 2 || s.LedgerRemoved != 1 || s.LedgerAmended != 0 {
		t.Errorf("unexpected ledger counters: %+v", s)
	}
	if s.GoalRollovers != 1 || s.LoginSuccess != 1 || s.LoginFailure != 2 || s.PersistenceErrors != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
}

func TestMetrics_EmptySnapshot(t *testing.T) {
	s := NewMetrics().Snapshot()
	if s.Mutations != 0 || s.ErrorRate != 0 {
		t.Errorf("expected zero snapshot, got %+v", s)
	}
}

func TestMetrics_Exposition(t *testing.T) {
	m := NewMetrics()
	m.IncrLogin("success")

	expected := `
# HELP crm_logins_total Login attempts by result.
# TYPE crm_logins_total counter
crm_logins_total{result="success"} 1
`
	if err := testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "crm_logins_total"); err != nil {
		t.Error(err)
	}
}
