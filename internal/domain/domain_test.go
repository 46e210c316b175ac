package domain

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTabsFor(t *testing.T) {
	tests := []struct {
		role Role
		want []Tab
	}{
		{RoleAdmin, AllTabs},
		{RoleSeller, []Tab{TabDashboard, TabClients, TabPipeline, TabGoals, TabAgenda}},
		{RoleHR, []Tab{TabDashboard, TabClients, TabRanking, TabAgenda, TabUsers}},
		{RoleFinance, []Tab{TabDashboard, TabFixedCosts, TabFinance}},
		{Role("GUEST"), []Tab{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := TabsFor(tt.role); !slices.Equal(got, tt.want) {
				t.Errorf("TabsFor(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestCanAccess_UnknownTabDenied(t *testing.T) {
	if CanAccess(RoleAdmin, Tab("reports")) {
		t.Error("expected unknown tab to be denied")
	}
}

func TestMonthKeys(t *testing.T) {
	tests := []struct {
		at        time.Time
		month     string
		prevMonth string
	}{
		{time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), "2024-05", "2024-04"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01", "2023-12"},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), "2024-03", "2024-02"},
		// 2024-06-01 01:00 in UTC+3 is still May in UTC.
		{time.Date(2024, 6, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), "2024-05", "2024-04"},
	}
	for _, tt := range tests {
		if got := MonthKey(tt.at); got != tt.month {
			t.Errorf("MonthKey(%s) = %s, want %s", tt.at, got, tt.month)
		}
		if got := PreviousMonthKey(tt.at); got != tt.prevMonth {
			t.Errorf("PreviousMonthKey(%s) = %s, want %s", tt.at, got, tt.prevMonth)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := NewClientInput{Name: "Carla", Company: "Padaria Sol", ContractValue: decimal.NewFromInt(1200)}
	if err := Validate(&valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	tests := []struct {
		name  string
		in    NewClientInput
		field string
	}{
		{"missing name", NewClientInput{Company: "X"}, "name"},
		{"negative value", NewClientInput{Name: "A", Company: "X", ContractValue: decimal.NewFromInt(-1)}, "contractValue"},
		{"bad email", NewClientInput{Name: "A", Company: "X", Email: "nope"}, "email"},
		{"bad status", NewClientInput{Name: "A", Company: "X", Status: "WON"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.in)
			var verr *ErrValidation
			if !errors.As(err, &verr) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	clientID := "c-1"
	paid := "2024-04"
	st := &AppState{
		Users:            []User{{ID: "u-1", Login: "admin"}},
		FinancialEntries: []FinancialEntry{{ID: "f-1", RelatedClientID: &clientID}},
		FixedCosts:       []FixedCost{{ID: "k-1", LastPaidMonth: &paid}},
	}

	cp := st.Clone()
	cp.Users[0].Login = "changed"
	*cp.FinancialEntries[0].RelatedClientID = "c-2"
	*cp.FixedCosts[0].LastPaidMonth = "2024-05"

	if st.Users[0].Login != "admin" {
		t.Error("users slice is shared")
	}
	if clientID != "c-1" {
		t.Error("related client id pointer is shared")
	}
	if paid != "2024-04" {
		t.Error("last paid month pointer is shared")
	}
	if cp.Clients == nil || cp.Meetings == nil || cp.Goals == nil {
		t.Error("expected nil collections to become empty")
	}
}

func TestUserPublic(t *testing.T) {
	u := User{ID: "u-1", Password: "secret"}
	if u.Public().Password != "" {
		t.Error("expected password to be blanked")
	}
	if u.Password != "secret" {
		t.Error("Public must not modify the receiver")
	}
}
