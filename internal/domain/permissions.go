package domain

// Tab is a section of the application gated by role.
type Tab string

const (
	TabDashboard  Tab = "dashboard"
	TabClients    Tab = "clients"
	TabPipeline   Tab = "pipeline"
	TabGoals      Tab = "goals"
	TabRanking    Tab = "ranking"
	TabAgenda     Tab = "agenda"
	TabUsers      Tab = "users"
	TabFixedCosts Tab = "fixed_costs"
	TabFinance    Tab = "finance"
)

// AllTabs lists the tabs in display order.
var AllTabs = []Tab{
	TabDashboard, TabClients, TabPipeline, TabGoals, TabRanking,
	TabAgenda, TabUsers, TabFixedCosts, TabFinance,
}

// TabPermissions is the static tab → allowed roles table. The store filters
// data with the same table, so the presentation boundary is not the only gate.
var TabPermissions = map[Tab][]Role{
	TabDashboard:  {RoleAdmin, RoleSeller, RoleHR, RoleFinance},
	TabClients:    {RoleAdmin, RoleSeller, RoleHR},
	TabPipeline:   {RoleAdmin, RoleSeller},
	TabGoals:      {RoleAdmin, RoleSeller},
	TabRanking:    {RoleAdmin, RoleHR},
	TabAgenda:     {RoleAdmin, RoleSeller, RoleHR},
	TabUsers:      {RoleAdmin, RoleHR},
	TabFixedCosts: {RoleAdmin, RoleFinance},
	TabFinance:    {RoleAdmin, RoleFinance},
}

// CanAccess reports whether role may open tab. Unknown tabs are denied.
func CanAccess(role Role, tab Tab) bool {
	for _, r := range TabPermissions[tab] {
		if r == role {
			return true
		}
	}
	return false
}

// TabsFor returns the tabs visible to role, in display order.
func TabsFor(role Role) []Tab {
	tabs := make([]Tab, 0, len(AllTabs))
	for _, t := range AllTabs {
		if CanAccess(role, t) {
			tabs = append(tabs, t)
		}
	}
	return tabs
}
