package domain

// AppState is the aggregate root holding every durable collection.
// The session user is not part of it and is never persisted.
type AppState struct {
	Users            []User           `json:"users"`
	Clients          []Client         `json:"clients"`
	Goals            []MonthlyGoal    `json:"goals"`
	Meetings         []Meeting        `json:"meetings"`
	FinancialEntries []FinancialEntry `json:"financialEntries"`
	FixedCosts       []FixedCost      `json:"fixedCosts"`
}

// Snapshot is a read-only copy of the state plus the session user.
type Snapshot struct {
	AppState
	CurrentUser *User `json:"currentUser"`
}

// Clone returns a deep copy of the state. Nil collections become empty ones.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		Users:            append([]User{}, s.Users...),
		Clients:          append([]Client{}, s.Clients...),
		Goals:            append([]MonthlyGoal{}, s.Goals...),
		Meetings:         append([]Meeting{}, s.Meetings...),
		FinancialEntries: make([]FinancialEntry, len(s.FinancialEntries)),
		FixedCosts:       make([]FixedCost, len(s.FixedCosts)),
	}
	for i, e := range s.FinancialEntries {
		if e.RelatedClientID != nil {
			id := *e.RelatedClientID
			e.RelatedClientID = &id
		}
		out.FinancialEntries[i] = e
	}
	for i, c := range s.FixedCosts {
		if c.LastPaidMonth != nil {
			m := *c.LastPaidMonth
			c.LastPaidMonth = &m
		}
		out.FixedCosts[i] = c
	}
	return out
}

// FindUser returns the index of the user with the given id, or -1.
func (s *AppState) FindUser(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// FindClient returns the index of the client with the given id, or -1.
func (s *AppState) FindClient(id string) int {
	for i := range s.Clients {
		if s.Clients[i].ID == id {
			return i
		}
	}
	return -1
}

// GoalFor returns the goal of the given month, if present.
func (s *AppState) GoalFor(month string) (MonthlyGoal, bool) {
	for _, g := range s.Goals {
		if g.Month == month {
			return g, true
		}
	}
	return MonthlyGoal{}, false
}
