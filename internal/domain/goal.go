package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout is the layout of month keys ("YYYY-MM").
const MonthLayout = "2006-01"

// MonthlyGoal is the revenue target of one calendar month.
// Goal records are append-only: a new month produces a new record.
type MonthlyGoal struct {
	Month        string          `json:"month"` // YYYY-MM
	TargetValue  decimal.Decimal `json:"targetValue"`
	ReachedValue decimal.Decimal `json:"reachedValue"`
	IsCompleted  bool            `json:"isCompleted"`
}

// MonthKey truncates t (in UTC) to its "YYYY-MM" month key.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthLayout)
}

// PreviousMonthKey returns the key of the calendar month immediately before t.
func PreviousMonthKey(t time.Time) string {
	u := t.UTC()
	first := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format(MonthLayout)
}

// InMonth reports whether t falls in the month identified by key.
func InMonth(t time.Time, key string) bool {
	return MonthKey(t) == key
}
