package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Ledger
// ============================================================

// EntryType is the direction of a cash movement.
type EntryType string

const (
	EntryIncome  EntryType = "INCOME"
	EntryExpense EntryType = "EXPENSE"
)

// FinanceCategories lists the categories offered for free-form entries.
var FinanceCategories = []string{
	"Sale", "Tool", "Marketing", "Tax", "Commission", "Infrastructure", "Other",
}

// FinancialEntry is one cash movement in the ledger.
// Entries with RelatedClientID set are generated from a client's CLOSED
// transition and owned by the ledger sync rule.
type FinancialEntry struct {
	ID              string          `json:"id"`
	Type            EntryType       `json:"type"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	PaymentMethod   string          `json:"paymentMethod"`
	Date            time.Time       `json:"date"`
	RelatedClientID *string         `json:"relatedClientId,omitempty"`
	ResponsibleID   string          `json:"responsibleId"`
	Notes           string          `json:"notes"`
}

// SystemGenerated reports whether the entry is owned by the ledger sync rule.
func (e FinancialEntry) SystemGenerated() bool {
	return e.RelatedClientID != nil
}

// NewFinancialEntryInput is the payload accepted by CRM.AddFinancialEntry.
// A zero Date means now.
type NewFinancialEntryInput struct {
	Type          EntryType       `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Description   string          `json:"description" validate:"required,max=200"`
	Amount        decimal.Decimal `json:"amount" validate:"gte=0"`
	Category      string          `json:"category" validate:"required,max=80"`
	PaymentMethod string          `json:"paymentMethod" validate:"max=80"`
	Date          time.Time       `json:"date"`
	Notes         string          `json:"notes"`
}

// ============================================================
// Fixed costs
// ============================================================

// FixedCostStatus is toggled manually; there is no automatic monthly reset.
type FixedCostStatus string

const (
	FixedCostPending FixedCostStatus = "PENDING"
	FixedCostPaid    FixedCostStatus = "PAID"
)

// Valid reports whether s is a known fixed cost status.
func (s FixedCostStatus) Valid() bool {
	return s == FixedCostPending || s == FixedCostPaid
}

// FixedCost is a recurring monthly obligation.
type FixedCost struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       int             `json:"dueDate"` // day of month, 1-31
	Status        FixedCostStatus `json:"status"`
	Category      string          `json:"category"`
	LastPaidMonth *string         `json:"lastPaidMonth,omitempty"`
}

// NewFixedCostInput is the payload accepted by CRM.AddFixedCost.
type NewFixedCostInput struct {
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
	DueDate     int             `json:"dueDate" validate:"min=1,max=31"`
	Category    string          `json:"category" validate:"required,max=80"`
}
