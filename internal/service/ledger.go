package service

import (
	"fmt"
	"time"

	"github.com/boddenberg/technova-crm-go/internal/domain"
)

const (
	saleCategory      = "Sale"
	salePaymentMethod = "Contract"
)

// ledgerDelta counts what one sync changed.
type ledgerDelta struct {
	created int
	removed int
	amended int
}

func (d *ledgerDelta) add(o ledgerDelta) {
	d.created += o.created
	d.removed += o.removed
	d.amended += o.amended
}

// syncLedger keeps exactly one system-generated INCOME entry per CLOSED client
// and none for any other client. before is the client prior to the change
// (nil on creation), after the client once changed (nil on deletion).
//
//	not CLOSED → CLOSED   append a sale entry
//	CLOSED → not CLOSED   remove linked entries
//	CLOSED → CLOSED       amend amount, description and responsible in place
//	deleted               remove linked entries whatever the status
//
// The input slice is never modified.
func syncLedger(entries []domain.FinancialEntry, before, after *domain.Client, now time.Time, newID func() string) ([]domain.FinancialEntry, ledgerDelta) {
	var delta ledgerDelta
	if before == nil && after == nil {
		return entries, delta
	}

	wasClosed := before != nil && before.Status == domain.StatusClosed
	isClosed := after != nil && after.Status == domain.StatusClosed

	clientID := ""
	if after != nil {
		clientID = after.ID
	} else {
		clientID = before.ID
	}

	switch {
	case after == nil, wasClosed && !isClosed:
		return removeLinked(entries, clientID, &delta), delta

	case !wasClosed && isClosed:
		// Stale links cannot coexist with the new one.
		out := removeLinked(entries, clientID, &delta)
		delta.created++
		return append(out, saleEntry(after, now, newID())), delta

	case wasClosed && isClosed:
		out := make([]domain.FinancialEntry, 0, len(entries)+1)
		found := false
		for _, e := range entries {
			if linkedTo(e, clientID) {
				if found {
					// A CLOSED client owns a single entry; drop duplicates.
					delta.removed++
					continue
				}
				found = true
				if amendSaleEntry(&e, after) {
					delta.amended++
				}
			}
			out = append(out, e)
		}
		if !found {
			delta.created++
			out = append(out, saleEntry(after, now, newID()))
		}
		return out, delta
	}

	return entries, delta
}

// saleEntry builds the INCOME entry generated when c enters CLOSED.
func saleEntry(c *domain.Client, now time.Time, id string) domain.FinancialEntry {
	clientID := c.ID
	return domain.FinancialEntry{
		ID:              id,
		Type:            domain.EntryIncome,
		Description:     saleDescription(c.Company),
		Amount:          c.ContractValue,
		Category:        saleCategory,
		PaymentMethod:   salePaymentMethod,
		Date:            now.UTC(),
		RelatedClientID: &clientID,
		ResponsibleID:   c.ResponsibleID,
	}
}

// amendSaleEntry copies the client-derived fields onto e and reports whether any changed.
func amendSaleEntry(e *domain.FinancialEntry, c *domain.Client) bool {
	desc := saleDescription(c.Company)
	if e.Amount.Equal(c.ContractValue) && e.Description == desc && e.ResponsibleID == c.ResponsibleID {
		return false
	}
	e.Amount = c.ContractValue
	e.Description = desc
	e.ResponsibleID = c.ResponsibleID
	return true
}

func saleDescription(company string) string {
	return fmt.Sprintf("Sale completed: %s", company)
}

func linkedTo(e domain.FinancialEntry, clientID string) bool {
	return e.RelatedClientID != nil && *e.RelatedClientID == clientID
}

func removeLinked(entries []domain.FinancialEntry, clientID string, delta *ledgerDelta) []domain.FinancialEntry {
	out := make([]domain.FinancialEntry, 0, len(entries))
	for _, e := range entries {
		if linkedTo(e, clientID) {
			delta.removed++
			continue
		}
		out = append(out, e)
	}
	return out
}
