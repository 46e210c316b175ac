// Package storage holds what every persistence backend of the CRM shares:
// the strict state codec and the Resilient decorator.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/boddenberg/technova-crm-go/internal/domain"
)

// Encode serialises the durable collections. The session user is not part
// of domain.AppState and therefore never written.
func Encode(st *domain.AppState) ([]byte, error) {
	if st == nil {
		return nil, errors.New("encode state: nil state")
	}
	return json.MarshalIndent(st.Clone(), "", "  ")
}

// Decode parses a state blob strictly: unknown fields, trailing data, a null
// document and malformed values all fail with *domain.ErrCorruptState.
func Decode(source string, data []byte) (*domain.AppState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var st *domain.AppState
	if err := dec.Decode(&st); err != nil {
		return nil, &domain.ErrCorruptState{Source: source, Err: err}
	}
	if st == nil {
		return nil, &domain.ErrCorruptState{Source: source, Err: errors.New("document is null")}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &domain.ErrCorruptState{Source: source, Err: fmt.Errorf("trailing data after state document")}
	}
	if err := check(st); err != nil {
		return nil, &domain.ErrCorruptState{Source: source, Err: err}
	}
	return st.Clone(), nil
}

// check rejects enum values no code path can produce.
func check(st *domain.AppState) error {
	for _, u := range st.Users {
		if !u.Role.Valid() {
			return fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
	}
	for _, c := range st.Clients {
		if !c.Status.Valid() {
			return fmt.Errorf("client %s: unknown status %q", c.ID, c.Status)
		}
	}
	for _, e := range st.FinancialEntries {
		if e.Type != domain.EntryIncome && e.Type != domain.EntryExpense {
			return fmt.Errorf("financial entry %s: unknown type %q", e.ID, e.Type)
		}
	}
	for _, f := range st.FixedCosts {
		if !f.Status.Valid() {
			return fmt.Errorf("fixed cost %s: unknown status %q", f.ID, f.Status)
		}
	}
	return nil
}
