package domain

import "fmt"

// Error types for consistent error handling across the CRM.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrForbidden indicates the session user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials, a missing session or a bad token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConflict indicates a resource already exists (e.g. duplicate login).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrCorruptState indicates the persisted state could not be decoded.
// It is never replaced by defaults.
type ErrCorruptState struct {
	Source string
	Err    error
}

func (e *ErrCorruptState) Error() string {
	return fmt.Sprintf("corrupt persisted state [%s]: %v", e.Source, e.Err)
}

func (e *ErrCorruptState) Unwrap() error {
	return e.Err
}

// ErrPersistence indicates the persistence backend failed to load or save.
type ErrPersistence struct {
	Backend string
	Err     error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence error [%s]: %v", e.Backend, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}
