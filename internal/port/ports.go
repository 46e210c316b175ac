// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the CRM state
// store from concrete persistence and caching implementations.
package port

import (
	"context"
	"errors"

	"github.com/boddenberg/technova-crm-go/internal/domain"
)

// ErrNoState is returned by StateRepository.Load when nothing has been saved yet.
var ErrNoState = errors.New("no persisted state")

// StateRepository loads and saves the whole durable state blob.
// The session user is never part of what is saved.
type StateRepository interface {
	Load(ctx context.Context) (*domain.AppState, error)
	Save(ctx context.Context, state *domain.AppState) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
