package ports

import (
	"context"

	"github.com/ArnavBalyan/concierge/pkg/domain"
)

// SessionStore defines the interface for persisting sessions between requests.
// Implementations must return copies: mutating a loaded session must not affect the stored one.
type SessionStore interface {
	// Save persists the session under sessionID, replacing any previous value.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
