package incident

import "context"

// MutateFunc changes an incident in place inside an atomic update. Returning an
// error aborts the update and leaves the stored record untouched.
type MutateFunc func(inc *Incident) error

// Store is the persistence interface for incidents. Implementations own
// identity uniqueness and make Update atomic per id.
type Store interface {
	Create(ctx context.Context, inc *Incident) error
	FindAll(ctx context.Context) ([]*Incident, error)
	FindByID(ctx context.Context, id string) (*Incident, bool, error)

	// Update runs fn against the current record under the store's per-record
	// lock and persists the result. Returns ErrNotFound when id is unknown.
	Update(ctx context.Context, id string, fn MutateFunc) (*Incident, error)
}
