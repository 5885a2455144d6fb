// Package memstore provides an in-memory implementation of incident.Store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/linnemanlabs/warden/internal/incident"
)

// Store holds incidents in memory. Suitable for dev/testing; contents are lost
// on restart.
type Store struct {
	mu        sync.RWMutex
	incidents map[string]*incident.Incident
	order     []string // insertion order for FindAll
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		incidents: make(map[string]*incident.Incident),
	}
}

// Create stores a copy of inc. Ids must be unique.
func (s *Store) Create(_ context.Context, inc *incident.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incidents[inc.ID]; ok {
		return fmt.Errorf("incident %s already exists", inc.ID)
	}
	s.incidents[inc.ID] = inc.Clone()
	s.order = append(s.order, inc.ID)
	return nil
}

// FindAll returns copies of every incident in creation order.
func (s *Store) FindAll(_ context.Context) ([]*incident.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*incident.Incident, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.incidents[id].Clone())
	}
	return out, nil
}

// FindByID retrieves an incident by its ID. Returns a copy.
func (s *Store) FindByID(_ context.Context, id string) (*incident.Incident, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	if !ok {
		return nil, false, nil
	}
	return inc.Clone(), true, nil
}

// Update applies fn to a copy of the stored incident under the write lock and
// swaps it in only when fn succeeds.
func (s *Store) Update(_ context.Context, id string, fn incident.MutateFunc) (*incident.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.incidents[id]
	if !ok {
		return nil, incident.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.incidents[id] = next
	return next.Clone(), nil
}
