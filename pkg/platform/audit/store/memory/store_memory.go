package memory

import (
	"context"
	"sort"
	"sync"

	audit "sanitrack/pkg/platform/audit"
)

// InMemoryStore keeps audit events per organization. Events without an
// organization are kept under "".
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.OrganizationID] = append(s.events[event.OrganizationID], event)
	return nil
}

func (s *InMemoryStore) ListByOrganization(_ context.Context, orgID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[orgID]...), nil
}

// ListAll returns every event, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

// ListRecent returns the most recent limit events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sorted()
	out := make([]audit.Event, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *InMemoryStore) sorted() []audit.Event {
	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all
}
