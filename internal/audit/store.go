package audit

import (
	"context"
	"sync"

	id "bankflow/pkg/domain"
)

// Store persists audit entries. Append-only; entries are never updated or
// deleted through this interface.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByCustomer(ctx context.Context, customerID id.CustomerID, limit int) ([]Entry, error)
}

// InMemory is the dev-mode and test store.
type InMemory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByCustomer returns entries for the customer, newest first.
func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].CustomerID != customerID {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Len reports the total number of entries. Test helper.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
