package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

// MemoryStore keeps blobs in a map. Test use only.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// PutErr and DeleteErr, when set, are returned by the corresponding
	// operation. Lets tests exercise storage failure paths.
	PutErr    error
	DeleteErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, customerID domain.CustomerID, filename string, content io.Reader) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeStorage, "read blob content")
	}
	ref := fmt.Sprintf("%s/%s_%s", customerID, uuid.NewString(), filename)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = data
	return ref, nil
}

func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "blob not found")
	}
	delete(s.blobs, ref)
	return nil
}

// Len reports the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Get returns a stored blob for assertions.
func (s *MemoryStore) Get(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[ref]
	return data, ok
}
