// Package document provides the KYC document stores.
package document

import (
	"context"
	"sort"
	"sync"

	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
)

// InMemory keeps documents in a map guarded by a RWMutex.
type InMemory struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{documents: make(map[id.DocumentID]*models.Document)}
}

func clone(d *models.Document) *models.Document {
	cp := *d
	if d.VerifiedBy != nil {
		v := *d.VerifiedBy
		cp.VerifiedBy = &v
	}
	if d.VerifiedAt != nil {
		t := *d.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

func (s *InMemory) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = clone(doc)
	return nil
}

func (s *InMemory) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.documents[doc.ID] = clone(doc)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.documents[docID]; ok {
		return clone(doc), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.documents {
		if doc.CustomerID == customerID {
			out = append(out, clone(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[docID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.documents, docID)
	return nil
}

func (s *InMemory) CountByCustomer(_ context.Context, customerID id.CustomerID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, doc := range s.documents {
		if doc.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) CountByCustomerAndStatus(_ context.Context, customerID id.CustomerID, status models.DocumentStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, doc := range s.documents {
		if doc.CustomerID == customerID && doc.Status == status {
			count++
		}
	}
	return count, nil
}
