// Package customer provides the customer record stores. The in-memory
// variant backs development mode and unit tests; PostgreSQL backs
// production.
package customer

import (
	"context"
	"strings"
	"sync"

	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
)

// InMemory keeps customers in a map guarded by a RWMutex.
type InMemory struct {
	mu        sync.RWMutex
	customers map[id.CustomerID]*models.Customer
	byUser    map[id.UserID]id.CustomerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		customers: make(map[id.CustomerID]*models.Customer),
		byUser:    make(map[id.UserID]id.CustomerID),
	}
}

func clone(c *models.Customer) *models.Customer {
	cp := *c
	if c.KycVerifiedAt != nil {
		t := *c.KycVerifiedAt
		cp.KycVerifiedAt = &t
	}
	return &cp
}

// Create stores a new customer. The user link is unique; a second customer
// for the same user fails with ErrAlreadyUsed.
func (s *InMemory) Create(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[customer.UserID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.customers[customer.ID] = clone(customer)
	s.byUser[customer.UserID] = customer.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if customer, ok := s.customers[customerID]; ok {
		return clone(customer), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if customerID, ok := s.byUser[userID]; ok {
		return clone(s.customers[customerID]), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ExistsByUserID(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUser[userID]
	return ok, nil
}

// Search matches the query case-insensitively against first and last name.
func (s *InMemory) Search(_ context.Context, query string) ([]*models.Customer, error) {
	needle := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Customer
	for _, customer := range s.customers {
		if strings.Contains(strings.ToLower(customer.FirstName), needle) ||
			strings.Contains(strings.ToLower(customer.LastName), needle) {
			out = append(out, clone(customer))
		}
	}
	return out, nil
}

func (s *InMemory) ListByKycStatus(_ context.Context, status models.KycStatus) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Customer
	for _, customer := range s.customers {
		if customer.KycStatus == status {
			out = append(out, clone(customer))
		}
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, customer *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[customer.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.customers[customer.ID] = clone(customer)
	return nil
}
