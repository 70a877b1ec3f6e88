//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bankflow/internal/audit"
	id "bankflow/pkg/domain"
	"bankflow/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.Postgres
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = audit.NewPostgres(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_log"))
}

func (s *AuditStoreSuite) newEntry(customerID id.CustomerID, action audit.Action, at time.Time) audit.Entry {
	return audit.Entry{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    uuid.NewString(),
		CustomerID: customerID,
		DocumentID: uuid.NewString(),
		Detail:     "PENDING -> IN_REVIEW",
		RequestID:  "req-1",
		Timestamp:  at,
	}
}

func (s *AuditStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	customerID := id.NewCustomerID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := s.newEntry(customerID, audit.ActionDocumentVerified, base)
	second := s.newEntry(customerID, audit.ActionKycStatusChanged, base.Add(time.Second))
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	entries, err := s.store.ListByCustomer(ctx, customerID, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	// Newest first.
	s.Equal(second.ID, entries[0].ID)
	s.Equal(audit.ActionKycStatusChanged, entries[0].Action)
	s.Equal(first.ID, entries[1].ID)
	s.Equal(first.ActorID, entries[1].ActorID)
	s.Equal(first.DocumentID, entries[1].DocumentID)
	s.Equal(first.Detail, entries[1].Detail)
	s.Equal(first.RequestID, entries[1].RequestID)
	s.True(entries[1].Timestamp.Equal(first.Timestamp))
}

func (s *AuditStoreSuite) TestListHonorsLimit() {
	ctx := context.Background()
	customerID := id.NewCustomerID()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		entry := s.newEntry(customerID, audit.ActionDocumentVerified, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Append(ctx, entry))
	}

	entries, err := s.store.ListByCustomer(ctx, customerID, 2)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *AuditStoreSuite) TestEmptyDocumentIDStoredAsNull() {
	ctx := context.Background()
	customerID := id.NewCustomerID()

	entry := s.newEntry(customerID, audit.ActionKycStatusChanged, time.Now().UTC())
	entry.DocumentID = ""
	s.Require().NoError(s.store.Append(ctx, entry))

	entries, err := s.store.ListByCustomer(ctx, customerID, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Empty(entries[0].DocumentID)
}

func (s *AuditStoreSuite) TestListScopedToCustomer() {
	ctx := context.Background()
	customerA := id.NewCustomerID()
	customerB := id.NewCustomerID()
	s.Require().NoError(s.store.Append(ctx, s.newEntry(customerA, audit.ActionDocumentVerified, time.Now().UTC())))
	s.Require().NoError(s.store.Append(ctx, s.newEntry(customerB, audit.ActionDocumentRejected, time.Now().UTC())))

	entries, err := s.store.ListByCustomer(ctx, customerA, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(customerA, entries[0].CustomerID)
}
