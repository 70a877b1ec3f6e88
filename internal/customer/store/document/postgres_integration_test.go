//go:build integration

package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bankflow/internal/customer/models"
	custstore "bankflow/internal/customer/store/customer"
	"bankflow/internal/customer/store/document"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
	"bankflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *document.Postgres
	customers *custstore.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = document.NewPostgres(s.postgres.DB)
	s.customers = custstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "kyc_documents", "customers")
	s.Require().NoError(err)
}

// Documents carry a foreign key to customers, so each test creates its
// owning customer first.
func (s *PostgresStoreSuite) createCustomer() *models.Customer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := &models.Customer{
		ID:          id.NewCustomerID(),
		UserID:      id.UserID(uuid.New()),
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: time.Date(1985, 7, 20, 0, 0, 0, 0, time.UTC),
		KycStatus:   models.KycStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.customers.Create(context.Background(), c))
	return c
}

func newTestDocument(customerID id.CustomerID, docType models.DocumentType) *models.Document {
	return &models.Document{
		ID:         id.NewDocumentID(),
		CustomerID: customerID,
		Type:       docType,
		BlobRef:    "blob/" + uuid.NewString(),
		Status:     models.DocumentStatusPending,
		UploadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	customer := s.createCustomer()

	doc := newTestDocument(customer.ID, models.DocumentTypePassport)
	doc.Number = "P1234567"
	s.Require().NoError(s.store.Create(ctx, doc))

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(customer.ID, found.CustomerID)
	s.Equal(models.DocumentTypePassport, found.Type)
	s.Equal("P1234567", found.Number)
	s.Nil(found.VerifiedBy)
	s.Nil(found.VerifiedAt)
}

func (s *PostgresStoreSuite) TestVerificationFieldsPersist() {
	ctx := context.Background()
	customer := s.createCustomer()

	doc := newTestDocument(customer.ID, models.DocumentTypeProofOfAddress)
	s.Require().NoError(s.store.Create(ctx, doc))

	verifier := id.VerifierID(uuid.New())
	doc.ApplyRejection("illegible scan", verifier, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Update(ctx, doc))

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.DocumentStatusRejected, found.Status)
	s.Equal("illegible scan", found.RejectionReason)
	s.Require().NotNil(found.VerifiedBy)
	s.Equal(verifier, *found.VerifiedBy)
	s.Require().NotNil(found.VerifiedAt)
}

func (s *PostgresStoreSuite) TestCounts() {
	ctx := context.Background()
	customer := s.createCustomer()

	passport := newTestDocument(customer.ID, models.DocumentTypePassport)
	passport.ApplyVerification(id.VerifierID(uuid.New()), time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Create(ctx, passport))
	s.Require().NoError(s.store.Create(ctx, newTestDocument(customer.ID, models.DocumentTypeProofOfAddress)))

	total, err := s.store.CountByCustomer(ctx, customer.ID)
	s.Require().NoError(err)
	s.Equal(2, total)

	verified, err := s.store.CountByCustomerAndStatus(ctx, customer.ID, models.DocumentStatusVerified)
	s.Require().NoError(err)
	s.Equal(1, verified)
}

func (s *PostgresStoreSuite) TestDeleteAndCascade() {
	ctx := context.Background()
	customer := s.createCustomer()

	doc := newTestDocument(customer.ID, models.DocumentTypePassport)
	s.Require().NoError(s.store.Create(ctx, doc))

	s.Require().NoError(s.store.Delete(ctx, doc.ID))
	_, err := s.store.FindByID(ctx, doc.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(ctx, doc.ID), sentinel.ErrNotFound)

	// Customer deletion cascades to documents at the schema level.
	remaining := newTestDocument(customer.ID, models.DocumentTypeOther)
	s.Require().NoError(s.store.Create(ctx, remaining))
	_, err = s.postgres.DB.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customer.ID.String())
	s.Require().NoError(err)

	_, err = s.store.FindByID(ctx, remaining.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
