package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bankflow/internal/customer/models"
	id "bankflow/pkg/domain"
	"bankflow/pkg/platform/sentinel"
)

type DocumentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *DocumentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func (s *DocumentStoreSuite) newDocument(customerID id.CustomerID, docType models.DocumentType) *models.Document {
	doc, err := models.NewDocument(customerID, docType, "", "blob/"+uuid.NewString(), time.Now().UTC())
	s.Require().NoError(err)
	return doc
}

func (s *DocumentStoreSuite) TestCreateAndFind() {
	customerID := id.NewCustomerID()
	doc := s.newDocument(customerID, models.DocumentTypePassport)
	s.Require().NoError(s.store.Create(s.ctx, doc))

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(customerID, found.CustomerID)
	s.Equal(models.DocumentStatusPending, found.Status)

	_, err = s.store.FindByID(s.ctx, id.NewDocumentID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestListByCustomer() {
	customerID := id.NewCustomerID()
	other := id.NewCustomerID()

	first := s.newDocument(customerID, models.DocumentTypePassport)
	first.UploadedAt = time.Now().UTC().Add(-time.Hour)
	s.Require().NoError(s.store.Create(s.ctx, first))
	second := s.newDocument(customerID, models.DocumentTypeProofOfAddress)
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, s.newDocument(other, models.DocumentTypePassport)))

	found, err := s.store.ListByCustomer(s.ctx, customerID)
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	// Ordered by upload time
	s.Equal(first.ID, found[0].ID)
	s.Equal(second.ID, found[1].ID)
}

func (s *DocumentStoreSuite) TestUpdateVerification() {
	doc := s.newDocument(id.NewCustomerID(), models.DocumentTypePassport)
	s.Require().NoError(s.store.Create(s.ctx, doc))

	verifier := id.VerifierID(uuid.New())
	doc.ApplyVerification(verifier, time.Now().UTC())
	s.Require().NoError(s.store.Update(s.ctx, doc))

	found, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.DocumentStatusVerified, found.Status)
	s.Require().NotNil(found.VerifiedBy)
	s.Equal(verifier, *found.VerifiedBy)

	err = s.store.Update(s.ctx, s.newDocument(id.NewCustomerID(), models.DocumentTypeOther))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestDelete() {
	doc := s.newDocument(id.NewCustomerID(), models.DocumentTypePassport)
	s.Require().NoError(s.store.Create(s.ctx, doc))

	s.Require().NoError(s.store.Delete(s.ctx, doc.ID))
	_, err := s.store.FindByID(s.ctx, doc.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, doc.ID), sentinel.ErrNotFound)
}

func (s *DocumentStoreSuite) TestCounts() {
	customerID := id.NewCustomerID()
	verifier := id.VerifierID(uuid.New())

	passport := s.newDocument(customerID, models.DocumentTypePassport)
	passport.ApplyVerification(verifier, time.Now().UTC())
	s.Require().NoError(s.store.Create(s.ctx, passport))
	s.Require().NoError(s.store.Create(s.ctx, s.newDocument(customerID, models.DocumentTypeProofOfAddress)))

	total, err := s.store.CountByCustomer(s.ctx, customerID)
	s.Require().NoError(err)
	s.Equal(2, total)

	verified, err := s.store.CountByCustomerAndStatus(s.ctx, customerID, models.DocumentStatusVerified)
	s.Require().NoError(err)
	s.Equal(1, verified)

	none, err := s.store.CountByCustomer(s.ctx, id.NewCustomerID())
	s.Require().NoError(err)
	s.Zero(none)
}
