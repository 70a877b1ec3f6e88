// Package document implements the KYC document ledger: the per-customer
// document collection, the verification actions on it, and the completeness
// rule that drives the customer's aggregate status.
package document

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bankflow/internal/audit"
	"bankflow/internal/customer/metrics"
	"bankflow/internal/customer/models"
	"bankflow/internal/storage"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
	"bankflow/pkg/platform/sentinel"
	"bankflow/pkg/requestcontext"
)

// completenessThreshold is the minimum number of documents a customer must
// hold, all verified, before automatic approval. Encodes "one proof of
// identity plus one proof of address" as a count; the types themselves are
// not checked.
const completenessThreshold = 2

// Store is the document persistence this service depends on.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error)
	Delete(ctx context.Context, docID id.DocumentID) error
	CountByCustomer(ctx context.Context, customerID id.CustomerID) (int, error)
	CountByCustomerAndStatus(ctx context.Context, customerID id.CustomerID, status models.DocumentStatus) (int, error)
}

// Customers is the slice of the customer service the ledger drives.
type Customers interface {
	GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	UpdateKycStatus(ctx context.Context, customerID id.CustomerID, status models.KycStatus) (*models.Customer, error)
}

// Service owns the document lifecycle and the completeness signal.
type Service struct {
	store     Store
	customers Customers
	blobs     storage.BlobStore
	auditor   *audit.Recorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAudit(r *audit.Recorder) Option {
	return func(s *Service) {
		s.auditor = r
	}
}

// New constructs a Service.
func New(store Store, customers Customers, blobs storage.BlobStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		customers: customers,
		blobs:     blobs,
		logger:    slog.Default(),
		tracer:    otel.Tracer("bankflow/document"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadParams carries a new document and its content.
type UploadParams struct {
	CustomerID id.CustomerID
	Type       models.DocumentType
	Number     string
	Filename   string
	Content    io.Reader
}

// Upload stores the document content, records it in PENDING status, and
// moves a PENDING customer into IN_REVIEW on their first document.
func (s *Service) Upload(ctx context.Context, params UploadParams) (*models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.Upload",
		trace.WithAttributes(attribute.String("document.type", string(params.Type))))
	defer span.End()

	customer, err := s.customers.GetByID(ctx, params.CustomerID)
	if err != nil {
		return nil, err
	}

	blobRef, err := s.blobs.Put(ctx, params.CustomerID, params.Filename, params.Content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to store document content")
	}

	doc, err := models.NewDocument(params.CustomerID, params.Type, params.Number, blobRef, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.Create(ctx, doc); err != nil {
		// The record failed but the blob is already written. Log the
		// orphan for out-of-band reconciliation.
		s.logger.Error("document record creation failed, blob orphaned",
			"customer_id", params.CustomerID.String(),
			"blob_ref", blobRef,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record document")
	}

	s.metrics.IncrementDocumentsUploaded()
	s.logger.Info("document uploaded",
		"document_id", doc.ID.String(),
		"customer_id", params.CustomerID.String(),
		"document_type", string(params.Type),
		"request_id", requestcontext.RequestID(ctx),
	)

	// First document received opens the review.
	if customer.KycStatus == models.KycStatusPending {
		if _, err := s.customers.UpdateKycStatus(ctx, params.CustomerID, models.KycStatusInReview); err != nil {
			s.logger.Error("failed to open review after upload",
				"customer_id", params.CustomerID.String(),
				"error", err,
			)
		}
	}

	return doc, nil
}

// List returns a customer's documents in upload order.
func (s *Service) List(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// Get returns a single document.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	return doc, nil
}

// Verify marks a document verified and runs the completeness check.
// Re-verifying an already verified document is a no-op success so retried
// calls stay safe.
func (s *Service) Verify(ctx context.Context, docID id.DocumentID, verifierID id.VerifierID) (*models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.Verify")
	defer span.End()

	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status == models.DocumentStatusVerified {
		return doc, nil
	}

	doc.ApplyVerification(verifierID, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
	}

	s.logger.Info("document verified",
		"document_id", doc.ID.String(),
		"customer_id", doc.CustomerID.String(),
		"verifier_id", verifierID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionDocumentVerified,
		ActorID:    verifierID.String(),
		CustomerID: doc.CustomerID,
		DocumentID: doc.ID.String(),
	})

	if err := s.checkCompleteness(ctx, doc.CustomerID); err != nil {
		// Approval failure does not undo the verification.
		s.logger.Error("completeness check failed",
			"customer_id", doc.CustomerID.String(),
			"error", err,
		)
	}
	return doc, nil
}

// checkCompleteness approves the customer once every document is verified
// and the count meets the threshold.
func (s *Service) checkCompleteness(ctx context.Context, customerID id.CustomerID) error {
	total, err := s.store.CountByCustomer(ctx, customerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count documents")
	}
	verified, err := s.store.CountByCustomerAndStatus(ctx, customerID, models.DocumentStatusVerified)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count verified documents")
	}

	if total >= completenessThreshold && verified == total {
		if _, err := s.customers.UpdateKycStatus(ctx, customerID, models.KycStatusApproved); err != nil {
			return err
		}
	}
	return nil
}

// Reject marks a document rejected. A single rejected document rejects the
// whole KYC case.
func (s *Service) Reject(ctx context.Context, docID id.DocumentID, reason string, verifierID id.VerifierID) (*models.Document, error) {
	ctx, span := s.tracer.Start(ctx, "document.Reject")
	defer span.End()

	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.CanReject(reason); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}

	doc.ApplyRejection(reason, verifierID, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
	}

	s.logger.Info("document rejected",
		"document_id", doc.ID.String(),
		"customer_id", doc.CustomerID.String(),
		"verifier_id", verifierID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionDocumentRejected,
		ActorID:    verifierID.String(),
		CustomerID: doc.CustomerID,
		DocumentID: doc.ID.String(),
		Detail:     reason,
	})

	if _, err := s.customers.UpdateKycStatus(ctx, doc.CustomerID, models.KycStatusRejected); err != nil {
		s.logger.Error("failed to reject customer after document rejection",
			"customer_id", doc.CustomerID.String(),
			"error", err,
		)
	}
	return doc, nil
}

// Delete removes the document record and its blob. Blob removal is not
// transactional with the record: when it fails the orphaned blob is logged
// as a leak for out-of-band reconciliation and the record still goes away.
func (s *Service) Delete(ctx context.Context, docID id.DocumentID) error {
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, docID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}

	if err := s.blobs.Delete(ctx, doc.BlobRef); err != nil {
		s.logger.Error("blob deletion failed, orphaned blob leaked",
			"document_id", docID.String(),
			"blob_ref", doc.BlobRef,
			"error", err,
		)
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     audit.ActionDocumentDeleted,
		CustomerID: doc.CustomerID,
		DocumentID: docID.String(),
	})
	return nil
}
