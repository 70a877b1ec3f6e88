package models

import (
	"time"

	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

// Document is one identity document in a customer's KYC case.
//
// Invariants:
//   - Belongs to exactly one customer
//   - RejectionReason is set only when Status is REJECTED
//   - VerifiedBy and VerifiedAt are set together when status leaves PENDING
type Document struct {
	ID         id.DocumentID `json:"id"`
	CustomerID id.CustomerID `json:"customer_id"`

	Type   DocumentType `json:"document_type"`
	Number string       `json:"document_number,omitempty"`

	// BlobRef is the opaque storage reference for the uploaded content.
	BlobRef string `json:"blob_ref"`

	Status          DocumentStatus `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`

	VerifiedBy *id.VerifierID `json:"verified_by,omitempty"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`

	UploadedAt time.Time `json:"uploaded_at"`
}

func NewDocument(customerID id.CustomerID, docType DocumentType, number, blobRef string, now time.Time) (*Document, error) {
	if customerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document requires a customer ID")
	}
	if !docType.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document requires a valid type")
	}
	if blobRef == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document requires a blob reference")
	}
	return &Document{
		ID:         id.NewDocumentID(),
		CustomerID: customerID,
		Type:       docType,
		Number:     number,
		BlobRef:    blobRef,
		Status:     DocumentStatusPending,
		UploadedAt: now,
	}, nil
}

// ApplyVerification marks the document verified. Callers treat re-verifying
// an already verified document as a no-op before reaching this.
func (d *Document) ApplyVerification(verifierID id.VerifierID, now time.Time) {
	d.Status = DocumentStatusVerified
	d.RejectionReason = ""
	d.VerifiedBy = &verifierID
	d.VerifiedAt = &now
}

// CanReject checks the rejection preconditions.
func (d *Document) CanReject(reason string) error {
	if reason == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "rejection requires a reason")
	}
	return nil
}

// ApplyRejection marks the document rejected with the given reason. Call
// CanReject first.
func (d *Document) ApplyRejection(reason string, verifierID id.VerifierID, now time.Time) {
	d.Status = DocumentStatusRejected
	d.RejectionReason = reason
	d.VerifiedBy = &verifierID
	d.VerifiedAt = &now
}

// Verified reports whether this document counts toward completeness.
func (d *Document) Verified() bool {
	return d.Status == DocumentStatusVerified
}
