package models

import (
	dErrors "bankflow/pkg/domain-errors"
)

// KycStatus is a customer's aggregate compliance status.
//
// Normal flow is PENDING -> IN_REVIEW -> APPROVED or REJECTED, driven by
// document verification. EXPIRED is reachable from any state via a
// time-based trigger. The administrative override path may set any status
// regardless of the current one; the enumeration is the only constraint it
// honors.
type KycStatus string

const (
	KycStatusPending  KycStatus = "PENDING"
	KycStatusInReview KycStatus = "IN_REVIEW"
	KycStatusApproved KycStatus = "APPROVED"
	KycStatusRejected KycStatus = "REJECTED"
	KycStatusExpired  KycStatus = "EXPIRED"
)

func (s KycStatus) Valid() bool {
	switch s {
	case KycStatusPending, KycStatusInReview, KycStatusApproved, KycStatusRejected, KycStatusExpired:
		return true
	}
	return false
}

// ParseKycStatus validates a status string at a trust boundary.
func ParseKycStatus(raw string) (KycStatus, error) {
	s := KycStatus(raw)
	if !s.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "invalid KYC status: %q", raw)
	}
	return s, nil
}

// DocumentStatus is a single document's verification state.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
	DocumentStatusExpired  DocumentStatus = "EXPIRED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusVerified, DocumentStatusRejected, DocumentStatusExpired:
		return true
	}
	return false
}

// DocumentType is the closed set of accepted identity document kinds.
type DocumentType string

const (
	DocumentTypeDriversLicense   DocumentType = "DRIVERS_LICENSE"
	DocumentTypePassport         DocumentType = "PASSPORT"
	DocumentTypeNationalID       DocumentType = "NATIONAL_ID"
	DocumentTypeProofOfAddress   DocumentType = "PROOF_OF_ADDRESS"
	DocumentTypeSSNCard          DocumentType = "SSN_CARD"
	DocumentTypeBirthCertificate DocumentType = "BIRTH_CERTIFICATE"
	DocumentTypeOther            DocumentType = "OTHER"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeDriversLicense, DocumentTypePassport, DocumentTypeNationalID,
		DocumentTypeProofOfAddress, DocumentTypeSSNCard, DocumentTypeBirthCertificate,
		DocumentTypeOther:
		return true
	}
	return false
}

// ParseDocumentType validates a document type string at a trust boundary.
func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(raw)
	if !t.Valid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "invalid document type: %q", raw)
	}
	return t, nil
}
