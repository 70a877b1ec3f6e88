// Package domain holds typed identifiers shared across the service.
//
// IDs are distinct UUID types so the compiler rejects cross-type assignment
// (a DocumentID can never be passed where a CustomerID is expected).
// Construct them via the Parse* functions at trust boundaries; direct
// casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "bankflow/pkg/domain-errors"
)

type (
	// CustomerID identifies a customer record.
	CustomerID uuid.UUID
	// UserID identifies the externally-linked identity-service user.
	UserID uuid.UUID
	// DocumentID identifies a KYC document.
	DocumentID uuid.UUID
	// VerifierID identifies the compliance operator acting on a document.
	VerifierID uuid.UUID
)

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid %s id", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s id cannot be the nil uuid", kind)
	}
	return u, nil
}

// ParseCustomerID validates and returns a CustomerID.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer")
	return CustomerID(u), err
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseDocumentID validates and returns a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document")
	return DocumentID(u), err
}

// ParseVerifierID validates and returns a VerifierID.
func ParseVerifierID(s string) (VerifierID, error) {
	u, err := parseUUID(s, "verifier")
	return VerifierID(u), err
}

// NewCustomerID returns a fresh random CustomerID.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewDocumentID returns a fresh random DocumentID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id VerifierID) String() string { return uuid.UUID(id).String() }

func (id CustomerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VerifierID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
