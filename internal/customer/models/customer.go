package models

import (
	"time"

	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

// Customer is the aggregate root for a banking customer's KYC case.
//
// Invariants:
//   - UserID links 1:1 to an identity-service user and is unique
//   - FirstName, LastName, and DateOfBirth are required
//   - SSNEncrypted holds ciphertext only; plaintext SSN never touches this
//     struct and never appears in any read-path output
//   - KycVerifiedAt is stamped on the transition into APPROVED and is not
//     cleared on later transitions away from it
type Customer struct {
	ID          id.CustomerID `json:"id"`
	UserID      id.UserID     `json:"user_id"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	DateOfBirth time.Time     `json:"date_of_birth"`

	SSNEncrypted string `json:"ssn_encrypted,omitempty"`

	// SSNRedacted marks copies that had the ciphertext stripped (the cache
	// wire form) while an SSN is on file.
	SSNRedacted bool `json:"ssn_redacted,omitempty"`

	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	Country      string `json:"country,omitempty"`

	KycStatus     KycStatus  `json:"kyc_status"`
	KycVerifiedAt *time.Time `json:"kyc_verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCustomer(userID id.UserID, firstName, lastName string, dateOfBirth time.Time, now time.Time) (*Customer, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer requires a user ID")
	}
	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer name cannot be empty")
	}
	if dateOfBirth.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "customer date of birth is required")
	}
	return &Customer{
		ID:          id.NewCustomerID(),
		UserID:      userID,
		FirstName:   firstName,
		LastName:    lastName,
		DateOfBirth: dateOfBirth,
		KycStatus:   KycStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ApplyKycStatus records a status transition. Entering APPROVED stamps
// KycVerifiedAt; leaving it later does not clear the stamp.
func (c *Customer) ApplyKycStatus(status KycStatus, now time.Time) {
	c.KycStatus = status
	if status == KycStatusApproved {
		verifiedAt := now
		c.KycVerifiedAt = &verifiedAt
	}
	c.UpdatedAt = now
}

// HasSSNOnFile reports whether an SSN is stored for the customer. Holds on
// redacted copies too, where the ciphertext itself is absent.
func (c *Customer) HasSSNOnFile() bool {
	return c.SSNEncrypted != "" || c.SSNRedacted
}

// InReview reports whether the case is still open for automated
// transitions.
func (c *Customer) InReview() bool {
	return c.KycStatus == KycStatusPending || c.KycStatus == KycStatusInReview
}
