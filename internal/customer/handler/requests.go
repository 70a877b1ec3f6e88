package handler

import (
	"regexp"
	"strings"
	"time"

	"bankflow/internal/customer/models"
	custsvc "bankflow/internal/customer/service/customer"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// ssnPattern accepts 123-45-6789 and 123456789.
var ssnPattern = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)

// CreateCustomerRequest is the POST /api/customers payload.
type CreateCustomerRequest struct {
	UserID      string `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn,omitempty"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Normalize trims whitespace on the identity fields.
func (r *CreateCustomerRequest) Normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.SSN = strings.TrimSpace(r.SSN)
}

// Validate checks the payload and converts it to service parameters.
// Validation failures carry per-field details.
func (r *CreateCustomerRequest) Validate(now time.Time) (custsvc.CreateParams, error) {
	fields := make(map[string]string)

	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		fields["userId"] = "must be a valid UUID"
	}
	if r.FirstName == "" {
		fields["firstName"] = "is required"
	} else if len(r.FirstName) > 100 {
		fields["firstName"] = "must be 100 characters or less"
	}
	if r.LastName == "" {
		fields["lastName"] = "is required"
	} else if len(r.LastName) > 100 {
		fields["lastName"] = "must be 100 characters or less"
	}

	var dob time.Time
	if r.DateOfBirth == "" {
		fields["dateOfBirth"] = "is required"
	} else {
		dob, err = time.Parse(dateLayout, r.DateOfBirth)
		if err != nil {
			fields["dateOfBirth"] = "must be formatted as YYYY-MM-DD"
		} else if !dob.Before(now) {
			fields["dateOfBirth"] = "must be in the past"
		}
	}

	if r.SSN != "" && !ssnPattern.MatchString(r.SSN) {
		fields["ssn"] = "must be formatted as 123-45-6789"
	}

	if len(fields) > 0 {
		return custsvc.CreateParams{}, dErrors.NewValidation("invalid customer request", fields)
	}

	return custsvc.CreateParams{
		UserID:       userID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		DateOfBirth:  dob,
		SSN:          r.SSN,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		Country:      r.Country,
	}, nil
}

// UpdateCustomerRequest is the PUT /api/customers/{customerId} payload.
// Absent fields are left untouched.
type UpdateCustomerRequest struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	SSN         string  `json:"ssn,omitempty"`

	AddressLine1 *string `json:"addressLine1,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
	Country      *string `json:"country,omitempty"`
}

// Validate checks the payload and converts it to service parameters.
func (r *UpdateCustomerRequest) Validate(now time.Time) (custsvc.UpdateParams, error) {
	fields := make(map[string]string)
	params := custsvc.UpdateParams{
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		SSN:          strings.TrimSpace(r.SSN),
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		Country:      r.Country,
	}

	if r.FirstName != nil && len(*r.FirstName) > 100 {
		fields["firstName"] = "must be 100 characters or less"
	}
	if r.LastName != nil && len(*r.LastName) > 100 {
		fields["lastName"] = "must be 100 characters or less"
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *r.DateOfBirth)
		if err != nil {
			fields["dateOfBirth"] = "must be formatted as YYYY-MM-DD"
		} else if !dob.Before(now) {
			fields["dateOfBirth"] = "must be in the past"
		} else {
			params.DateOfBirth = &dob
		}
	}
	if params.SSN != "" && !ssnPattern.MatchString(params.SSN) {
		fields["ssn"] = "must be formatted as 123-45-6789"
	}

	if len(fields) > 0 {
		return custsvc.UpdateParams{}, dErrors.NewValidation("invalid customer request", fields)
	}
	return params, nil
}

// UpdateKycStatusRequest is the administrative override payload.
type UpdateKycStatusRequest struct {
	KycStatus string `json:"kycStatus"`
}

// Validate parses the target status.
func (r *UpdateKycStatusRequest) Validate() (models.KycStatus, error) {
	status, err := models.ParseKycStatus(strings.ToUpper(strings.TrimSpace(r.KycStatus)))
	if err != nil {
		return "", dErrors.NewValidation("invalid KYC status request",
			map[string]string{"kycStatus": "must be one of PENDING, IN_REVIEW, APPROVED, REJECTED, EXPIRED"})
	}
	return status, nil
}

// RejectDocumentRequest is the document rejection payload.
type RejectDocumentRequest struct {
	Reason string `json:"reason"`
}

// Validate requires a non-empty reason.
func (r *RejectDocumentRequest) Validate() (string, error) {
	reason := strings.TrimSpace(r.Reason)
	if reason == "" {
		return "", dErrors.NewValidation("invalid rejection request",
			map[string]string{"reason": "is required"})
	}
	return reason, nil
}
