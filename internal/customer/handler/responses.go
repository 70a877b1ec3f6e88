package handler

import (
	"time"

	"bankflow/internal/customer/models"
)

// CustomerResponse is the read-path view of a customer. The SSN never
// appears here, encrypted or not; HasSSNOnFile is the only trace of it.
type CustomerResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`

	HasSSNOnFile bool `json:"hasSsnOnFile"`

	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country,omitempty"`

	KycStatus     string     `json:"kycStatus"`
	KycVerifiedAt *time.Time `json:"kycVerifiedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:            c.ID.String(),
		UserID:        c.UserID.String(),
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		DateOfBirth:   c.DateOfBirth.Format(dateLayout),
		HasSSNOnFile:  c.HasSSNOnFile(),
		AddressLine1:  c.AddressLine1,
		AddressLine2:  c.AddressLine2,
		City:          c.City,
		State:         c.State,
		ZipCode:       c.ZipCode,
		Country:       c.Country,
		KycStatus:     string(c.KycStatus),
		KycVerifiedAt: c.KycVerifiedAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toCustomerResponses(customers []*models.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out
}

// DocumentResponse is the read-path view of a document. The blob reference
// is storage-internal and stays out of it.
type DocumentResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`

	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber,omitempty"`

	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	VerifiedBy *string    `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`

	UploadedAt time.Time `json:"uploadedAt"`
}

func toDocumentResponse(d *models.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:              d.ID.String(),
		CustomerID:      d.CustomerID.String(),
		DocumentType:    string(d.Type),
		DocumentNumber:  d.Number,
		Status:          string(d.Status),
		RejectionReason: d.RejectionReason,
		VerifiedAt:      d.VerifiedAt,
		UploadedAt:      d.UploadedAt,
	}
	if d.VerifiedBy != nil {
		v := d.VerifiedBy.String()
		resp.VerifiedBy = &v
	}
	return resp
}

func toDocumentResponses(docs []*models.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out
}
