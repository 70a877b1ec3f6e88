package models

import (
	"time"

	"github.com/google/uuid"
)

// Event type tags published to the customer-events topic.
const (
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
	EventKycApproved     = "kyc.approved"
	EventKycRejected     = "kyc.rejected"
)

// CustomerEvent is the outbound notification for a customer state change.
// Immutable once constructed; delivery is fire-and-forget.
type CustomerEvent struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	CustomerID string    `json:"customerId"`
	UserID     string    `json:"userId"`
	KycStatus  string    `json:"kycStatus"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCustomerEvent snapshots the customer's current state under the given
// event type tag.
func NewCustomerEvent(eventType string, customer *Customer, now time.Time) CustomerEvent {
	return CustomerEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		CustomerID: customer.ID.String(),
		UserID:     customer.UserID.String(),
		KycStatus:  string(customer.KycStatus),
		Timestamp:  now,
	}
}
