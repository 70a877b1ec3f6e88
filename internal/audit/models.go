// Package audit keeps an append-only trail of compliance-relevant actions:
// who verified or rejected a document, who forced a KYC status, and when.
// The trail is a regulatory record, separate from the best-effort customer
// event stream.
package audit

import (
	"time"

	id "bankflow/pkg/domain"
)

// Action identifies what a trail entry records.
type Action string

const (
	ActionKycStatusChanged Action = "kyc.status_changed"
	ActionDocumentVerified Action = "document.verified"
	ActionDocumentRejected Action = "document.rejected"
	ActionDocumentDeleted  Action = "document.deleted"
)

// Entry is a single audit trail record. Entries are immutable once
// appended. Detail carries the human-readable summary (old -> new status,
// rejection reason); it must never contain SSN material.
type Entry struct {
	ID         string
	Action     Action
	ActorID    string
	CustomerID id.CustomerID
	DocumentID string
	Detail     string
	RequestID  string
	Timestamp  time.Time
}
