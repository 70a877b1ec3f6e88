package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bankflow/internal/audit"
	id "bankflow/pkg/domain"
	dErrors "bankflow/pkg/domain-errors"
	"bankflow/pkg/platform/httputil"
)

// AuditEntryResponse is one compliance trail record.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId,omitempty"`
	CustomerID string    `json:"customerId"`
	DocumentID string    `json:"documentId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func toAuditEntryResponses(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:         e.ID,
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			CustomerID: e.CustomerID.String(),
			DocumentID: e.DocumentID,
			Detail:     e.Detail,
			RequestID:  e.RequestID,
			Timestamp:  e.Timestamp,
		})
	}
	return out
}

func (h *Handler) handleListAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.audits == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit trail is not configured"))
		return
	}

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "customerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
	}

	entries, err := h.audits.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to list audit trail")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditEntryResponses(entries))
}
