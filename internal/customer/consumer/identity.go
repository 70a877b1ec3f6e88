// Package consumer processes identity-service events. The customer service
// listens to these for audit visibility; no customer state changes on this
// path today.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"bankflow/internal/customer/metrics"
	"bankflow/internal/platform/kafka/consumer"
)

// Identity event types emitted by the identity service.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedIn   = "user.logged_in"
)

// identityPayload matches the JSON structure of identity events.
type identityPayload struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

// IdentityHandler consumes events from the identity-events topic.
type IdentityHandler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewIdentityHandler creates an identity event handler.
func NewIdentityHandler(logger *slog.Logger, m *metrics.Metrics) *IdentityHandler {
	return &IdentityHandler{logger: logger, metrics: m}
}

// Handle processes one identity event. Malformed or unknown events are
// logged and committed; redelivering them would never succeed.
func (h *IdentityHandler) Handle(_ context.Context, msg *consumer.Message) error {
	var payload identityPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Warn("malformed identity event, skipping",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	switch payload.EventType {
	case EventUserRegistered:
		h.logger.Info("user registered",
			"user_id", payload.UserID,
			"event_id", payload.EventID,
		)
	case EventUserLoggedIn:
		h.logger.Info("user logged in",
			"user_id", payload.UserID,
			"event_id", payload.EventID,
		)
	default:
		h.logger.Debug("unhandled identity event type",
			"event_type", payload.EventType,
			"event_id", payload.EventID,
		)
		return nil
	}

	h.metrics.IncrementIdentityEventConsumed(payload.EventType)
	return nil
}
