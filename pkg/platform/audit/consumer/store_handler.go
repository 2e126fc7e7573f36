package consumer

import (
	"context"
	"fmt"
	"log/slog"

	audit "sanitrack/pkg/platform/audit"
	kafkastore "sanitrack/pkg/platform/audit/store/kafka"
)

// StoreHandler projects audit records of one category into a store. Appends
// must be idempotent on event ID since records are redelivered after a crash.
type StoreHandler struct {
	category audit.EventCategory
	store    audit.Store
	logger   *slog.Logger
}

func NewStoreHandler(category audit.EventCategory, store audit.Store, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{category: category, store: store, logger: logger}
}

// Handle decodes and appends msg. Malformed or misrouted records are logged
// and skipped; store errors are returned so the record is retried.
func (h *StoreHandler) Handle(ctx context.Context, msg *Message) error {
	event, err := kafkastore.Decode(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "CRITICAL: failed to decode audit record",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if event.Category != h.category {
		h.logger.ErrorContext(ctx, "audit record on wrong topic",
			"topic", msg.Topic,
			"event_id", event.ID,
			"category", event.Category,
			"expected", h.category,
		)
		return nil
	}
	if event.ID == "" {
		event.ID = msg.Headers["event_id"]
	}

	if err := h.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append %s audit event %s: %w", h.category, event.ID, err)
	}
	return nil
}
