// Package compliance provides a fail-closed audit publisher for tenant data changes.
//
// Publisher writes compliance events synchronously: the caller blocks until the
// store accepts the event, and a failed write is returned as an error.
//
// Use for: customer_*, job_*, inventory_item_*
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "sanitrack/pkg/platform/audit"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event to the audit store.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	start := time.Now()

	if event.OrganizationID == "" {
		return fmt.Errorf("compliance event requires OrganizationID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	stored := event.ToEvent()
	stored.ID = uuid.NewString()

	if err := p.store.Append(ctx, stored); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"organization_id", event.OrganizationID,
				"user_id", event.UserID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted()
	}
	return nil
}

// Close is a no-op for the synchronous compliance publisher.
func (p *Publisher) Close() error {
	return nil
}
