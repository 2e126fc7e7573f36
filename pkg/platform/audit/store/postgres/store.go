package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "sanitrack/pkg/platform/audit"
	txcontext "sanitrack/pkg/platform/tx"
)

// Store implements audit.Store over the audit_events table. Appends join the
// transaction on ctx when there is one, so an audit row commits or rolls back
// with the change it describes.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts event. Idempotent on event ID.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, organization_id, user_id, entity,
			entity_id, action, decision, reason, severity, ip, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		string(category),
		event.Timestamp,
		nullable(event.OrganizationID),
		nullable(event.UserID),
		event.Entity,
		event.EntityID,
		event.Action,
		event.Decision,
		event.Reason,
		string(event.Severity),
		event.IP,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByOrganization returns an organization's events, newest first.
func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]audit.Event, error) {
	query := selectColumns + `
		FROM audit_events
		WHERE organization_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := selectColumns + `
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

const selectColumns = `
		SELECT id, category, timestamp, organization_id, user_id, entity,
			   entity_id, action, decision, reason, severity, ip, request_id`

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			severity string
			orgID    sql.NullString
			userID   sql.NullString
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&orgID,
			&userID,
			&event.Entity,
			&event.EntityID,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&severity,
			&event.IP,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Severity = audit.Severity(severity)
		event.OrganizationID = orgID.String
		event.UserID = userID.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
