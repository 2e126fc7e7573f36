// Package kafka streams audit events to Kafka topics, one topic per category.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "sanitrack/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the store uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store produces audit events synchronously. Records are keyed by
// organization so one organization's events stay ordered within a partition.
type Store struct {
	producer    Producer
	topicPrefix string
}

// New creates a Kafka audit store. Topics are "<prefix>.<category>".
func New(producer Producer, topicPrefix string) *Store {
	return &Store{producer: producer, topicPrefix: topicPrefix}
}

// Topic returns the topic events of category are written to.
func (s *Store) Topic(category audit.EventCategory) string {
	return s.topicPrefix + "." + string(category)
}

// payload is the wire form. Field names are stable and consumed downstream.
type payload struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Timestamp      string `json:"timestamp"`
	OrganizationID string `json:"organization_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Entity         string `json:"entity,omitempty"`
	EntityID       string `json:"entity_id,omitempty"`
	Action         string `json:"action"`
	Decision       string `json:"decision,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Severity       string `json:"severity,omitempty"`
	IP             string `json:"ip,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

// Append produces event and waits for the broker acknowledgement.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	body, err := json.Marshal(payload{
		ID:             event.ID,
		Category:       string(event.Category),
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		OrganizationID: event.OrganizationID,
		UserID:         event.UserID,
		Entity:         event.Entity,
		EntityID:       event.EntityID,
		Action:         event.Action,
		Decision:       event.Decision,
		Reason:         event.Reason,
		Severity:       string(event.Severity),
		IP:             event.IP,
		RequestID:      event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.Topic(event.Category),
		Key:   []byte(event.OrganizationID),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Decode parses a record produced by Append.
func Decode(value []byte) (audit.Event, error) {
	var p payload
	if err := json.Unmarshal(value, &p); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	return audit.Event{
		ID:             p.ID,
		Category:       audit.EventCategory(p.Category),
		Timestamp:      ts,
		OrganizationID: p.OrganizationID,
		UserID:         p.UserID,
		Entity:         p.Entity,
		EntityID:       p.EntityID,
		Action:         p.Action,
		Decision:       p.Decision,
		Reason:         p.Reason,
		Severity:       audit.Severity(p.Severity),
		IP:             p.IP,
		RequestID:      p.RequestID,
	}, nil
}
