package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to tenant business records.
	// These require durable storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// Examples: role denials, requests without an organization.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             string        `json:"id"`
	Category       EventCategory `json:"category"`
	Timestamp      time.Time     `json:"timestamp"`
	OrganizationID string        `json:"organization_id,omitempty"`
	UserID         string        `json:"user_id,omitempty"`
	Entity         string        `json:"entity,omitempty"`
	EntityID       string        `json:"entity_id,omitempty"`
	Action         string        `json:"action"`
	Decision       string        `json:"decision,omitempty"`
	Reason         string        `json:"reason,omitempty"`
	Severity       Severity      `json:"severity,omitempty"`
	IP             string        `json:"ip,omitempty"`
	RequestID      string        `json:"request_id,omitempty"`
}

// Decisions recorded on events.
const (
	DecisionSucceeded = "succeeded"
	DecisionFailed    = "failed"
	DecisionDenied    = "denied"
)

type AuditEvent string

const (
	// Customer events
	EventCustomerCreated AuditEvent = "customer_created"
	EventCustomerUpdated AuditEvent = "customer_updated"
	EventCustomerDeleted AuditEvent = "customer_deleted"

	// Job events
	EventJobCreated AuditEvent = "job_created"
	EventJobUpdated AuditEvent = "job_updated"
	EventJobDeleted AuditEvent = "job_deleted"

	// Inventory events
	EventInventoryItemCreated AuditEvent = "inventory_item_created"
	EventInventoryItemUpdated AuditEvent = "inventory_item_updated"
	EventInventoryItemDeleted AuditEvent = "inventory_item_deleted"

	// Security events
	EventAuthorizationDenied AuditEvent = "authorization_denied"
	EventTenantGuardRejected AuditEvent = "tenant_guard_rejected"
	EventMutationFailed      AuditEvent = "mutation_failed"
	EventRoleCheckFailed     AuditEvent = "role_check_failed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventCustomerCreated:      CategoryCompliance,
	EventCustomerUpdated:      CategoryCompliance,
	EventCustomerDeleted:      CategoryCompliance,
	EventJobCreated:           CategoryCompliance,
	EventJobUpdated:           CategoryCompliance,
	EventJobDeleted:           CategoryCompliance,
	EventInventoryItemCreated: CategoryCompliance,
	EventInventoryItemUpdated: CategoryCompliance,
	EventInventoryItemDeleted: CategoryCompliance,

	EventAuthorizationDenied: CategorySecurity,
	EventTenantGuardRejected: CategorySecurity,

	EventMutationFailed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ComplianceEvent records a change to an organization's data. Use with the
// compliance publisher, which writes synchronously.
type ComplianceEvent struct {
	Timestamp      time.Time // set automatically if zero
	OrganizationID string    // required
	UserID         string    // the acting user
	Entity         string    // e.g. "customer"
	EntityID       string
	Action         string // e.g. "customer_created"
	Decision       string // "succeeded" or "failed"
	Reason         string
	RequestID      string
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the stored Event shape.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:       CategoryCompliance,
		Timestamp:      e.Timestamp,
		OrganizationID: e.OrganizationID,
		UserID:         e.UserID,
		Entity:         e.Entity,
		EntityID:       e.EntityID,
		Action:         e.Action,
		Decision:       e.Decision,
		Reason:         e.Reason,
		RequestID:      e.RequestID,
	}
}

// SecurityEvent captures security-relevant actions for SIEM and alerting.
// Events are processed asynchronously with buffering.
type SecurityEvent struct {
	Timestamp      time.Time // set automatically if zero
	OrganizationID string    // the organization the actor targeted
	UserID         string
	Entity         string
	Action         string // e.g. "authorization_denied"
	Reason         string // e.g. "not_a_member"
	Decision       string // defaults to "denied"
	IP             string
	RequestID      string
	Severity       Severity
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category returns CategorySecurity (always).
func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

// ToEvent converts to the stored Event shape.
func (e SecurityEvent) ToEvent() Event {
	decision := e.Decision
	if decision == "" {
		decision = DecisionDenied
	}
	return Event{
		Category:       CategorySecurity,
		Timestamp:      e.Timestamp,
		OrganizationID: e.OrganizationID,
		UserID:         e.UserID,
		Entity:         e.Entity,
		Action:         e.Action,
		Decision:       decision,
		Reason:         e.Reason,
		Severity:       e.Severity,
		IP:             e.IP,
		RequestID:      e.RequestID,
	}
}
