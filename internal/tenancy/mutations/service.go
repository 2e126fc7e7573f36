// Package mutations is the authorization boundary in front of tenant business
// records. Every mutation runs resolve, decide, execute, audit in that order:
// the organization is resolved and validated, the role gate decides, the
// write runs scoped to that same organization, and the attempt is audited.
package mutations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy"
	"sanitrack/internal/tenancy/metrics"
	"sanitrack/internal/tenancy/rolegate"
	"sanitrack/pkg/attrs"
	dErrors "sanitrack/pkg/domain-errors"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/sentinel"
	"sanitrack/pkg/requestcontext"
)

const tracerName = "sanitrack/internal/tenancy/mutations"

// ComplianceAuditor records changes to tenant data.
type ComplianceAuditor interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// SecurityAuditor records denied attempts.
type SecurityAuditor interface {
	Emit(ctx context.Context, event audit.SecurityEvent) error
}

// Caller identifies who is acting and on which organization.
type Caller struct {
	UserID         string
	OrganizationID string
}

// CallerFromContext reads the caller from request-scoped values.
func CallerFromContext(ctx context.Context) Caller {
	return Caller{
		UserID:         requestcontext.UserID(ctx),
		OrganizationID: requestcontext.OrganizationID(ctx),
	}
}

// Service runs role-gated, audited mutations.
type Service struct {
	client     *query.Client
	gate       rolegate.Gate
	compliance ComplianceAuditor
	security   SecurityAuditor
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithComplianceAuditor(a ComplianceAuditor) Option {
	return func(s *Service) {
		s.compliance = a
	}
}

func WithSecurityAuditor(a SecurityAuditor) Option {
	return func(s *Service) {
		s.security = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. The client and gate are required.
func New(client *query.Client, gate rolegate.Gate, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("query client is required")
	}
	if gate == nil {
		return nil, errors.New("role gate is required")
	}
	s := &Service{client: client, gate: gate}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create inserts record for the caller's organization. Any organization_id in
// record is replaced.
func (s *Service) Create(ctx context.Context, policy EntityPolicy, caller Caller, record query.Record) (query.Response, error) {
	if len(record) == 0 {
		return query.Response{}, dErrors.New(dErrors.CodeValidation, policy.Entity+" payload is required")
	}
	return s.mutate(ctx, policy, ActionCreate, caller, "", func(tbl *tenancy.TenantTable) *query.Builder {
		return tbl.InsertOne(record)
	})
}

// Update applies patch to the organization's row with the given id.
func (s *Service) Update(ctx context.Context, policy EntityPolicy, caller Caller, id string, patch query.Record) (query.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return query.Response{}, dErrors.New(dErrors.CodeValidation, policy.Entity+" id is required")
	}
	if len(tenancy.StripOrganization(patch)) == 0 {
		return query.Response{}, dErrors.New(dErrors.CodeValidation, "update requires at least one field")
	}
	return s.mutate(ctx, policy, ActionUpdate, caller, id, func(tbl *tenancy.TenantTable) *query.Builder {
		return tbl.Update(patch).Eq("id", id)
	})
}

// Delete removes the organization's row with the given id.
func (s *Service) Delete(ctx context.Context, policy EntityPolicy, caller Caller, id string) (query.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return query.Response{}, dErrors.New(dErrors.CodeValidation, policy.Entity+" id is required")
	}
	return s.mutate(ctx, policy, ActionDelete, caller, id, func(tbl *tenancy.TenantTable) *query.Builder {
		return tbl.Delete().Eq("id", id)
	})
}

func (s *Service) mutate(
	ctx context.Context,
	policy EntityPolicy,
	action Action,
	caller Caller,
	entityID string,
	build func(*tenancy.TenantTable) *query.Builder,
) (query.Response, error) {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveMutation(policy.Entity, string(action), start)
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "mutations."+string(action))
	defer span.End()
	span.SetAttributes(attribute.String("tenant.entity", policy.Entity))

	// Resolve.
	tbl, err := tenancy.NewTenantTable(ctx, s.client, caller.OrganizationID, policy.Table)
	if err != nil {
		s.denied(ctx, policy, action, caller, audit.EventTenantGuardRejected, "organization_missing")
		span.SetStatus(codes.Error, err.Error())
		return query.Response{}, err
	}
	orgID := tbl.OrganizationID()
	span.SetAttributes(attribute.String("tenant.organization_id", orgID))

	// Decide.
	actor, err := s.gate.RequireRole(ctx, rolegate.Check{
		UserID:         caller.UserID,
		OrganizationID: orgID,
		Allowed:        policy.Allowed(action),
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var authErr *rolegate.AuthorizationError
		if errors.As(err, &authErr) {
			s.denied(ctx, policy, action, Caller{UserID: caller.UserID, OrganizationID: orgID}, audit.EventAuthorizationDenied, authErr.Reason)
			return query.Response{}, err
		}
		s.roleCheckFailed(ctx, policy, action, Caller{UserID: caller.UserID, OrganizationID: orgID}, err)
		return query.Response{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify role")
	}

	// Execute.
	resp := build(tbl).Execute(ctx)
	if resp.Err == nil && action != ActionCreate && resp.Count == 0 {
		resp.Err = fmt.Errorf("%s %s: %w", policy.Entity, entityID, sentinel.ErrNotFound)
	}
	if entityID == "" {
		if row := resp.First(); row != nil {
			entityID = fmt.Sprint(row["id"])
		}
	}

	// Audit.
	decision := audit.DecisionSucceeded
	reason := ""
	if resp.Err != nil {
		decision = audit.DecisionFailed
		reason = resp.Err.Error()
		span.SetStatus(codes.Error, reason)
	}
	s.logAudit(ctx, string(policy.Event(action)),
		"organization_id", orgID,
		"user_id", actor.UserID,
		"role", string(actor.Role),
		"entity", policy.Entity,
		"entity_id", entityID,
		"decision", decision,
	)
	s.emitCompliance(ctx, audit.ComplianceEvent{
		OrganizationID: orgID,
		UserID:         actor.UserID,
		Entity:         policy.Entity,
		EntityID:       entityID,
		Action:         string(policy.Event(action)),
		Decision:       decision,
		Reason:         reason,
		RequestID:      requestcontext.RequestID(ctx),
	})
	s.countMutation(policy, action, decision)

	if resp.Err != nil {
		return resp, mutationError(policy, action, resp.Err)
	}
	return resp, nil
}

func mutationError(policy EntityPolicy, action Action, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, policy.Entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, policy.Entity+" already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to %s %s", action, policy.Entity))
}

func (s *Service) denied(ctx context.Context, policy EntityPolicy, action Action, caller Caller, event audit.AuditEvent, reason string) {
	if s.metrics != nil {
		s.metrics.IncrementAuthorizationDenied(policy.Entity, string(action))
	}
	s.countMutation(policy, action, audit.DecisionDenied)
	if s.logger != nil {
		s.logger.WarnContext(ctx, string(event),
			"event", string(event),
			"log_type", "security",
			"organization_id", caller.OrganizationID,
			"user_id", caller.UserID,
			"entity", policy.Entity,
			"action", string(action),
			"reason", reason,
			"device", requestcontext.Device(ctx),
		)
	}
	if s.security == nil {
		return
	}
	err := s.security.Emit(ctx, audit.SecurityEvent{
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		Entity:         policy.Entity,
		Action:         string(event),
		Reason:         reason,
		IP:             requestcontext.ClientIP(ctx),
		RequestID:      requestcontext.RequestID(ctx),
		Severity:       audit.SeverityWarning,
	})
	if err != nil {
		s.auditFailed(ctx, "security", string(event), err)
	}
}

// roleCheckFailed records a gate that could not reach a decision. The write is
// refused the same as a denial but counted and stored as failed.
func (s *Service) roleCheckFailed(ctx context.Context, policy EntityPolicy, action Action, caller Caller, cause error) {
	event := audit.EventRoleCheckFailed
	s.countMutation(policy, action, audit.DecisionFailed)
	if s.logger != nil {
		s.logger.ErrorContext(ctx, string(event),
			"event", string(event),
			"log_type", "security",
			"organization_id", caller.OrganizationID,
			"user_id", caller.UserID,
			"entity", policy.Entity,
			"action", string(action),
			"device", requestcontext.Device(ctx),
			"error", cause,
		)
	}
	if s.security == nil {
		return
	}
	err := s.security.Emit(ctx, audit.SecurityEvent{
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		Entity:         policy.Entity,
		Action:         string(event),
		Reason:         string(event),
		Decision:       audit.DecisionFailed,
		IP:             requestcontext.ClientIP(ctx),
		RequestID:      requestcontext.RequestID(ctx),
		Severity:       audit.SeverityCritical,
	})
	if err != nil {
		s.auditFailed(ctx, "security", string(event), err)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	attributes = attrs.AppendNonEmpty(attributes, "request_id", requestcontext.RequestID(ctx))
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
}

func (s *Service) emitCompliance(ctx context.Context, event audit.ComplianceEvent) {
	if s.compliance == nil {
		return
	}
	if err := s.compliance.Emit(ctx, event); err != nil {
		s.auditFailed(ctx, "compliance", event.Action, err)
	}
}

// auditFailed reports a lost audit event. It never changes the mutation result.
func (s *Service) auditFailed(ctx context.Context, stream, event string, err error) {
	if s.metrics != nil {
		s.metrics.IncrementAuditFailure(stream)
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "audit publish failed",
			"stream", stream,
			"event", event,
			"user_id", requestcontext.UserID(ctx),
			"error", err,
		)
	}
}

func (s *Service) countMutation(policy EntityPolicy, action Action, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementMutation(policy.Entity, string(action), outcome)
	}
}
