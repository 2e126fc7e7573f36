package tenancy

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy/metrics"
	dErrors "sanitrack/pkg/domain-errors"
)

const tracerName = "sanitrack/internal/tenancy"

// Safe offers one-shot organization-scoped operations over a query client.
//
// Every method resolves and validates the organization before any statement
// is built. A missing organization is a returned error; database failures are
// left in query.Response.Err for the caller to inspect.
type Safe struct {
	client  *query.Client
	metrics *metrics.Metrics
}

// SafeOption configures a Safe.
type SafeOption func(*Safe)

// WithMetrics counts guard rejections.
func WithMetrics(m *metrics.Metrics) SafeOption {
	return func(s *Safe) {
		s.metrics = m
	}
}

// NewSafe binds the helpers to client.
func NewSafe(client *query.Client, opts ...SafeOption) *Safe {
	s := &Safe{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert stamps every record with the resolved organization and runs a single
// batched insert.
func (s *Safe) Insert(ctx context.Context, table string, records []query.Record, orgID string) (query.Response, error) {
	ctx, span := s.start(ctx, "tenancy.safe_insert", table)
	defer span.End()

	org, err := s.require(ctx, orgID, "insert")
	if err != nil {
		return query.Response{}, err
	}
	span.SetAttributes(attribute.String("tenant.organization_id", org))
	return s.client.From(table).Insert(StampOrganization(records, org)).Execute(ctx), nil
}

// InsertOne is Insert for a single record.
func (s *Safe) InsertOne(ctx context.Context, table string, record query.Record, orgID string) (query.Response, error) {
	return s.Insert(ctx, table, []query.Record{record}, orgID)
}

// Update applies patch to rows of the organization that match every entry in
// match. An organization_id key in patch is dropped.
func (s *Safe) Update(ctx context.Context, table string, patch query.Record, orgID string, match query.Filters) (query.Response, error) {
	ctx, span := s.start(ctx, "tenancy.safe_update", table)
	defer span.End()

	org, err := s.require(ctx, orgID, "update")
	if err != nil {
		return query.Response{}, err
	}
	span.SetAttributes(attribute.String("tenant.organization_id", org))
	return scope(s.client.From(table).Update(StripOrganization(patch)), org, match).Execute(ctx), nil
}

// Delete removes rows of the organization that match every entry in match.
func (s *Safe) Delete(ctx context.Context, table string, orgID string, match query.Filters) (query.Response, error) {
	ctx, span := s.start(ctx, "tenancy.safe_delete", table)
	defer span.End()

	org, err := s.require(ctx, orgID, "delete")
	if err != nil {
		return query.Response{}, err
	}
	span.SetAttributes(attribute.String("tenant.organization_id", org))
	return scope(s.client.From(table).Delete(), org, match).Execute(ctx), nil
}

// Read returns a select over the organization's rows narrowed by filters. The
// builder is not executed: chain Order, Range or Limit, then call Execute.
func (s *Safe) Read(ctx context.Context, table string, orgID string, filters query.Filters) (*query.Builder, error) {
	ctx, span := s.start(ctx, "tenancy.safe_read", table)
	defer span.End()

	org, err := s.require(ctx, orgID, "read")
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("tenant.organization_id", org))
	return scope(s.client.From(table).Select(), org, filters), nil
}

func (s *Safe) require(ctx context.Context, orgID, operation string) (string, error) {
	org, err := RequireOrgID(ctx, orgID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementGuardRejection(operation)
		}
		trace.SpanFromContext(ctx).SetStatus(codes.Error, errIsolationRequiresOrg)
		return "", dErrors.Wrap(err, dErrors.CodeTenantRequired, errIsolationRequiresOrg)
	}
	return org, nil
}

func (s *Safe) start(ctx context.Context, name, table string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	span.SetAttributes(attribute.String("db.table", table))
	return ctx, span
}

// scope puts the organization filter first, then the match keys in sorted order.
func scope(b *query.Builder, orgID string, match query.Filters) *query.Builder {
	return b.Eq(OrganizationColumn, orgID).Match(match)
}
