package mutations

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ComplianceAuditor,SecurityAuditor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sanitrack/internal/query"
	"sanitrack/internal/tenancy"
	"sanitrack/internal/tenancy/metrics"
	"sanitrack/internal/tenancy/mutations/mocks"
	"sanitrack/internal/tenancy/rolegate"
	gatemocks "sanitrack/internal/tenancy/rolegate/mocks"
	dErrors "sanitrack/pkg/domain-errors"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/sentinel"
	"sanitrack/pkg/requestcontext"
)

// =============================================================================
// Mutation Service Test Suite
// =============================================================================
// The suite runs the real membership gate over an in-memory profiles table so
// the authorization decision and the write are exercised together. Audit
// publishers are mocked to assert exactly what is emitted.

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	exec       *query.MemoryExecutor
	compliance *mocks.MockComplianceAuditor
	security   *mocks.MockSecurityAuditor
	metrics    *metrics.Metrics
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	tenancy.ClearOrgContext()
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.ctrl = gomock.NewController(s.T())
	s.exec = query.NewMemoryExecutor()
	s.exec.Seed("profiles",
		query.Record{"clerk_user_id": "user-admin", "organization_id": "org-1", "role": "admin"},
		query.Record{"clerk_user_id": "user-viewer", "organization_id": "org-1", "role": "viewer"},
		query.Record{"clerk_user_id": "user-driver", "organization_id": "org-1", "role": "driver"},
	)
	s.compliance = mocks.NewMockComplianceAuditor(s.ctrl)
	s.security = mocks.NewMockSecurityAuditor(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())

	client := query.NewClient(s.exec)
	gate := rolegate.NewMembershipGate(rolegate.NewProfileLookup(client))
	svc, err := New(client, gate,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithComplianceAuditor(s.compliance),
		WithSecurityAuditor(s.security),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestNew() {
	client := query.NewClient(query.NewMemoryExecutor())
	gate := gatemocks.NewMockGate(s.ctrl)

	s.Run("nil client returns error", func() {
		_, err := New(nil, gate)
		s.ErrorContains(err, "query client is required")
	})

	s.Run("nil gate returns error", func() {
		_, err := New(client, nil)
		s.ErrorContains(err, "role gate is required")
	})

	s.Run("audit publishers are optional", func() {
		svc, err := New(client, gate)
		s.Require().NoError(err)
		s.NotNil(svc)
	})
}

func (s *ServiceSuite) TestCreateCustomerAsAdmin() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.ComplianceEvent) error {
			s.Equal("org-1", event.OrganizationID)
			s.Equal("user-admin", event.UserID)
			s.Equal(string(audit.EventCustomerCreated), event.Action)
			s.Equal(audit.DecisionSucceeded, event.Decision)
			s.Equal("req-1", event.RequestID)
			s.NotEmpty(event.EntityID)
			return nil
		})

	resp, err := s.service.CreateCustomer(s.ctx,
		Caller{UserID: "user-admin", OrganizationID: "org-1"},
		query.Record{"name": "Acme Rentals", "organization_id": "org-2"},
	)
	s.Require().NoError(err)
	s.Require().NoError(resp.Err)

	inserts := s.exec.StatementsFor("customers", query.OpInsert)
	s.Require().Len(inserts, 1)
	s.Require().Len(inserts[0].Records, 1)
	s.Equal("org-1", inserts[0].Records[0]["organization_id"])
	s.Equal("Acme Rentals", resp.First()["name"])
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Mutations.WithLabelValues("customer", "create", "succeeded")))
}

func (s *ServiceSuite) TestCreateCustomerInAnotherOrganizationIsDenied() {
	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.SecurityEvent) error {
			s.Equal("org-2", event.OrganizationID)
			s.Equal("user-admin", event.UserID)
			s.Equal(string(audit.EventAuthorizationDenied), event.Action)
			s.Equal(rolegate.ReasonNotMember, event.Reason)
			return nil
		})

	resp, err := s.service.CreateCustomer(s.ctx,
		Caller{UserID: "user-admin", OrganizationID: "org-2"},
		query.Record{"name": "Acme Rentals"},
	)

	var authErr *rolegate.AuthorizationError
	s.Require().ErrorAs(err, &authErr)
	s.Equal("Insufficient role", err.Error())
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Empty(resp.Data)
	s.Empty(s.exec.StatementsFor("customers", query.OpInsert))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuthorizationDenied.WithLabelValues("customer", "create")))
}

func (s *ServiceSuite) TestRoleOutsidePolicyIsDenied() {
	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := s.service.CreateCustomer(s.ctx, Caller{UserID: "user-viewer", OrganizationID: "org-1"}, query.Record{"name": "x"})
	s.ErrorIs(err, rolegate.ErrInsufficientRole)

	_, err = s.service.DeleteJob(s.ctx, Caller{UserID: "user-driver", OrganizationID: "org-1"}, "job-1")
	s.ErrorIs(err, rolegate.ErrInsufficientRole)

	s.Empty(s.exec.Statements()[2:], "only the two profile lookups ran")
}

func (s *ServiceSuite) TestDriverMayUpdateJob() {
	s.exec.Seed("jobs", query.Record{"id": "job-1", "organization_id": "org-1", "status": "scheduled"})
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := s.service.UpdateJob(s.ctx, Caller{UserID: "user-driver", OrganizationID: "org-1"}, "job-1", query.Record{"status": "completed"})
	s.Require().NoError(err)
	s.Equal("completed", resp.First()["status"])
}

func (s *ServiceSuite) TestMissingOrganizationNeverReachesGate() {
	gate := gatemocks.NewMockGate(s.ctrl)
	svc, err := New(query.NewClient(s.exec), gate, WithSecurityAuditor(s.security))
	s.Require().NoError(err)

	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.SecurityEvent) error {
			s.Equal(string(audit.EventTenantGuardRejected), event.Action)
			return nil
		})

	_, err = svc.CreateCustomer(s.ctx, Caller{UserID: "user-admin", OrganizationID: "  "}, query.Record{"name": "x"})
	s.ErrorIs(err, tenancy.ErrOrganizationIDRequired)
	s.Empty(s.exec.Statements())
}

func (s *ServiceSuite) TestCallerFromContextUsesRequestOrganization() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	ctx := requestcontext.WithUserID(s.ctx, "user-admin")
	ctx = requestcontext.WithOrganization(ctx, "org-1", "acme")

	_, err := s.service.CreateInventoryItem(ctx, CallerFromContext(ctx), query.Record{"sku": "PT-100"})
	s.Require().NoError(err)
	s.Equal("org-1", s.exec.Rows("inventory_items")[0]["organization_id"])
}

func (s *ServiceSuite) TestDatabaseFailureIsAuditedAndWrapped() {
	s.exec.FailTable("customers", sentinel.ErrUnavailable)
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event audit.ComplianceEvent) error {
			s.Equal(audit.DecisionFailed, event.Decision)
			s.NotEmpty(event.Reason)
			return nil
		})

	resp, err := s.service.CreateCustomer(s.ctx, Caller{UserID: "user-admin", OrganizationID: "org-1"}, query.Record{"name": "x"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, sentinel.ErrUnavailable)
	s.ErrorIs(resp.Err, sentinel.ErrUnavailable)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Mutations.WithLabelValues("customer", "create", "failed")))
}

func (s *ServiceSuite) TestAuditFailureDoesNotReplaceResult() {
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

	resp, err := s.service.CreateCustomer(s.ctx, Caller{UserID: "user-admin", OrganizationID: "org-1"}, query.Record{"name": "x"})
	s.Require().NoError(err)
	s.Require().NoError(resp.Err)
	s.Len(s.exec.Rows("customers"), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.AuditFailures.WithLabelValues("compliance")))
}

func (s *ServiceSuite) TestUpdateAndDeleteStayInOrganization() {
	s.exec.Seed("customers",
		query.Record{"id": "cust-1", "organization_id": "org-1", "name": "Mine"},
		query.Record{"id": "cust-2", "organization_id": "org-2", "name": "Theirs"},
	)
	s.compliance.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	caller := Caller{UserID: "user-admin", OrganizationID: "org-1"}

	resp, err := s.service.UpdateCustomer(s.ctx, caller, "cust-1", query.Record{"name": "Renamed", "organization_id": "org-2"})
	s.Require().NoError(err)
	s.Equal("org-1", resp.First()["organization_id"])

	update := s.exec.StatementsFor("customers", query.OpUpdate)[0]
	s.Equal(query.Record{"name": "Renamed"}, update.Patch)
	s.Equal([]query.Filter{
		{Column: "organization_id", Value: "org-1"},
		{Column: "id", Value: "cust-1"},
	}, update.Filters)

	_, err = s.service.DeleteCustomer(s.ctx, caller, "cust-2")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.DeleteCustomer(s.ctx, caller, "cust-1")
	s.Require().NoError(err)

	rows := s.exec.Rows("customers")
	s.Require().Len(rows, 1)
	s.Equal("cust-2", rows[0]["id"])
}

func (s *ServiceSuite) TestGateFailureIsNotAGrant() {
	gate := gatemocks.NewMockGate(s.ctrl)
	gate.EXPECT().RequireRole(gomock.Any(), rolegate.Check{
		UserID:         "user-admin",
		OrganizationID: "org-1",
		Allowed:        CustomerPolicy.Allowed(ActionDelete),
	}).Return(rolegate.Actor{}, sentinel.ErrUnavailable)

	s.security.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event audit.SecurityEvent) error {
		s.Equal("org-1", event.OrganizationID)
		s.Equal("user-admin", event.UserID)
		s.Equal("customer", event.Entity)
		s.Equal(string(audit.EventRoleCheckFailed), event.Action)
		s.Equal("role_check_failed", event.Reason)
		s.Equal(audit.DecisionFailed, event.ToEvent().Decision)
		return nil
	})

	svc, err := New(query.NewClient(s.exec), gate, WithSecurityAuditor(s.security), WithMetrics(s.metrics))
	s.Require().NoError(err)

	_, err = svc.DeleteCustomer(s.ctx, Caller{UserID: "user-admin", OrganizationID: "org-1"}, "cust-1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.exec.Statements())
	s.Equal(0.0, testutil.ToFloat64(s.metrics.AuthorizationDenied.WithLabelValues("customer", "delete")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Mutations.WithLabelValues("customer", "delete", "failed")))
}

func (s *ServiceSuite) TestValidation() {
	caller := Caller{UserID: "user-admin", OrganizationID: "org-1"}

	_, err := s.service.CreateCustomer(s.ctx, caller, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.UpdateCustomer(s.ctx, caller, " ", query.Record{"name": "x"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.UpdateCustomer(s.ctx, caller, "cust-1", query.Record{"organization_id": "org-2"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.DeleteCustomer(s.ctx, caller, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Empty(s.exec.Statements())
}

func (s *ServiceSuite) TestPolicyEventFallback() {
	p := EntityPolicy{Entity: "invoice", Table: "invoices"}
	s.Equal(audit.AuditEvent("invoice_create"), p.Event(ActionCreate))
	s.Empty(p.Allowed(ActionCreate))
}
