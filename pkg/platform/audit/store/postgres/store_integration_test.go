//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	platformpg "sanitrack/internal/platform/postgres"
	audit "sanitrack/pkg/platform/audit"
	"sanitrack/pkg/platform/audit/store/postgres"
	txcontext "sanitrack/pkg/platform/tx"
	"sanitrack/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(platformpg.Migrate(context.Background(), s.postgres.DB, slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.store = postgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func event(orgID, action string, at time.Time) audit.Event {
	return audit.Event{
		ID:             uuid.NewString(),
		Timestamp:      at,
		OrganizationID: orgID,
		UserID:         "user-1",
		Entity:         "customer",
		EntityID:       "cust-1",
		Action:         action,
		Decision:       audit.DecisionSucceeded,
	}
}

func (s *AuditStoreSuite) TestListByOrganizationIsScopedAndNewestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(s.store.Append(ctx, event("org-1", string(audit.EventCustomerCreated), base)))
	s.Require().NoError(s.store.Append(ctx, event("org-1", string(audit.EventCustomerDeleted), base.Add(time.Second))))
	s.Require().NoError(s.store.Append(ctx, event("org-2", string(audit.EventJobCreated), base)))

	events, err := s.store.ListByOrganization(ctx, "org-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCustomerDeleted), events[0].Action)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	for _, e := range events {
		s.Equal("org-1", e.OrganizationID)
	}
}

func (s *AuditStoreSuite) TestAppendIsIdempotentOnID() {
	ctx := context.Background()
	e := event("org-1", string(audit.EventCustomerCreated), time.Now().UTC())

	s.Require().NoError(s.store.Append(ctx, e))
	s.Require().NoError(s.store.Append(ctx, e))

	events, err := s.store.ListByOrganization(ctx, "org-1")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AuditStoreSuite) TestAppendJoinsContextTransaction() {
	ctx := context.Background()

	err := txcontext.Run(ctx, s.postgres.DB, func(txCtx context.Context) error {
		s.Require().NoError(s.store.Append(txCtx, event("org-1", string(audit.EventCustomerCreated), time.Now().UTC())))
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	events, err := s.store.ListByOrganization(ctx, "org-1")
	s.Require().NoError(err)
	s.Empty(events)
}
