package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sanitrack/internal/query"
)

type TenantTableSuite struct {
	suite.Suite
	ctx    context.Context
	exec   *query.MemoryExecutor
	client *query.Client
}

func TestTenantTableSuite(t *testing.T) {
	suite.Run(t, new(TenantTableSuite))
}

func (s *TenantTableSuite) SetupTest() {
	ClearOrgContext()
	s.ctx = context.Background()
	s.exec = query.NewMemoryExecutor()
	s.client = query.NewClient(s.exec)
}

func (s *TenantTableSuite) TestRejectsBlankOrganization() {
	for _, org := range []string{"", "  "} {
		tbl, err := NewTenantTable(s.ctx, s.client, org, "jobs")
		s.ErrorIs(err, ErrOrganizationIDRequired)
		s.Equal("Organization ID required", err.Error())
		s.Nil(tbl)
	}
}

func (s *TenantTableSuite) TestEveryOperationCarriesOneOrganizationFilter() {
	tbl, err := NewTenantTable(s.ctx, s.client, " org-1 ", "jobs")
	s.Require().NoError(err)
	s.Equal("org-1", tbl.OrganizationID())

	builders := map[string]*query.Builder{
		"select": tbl.Select("id, title").Eq("status", "active"),
		"update": tbl.Update(query.Record{"title": "x", "organization_id": "org-2"}).Eq("id", "job-1"),
		"delete": tbl.Delete().Eq("id", "job-1"),
	}
	for name, b := range builders {
		s.Run(name, func() {
			stmt := b.Statement()
			var orgFilters []query.Filter
			for _, f := range stmt.Filters {
				if f.Column == OrganizationColumn {
					orgFilters = append(orgFilters, f)
				}
			}
			s.Equal([]query.Filter{{Column: OrganizationColumn, Value: "org-1"}}, orgFilters)
		})
	}

	s.Equal(query.Record{"title": "x"}, builders["update"].Statement().Patch)
	s.Equal([]string{"id", "title"}, builders["select"].Statement().Columns)
}

func (s *TenantTableSuite) TestInsertStampsRecords() {
	tbl, err := NewTenantTable(s.ctx, s.client, "org-1", "jobs")
	s.Require().NoError(err)

	resp := tbl.Insert([]query.Record{{"title": "a", "organization_id": "org-2"}, {"title": "b"}}).Execute(s.ctx)
	s.Require().NoError(resp.Err)

	one := tbl.InsertOne(query.Record{"title": "c"}).Execute(s.ctx)
	s.Require().NoError(one.Err)
	s.Equal("org-1", one.First()["organization_id"])

	for _, row := range s.exec.Rows("jobs") {
		s.Equal("org-1", row["organization_id"])
	}
	s.Len(s.exec.StatementsFor("jobs", query.OpInsert), 2)
}

func (s *TenantTableSuite) TestUpsertKeepsOrganizationScope() {
	s.exec.Seed("jobs", query.Record{"id": "job-1", "organization_id": "org-2", "title": "theirs"})
	tbl, err := NewTenantTable(s.ctx, s.client, "org-1", "jobs")
	s.Require().NoError(err)

	resp := tbl.InsertOne(query.Record{"id": "job-1", "title": "mine"}, query.WithOnConflict("id")).Execute(s.ctx)

	s.Error(resp.Err)
	s.Equal("theirs", s.exec.Rows("jobs")[0]["title"])
}
