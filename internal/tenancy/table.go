package tenancy

import (
	"context"

	"sanitrack/internal/query"
)

// TenantTable is a table bound to one organization. Every builder it returns
// already carries exactly one organization_id predicate, or for inserts, the
// organization stamped onto each record.
type TenantTable struct {
	table *query.Table
	orgID string
}

// NewTenantTable validates orgID (see RequireOrgID) and binds table to it.
func NewTenantTable(ctx context.Context, client *query.Client, orgID, table string) (*TenantTable, error) {
	org, err := RequireOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &TenantTable{table: client.From(table), orgID: org}, nil
}

// OrganizationID returns the bound organization.
func (t *TenantTable) OrganizationID() string { return t.orgID }

// Select starts a read of the organization's rows.
func (t *TenantTable) Select(columns ...string) *query.Builder {
	return t.table.Select(columns...).Eq(OrganizationColumn, t.orgID)
}

// Insert stamps each record with the organization and inserts them.
func (t *TenantTable) Insert(records []query.Record, opts ...query.InsertOption) *query.Builder {
	return t.table.Insert(StampOrganization(records, t.orgID), opts...)
}

// InsertOne is Insert for a single record.
func (t *TenantTable) InsertOne(record query.Record, opts ...query.InsertOption) *query.Builder {
	return t.Insert([]query.Record{record}, opts...)
}

// Update starts an update of the organization's rows. An organization_id key
// in patch is dropped.
func (t *TenantTable) Update(patch query.Record) *query.Builder {
	return t.table.Update(StripOrganization(patch)).Eq(OrganizationColumn, t.orgID)
}

// Delete starts a delete of the organization's rows.
func (t *TenantTable) Delete() *query.Builder {
	return t.table.Delete().Eq(OrganizationColumn, t.orgID)
}
