package tenancy

import "sanitrack/internal/query"

// OrganizationColumn is the tenant key every tenant-owned table carries.
const OrganizationColumn = "organization_id"

// StampOrganization returns copies of records with any caller-supplied
// organization_id discarded and orgID written in its place. The inputs are
// not modified.
func StampOrganization(records []query.Record, orgID string) []query.Record {
	out := make([]query.Record, len(records))
	for i, rec := range records {
		stamped := StripOrganization(rec)
		stamped[OrganizationColumn] = orgID
		out[i] = stamped
	}
	return out
}

// StripOrganization returns a copy of rec without organization_id. Patches go
// through it so an update can never move a row to another organization.
func StripOrganization(rec query.Record) query.Record {
	out := make(query.Record, len(rec))
	for k, v := range rec {
		if k == OrganizationColumn {
			continue
		}
		out[k] = v
	}
	return out
}
