package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].version)
	assert.Equal(t, 2, migrations[1].version)
	assert.Contains(t, migrations[0].content, "CREATE TABLE IF NOT EXISTS profiles")
	assert.Contains(t, migrations[1].content, "CREATE TABLE IF NOT EXISTS audit_events")
}

func TestEveryTenantTableCarriesOrganization(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)

	schema := migrations[0].content
	for _, table := range []string{"profiles", "customers", "jobs", "inventory_items"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Equal(t, 4, strings.Count(schema, "organization_id TEXT NOT NULL"))
}
