package query

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanitrack/pkg/platform/sentinel"
)

func TestRender(t *testing.T) {
	exec := NewMemoryExecutor()
	client := NewClient(exec)

	t.Run("select with filters, order and range", func(t *testing.T) {
		stmt := client.From("jobs").
			Select("id, title").
			Eq("organization_id", "org-1").
			Eq("status", "active").
			Order("created_at", false).
			Range(10, 19).
			Statement()

		text, args, err := Render(stmt)
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT "id", "title" FROM "jobs" WHERE "organization_id" = $1 AND "status" = $2 ORDER BY "created_at" DESC LIMIT 10 OFFSET 10`,
			text)
		assert.Equal(t, []any{"org-1", "active"}, args)
	})

	t.Run("inverted range renders LIMIT 0", func(t *testing.T) {
		text, _, err := Render(client.From("jobs").Select().Range(3, 2).Statement())
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM "jobs" LIMIT 0`, text)
	})

	t.Run("nil filter renders IS NULL", func(t *testing.T) {
		text, args, err := Render(client.From("jobs").Select().Eq("deleted_at", nil).Statement())
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM "jobs" WHERE "deleted_at" IS NULL`, text)
		assert.Empty(t, args)
	})

	t.Run("batched insert fills missing columns with DEFAULT", func(t *testing.T) {
		stmt := client.From("customers").Insert([]Record{
			{"name": "Acme", "organization_id": "org-1"},
			{"name": "Globex", "organization_id": "org-1", "phone": "555"},
		}).Statement()

		text, args, err := Render(stmt)
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "customers" ("name", "organization_id", "phone") VALUES ($1, $2, DEFAULT), ($3, $4, $5) RETURNING *`,
			text)
		assert.Equal(t, []any{"Acme", "org-1", "Globex", "org-1", "555"}, args)
	})

	t.Run("upsert updates non-key columns", func(t *testing.T) {
		stmt := client.From("customers").Insert([]Record{{"id": "c1", "name": "Acme"}}, WithOnConflict("id")).Statement()
		text, _, err := Render(stmt)
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "customers" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name" RETURNING *`,
			text)
	})

	t.Run("update binds patch before filters", func(t *testing.T) {
		stmt := client.From("jobs").Update(Record{"title": "x"}).
			Eq("organization_id", "org-1").
			Match(Filters{"status": "active", "id": "job-1"}).
			Statement()

		text, args, err := Render(stmt)
		require.NoError(t, err)
		assert.Equal(t,
			`UPDATE "jobs" SET "title" = $1 WHERE "organization_id" = $2 AND "id" = $3 AND "status" = $4 RETURNING *`,
			text)
		assert.Equal(t, []any{"x", "org-1", "job-1", "active"}, args)
	})

	t.Run("delete", func(t *testing.T) {
		text, args, err := Render(client.From("jobs").Delete().Eq("organization_id", "org-1").Statement())
		require.NoError(t, err)
		assert.Equal(t, `DELETE FROM "jobs" WHERE "organization_id" = $1 RETURNING *`, text)
		assert.Equal(t, []any{"org-1"}, args)
	})

	t.Run("nested values are encoded as JSON", func(t *testing.T) {
		stmt := client.From("jobs").Update(Record{"meta": map[string]any{"k": 1}}).Statement()
		_, args, err := Render(stmt)
		require.NoError(t, err)
		assert.Equal(t, []any{`{"k":1}`}, args)
	})

	t.Run("rejects empty insert and update", func(t *testing.T) {
		_, _, err := Render(client.From("jobs").Insert(nil).Statement())
		require.ErrorIs(t, err, sentinel.ErrInvalidState)

		_, _, err = Render(client.From("jobs").Update(Record{}).Statement())
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("quotes hostile identifiers", func(t *testing.T) {
		text, _, err := Render(client.From(`jobs"; DROP TABLE x; --`).Select().Statement())
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM "jobs""; DROP TABLE x; --"`, text)
	})
}

func TestMapPostgresError(t *testing.T) {
	t.Run("unique violation maps to conflict", func(t *testing.T) {
		err := mapPostgresError(&pq.Error{Code: "23505"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("undefined table maps to not found", func(t *testing.T) {
		err := mapPostgresError(&pq.Error{Code: "42P01"})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		orig := errors.New("boom")
		assert.Same(t, orig, mapPostgresError(orig))
	})
}

func TestRenderScopedUpsert(t *testing.T) {
	client := NewClient(NewMemoryExecutor())
	stmt := client.From("customers").Insert([]Record{
		{"id": "c1", "name": "Acme", "organization_id": "org-1"},
	}, WithOnConflict("id")).Statement()

	text, _, err := Render(stmt)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "customers" ("id", "name", "organization_id") VALUES ($1, $2, $3) `+
			`ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "organization_id" = EXCLUDED."organization_id" `+
			`WHERE "customers"."organization_id" = EXCLUDED."organization_id" RETURNING *`,
		text)
}
