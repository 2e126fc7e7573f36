package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"sanitrack/pkg/platform/sentinel"
	txcontext "sanitrack/pkg/platform/tx"
)

// SQLExecutor runs statements against PostgreSQL through database/sql. It works
// with both the lib/pq and pgx stdlib drivers.
type SQLExecutor struct {
	db *sql.DB
}

// NewSQLExecutor constructs an executor over db.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

type dbQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (e *SQLExecutor) queryer(ctx context.Context) dbQueryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return e.db
}

// Execute renders stmt to SQL and returns the affected or selected rows.
func (e *SQLExecutor) Execute(ctx context.Context, stmt Statement) Response {
	text, args, err := Render(stmt)
	if err != nil {
		return Response{Err: err}
	}
	return e.query(ctx, text, args)
}

// Call invokes a set-returning function with the payload as a single jsonb argument.
func (e *SQLExecutor) Call(ctx context.Context, name string, payload Record) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{Err: fmt.Errorf("marshal rpc payload: %w", err)}
	}
	return e.query(ctx, fmt.Sprintf("SELECT * FROM %s($1::jsonb)", pq.QuoteIdentifier(name)), []any{string(body)})
}

func (e *SQLExecutor) query(ctx context.Context, text string, args []any) Response {
	rows, err := e.queryer(ctx).QueryContext(ctx, text, args...)
	if err != nil {
		return Response{Err: mapPostgresError(err)}
	}
	defer rows.Close()

	data, err := scanRecords(rows)
	if err != nil {
		return Response{Err: mapPostgresError(err)}
	}
	return Response{Data: data, Count: len(data)}
}

// Render builds the SQL text and positional arguments for stmt.
func Render(stmt Statement) (string, []any, error) {
	if stmt.Table == "" {
		return "", nil, fmt.Errorf("%w: table is required", sentinel.ErrInvalidState)
	}
	r := &renderer{}
	table := pq.QuoteIdentifier(stmt.Table)

	var b strings.Builder
	switch stmt.Op {
	case OpSelect:
		fmt.Fprintf(&b, "SELECT %s FROM %s", renderColumns(stmt.Columns), table)
		b.WriteString(r.where(stmt.Filters))
		b.WriteString(renderOrders(stmt.Orders))
		switch {
		case stmt.Limit > 0:
			fmt.Fprintf(&b, " LIMIT %d", stmt.Limit)
		case stmt.Limit < 0:
			b.WriteString(" LIMIT 0")
		}
		if stmt.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", stmt.Offset)
		}
	case OpInsert:
		if len(stmt.Records) == 0 {
			return "", nil, fmt.Errorf("%w: insert requires at least one record", sentinel.ErrInvalidState)
		}
		cols := recordColumns(stmt.Records)
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(quoted, ", "))
		for i, rec := range stmt.Records {
			if i > 0 {
				b.WriteString(", ")
			}
			vals := make([]string, len(cols))
			for j, c := range cols {
				v, ok := rec[c]
				if !ok {
					vals[j] = "DEFAULT"
					continue
				}
				vals[j] = r.bind(v)
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(vals, ", "))
		}
		if len(stmt.OnConflict) > 0 {
			b.WriteString(renderUpsert(table, stmt.OnConflict, cols))
		}
		b.WriteString(" RETURNING *")
	case OpUpdate:
		if len(stmt.Patch) == 0 {
			return "", nil, fmt.Errorf("%w: update requires a non-empty patch", sentinel.ErrInvalidState)
		}
		keys := Filters(stmt.Patch).Keys()
		sets := make([]string, len(keys))
		for i, k := range keys {
			sets[i] = fmt.Sprintf("%s = %s", pq.QuoteIdentifier(k), r.bind(stmt.Patch[k]))
		}
		fmt.Fprintf(&b, "UPDATE %s SET %s", table, strings.Join(sets, ", "))
		b.WriteString(r.where(stmt.Filters))
		b.WriteString(" RETURNING *")
	case OpDelete:
		fmt.Fprintf(&b, "DELETE FROM %s", table)
		b.WriteString(r.where(stmt.Filters))
		b.WriteString(" RETURNING *")
	default:
		return "", nil, fmt.Errorf("%w: unknown operation %q", sentinel.ErrInvalidState, stmt.Op)
	}
	return b.String(), r.args, nil
}

type renderer struct {
	args []any
}

func (r *renderer) bind(v any) string {
	r.args = append(r.args, toSQLValue(v))
	return fmt.Sprintf("$%d", len(r.args))
}

func (r *renderer) where(filters []Filter) string {
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		col := pq.QuoteIdentifier(f.Column)
		if f.Value == nil {
			parts[i] = col + " IS NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%s = %s", col, r.bind(f.Value))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func renderColumns(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	out := make([]string, len(columns))
	for i, c := range columns {
		if c == "*" {
			out[i] = c
			continue
		}
		out[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(out, ", ")
}

func renderOrders(orders []Order) string {
	if len(orders) == 0 {
		return ""
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		dir := "DESC"
		if o.Ascending {
			dir = "ASC"
		}
		parts[i] = pq.QuoteIdentifier(o.Column) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// renderUpsert never lets a conflicting row owned by another organization be
// overwritten: the DO UPDATE is guarded on organization_id when it is written.
func renderUpsert(table string, conflict, cols []string) string {
	target := make([]string, len(conflict))
	skip := make(map[string]bool, len(conflict))
	for i, c := range conflict {
		target[i] = pq.QuoteIdentifier(c)
		skip[c] = true
	}
	var sets []string
	scoped := false
	for _, c := range cols {
		if c == organizationColumn {
			scoped = true
		}
		if skip[c] {
			continue
		}
		q := pq.QuoteIdentifier(c)
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	if len(sets) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(target, ", "))
	}
	clause := fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(target, ", "), strings.Join(sets, ", "))
	if scoped {
		org := pq.QuoteIdentifier(organizationColumn)
		clause += fmt.Sprintf(" WHERE %s.%s = EXCLUDED.%s", table, org, org)
	}
	return clause
}

// recordColumns returns the union of keys across records, sorted.
func recordColumns(records []Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// toSQLValue encodes nested maps and slices as JSON for jsonb columns.
func toSQLValue(v any) any {
	switch v.(type) {
	case map[string]any, Record, []any:
		body, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(body)
	default:
		return v
	}
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	var out []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = fromSQLValue(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func fromSQLValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

// mapPostgresError maps driver errors onto sentinel errors, keeping the original
// in the chain.
func mapPostgresError(err error) error {
	code := ""
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}

	switch code {
	case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
	case pgerrcode.UndefinedFunction, pgerrcode.UndefinedTable:
		return fmt.Errorf("%w: %w", sentinel.ErrNotFound, err)
	case pgerrcode.ConnectionException, pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow, pgerrcode.AdminShutdown:
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
