// Package query is the generic database client the tenancy layer is written
// against: named tables, select/insert/update/delete, conjunctive equality
// filters, and stored-procedure calls.
//
// A Builder accumulates a Statement and hands it to an Executor when Execute is
// called. Builders are not safe for concurrent use; build one per call site.
//
// Execute never returns a Go error. Database failures are data, carried in
// Response.Err, so callers can tell "precondition rejected" (a returned error
// from the layer above) apart from "executed but failed".
package query

import (
	"context"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "sanitrack/internal/query"

// organizationColumn is the tenant key column; upserts refuse to cross it.
const organizationColumn = "organization_id"

// Record is one row. Values are limited to string, bool, integer and float
// kinds, time.Time, nil, and nested map[string]any / []any (stored as JSON).
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filters is a set of column = value predicates. Iteration order is the
// sorted key order so generated statements are deterministic.
type Filters map[string]any

// Keys returns the filter columns in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Op is the statement verb.
type Op string

const (
	OpSelect Op = "select"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Filter is a single equality predicate.
type Filter struct {
	Column string
	Value  any
}

// Order is one ORDER BY term.
type Order struct {
	Column    string
	Ascending bool
}

// Statement is the executor-facing description of a query.
type Statement struct {
	Table      string
	Op         Op
	Columns    []string
	Records    []Record
	Patch      Record
	Filters    []Filter
	Orders     []Order
	Limit      int
	Offset     int
	OnConflict []string
}

// Response mirrors the {data, error} shape returned by the database.
type Response struct {
	Data  []Record
	Count int
	Err   error
}

// First returns the first row, or nil.
func (r Response) First() Record {
	if len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// Executor runs statements and procedure calls against a backend.
type Executor interface {
	Execute(ctx context.Context, stmt Statement) Response
	Call(ctx context.Context, name string, payload Record) Response
}

// Client is the entry point handed to the tenancy layer.
type Client struct {
	exec Executor
}

// NewClient wraps an executor.
func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

// From selects a table.
func (c *Client) From(table string) *Table {
	return &Table{exec: c.exec, name: table}
}

// RPC invokes a stored procedure with a JSON payload.
func (c *Client) RPC(ctx context.Context, name string, payload Record) Response {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "query.rpc")
	defer span.End()
	span.SetAttributes(attribute.String("db.procedure", name))

	resp := c.exec.Call(ctx, name, payload)
	if resp.Err != nil {
		span.SetStatus(codes.Error, resp.Err.Error())
	}
	return resp
}

// Table starts a statement against one table.
type Table struct {
	exec Executor
	name string
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Select starts a read. Columns may be given individually or as a single
// comma-separated list; none means "*".
func (t *Table) Select(columns ...string) *Builder {
	return t.builder(Statement{Op: OpSelect, Columns: splitColumns(columns)})
}

// InsertOption configures an insert.
type InsertOption func(*Statement)

// WithOnConflict turns the insert into an upsert keyed on columns.
func WithOnConflict(columns ...string) InsertOption {
	return func(s *Statement) {
		s.OnConflict = append([]string(nil), columns...)
	}
}

// Insert starts a batched insert of records.
func (t *Table) Insert(records []Record, opts ...InsertOption) *Builder {
	stmt := Statement{Op: OpInsert, Records: records}
	for _, opt := range opts {
		opt(&stmt)
	}
	return t.builder(stmt)
}

// Update starts an update applying patch to every matching row.
func (t *Table) Update(patch Record) *Builder {
	return t.builder(Statement{Op: OpUpdate, Patch: patch})
}

// Delete starts a delete of every matching row.
func (t *Table) Delete() *Builder {
	return t.builder(Statement{Op: OpDelete})
}

func (t *Table) builder(stmt Statement) *Builder {
	stmt.Table = t.name
	return &Builder{exec: t.exec, stmt: stmt}
}

// Builder accumulates filters and modifiers. It is both chainable and
// terminal: call Execute to run it.
type Builder struct {
	exec Executor
	stmt Statement
}

// Eq appends an equality predicate.
func (b *Builder) Eq(column string, value any) *Builder {
	b.stmt.Filters = append(b.stmt.Filters, Filter{Column: column, Value: value})
	return b
}

// Match appends one equality predicate per entry, in sorted key order.
func (b *Builder) Match(filters Filters) *Builder {
	for _, k := range filters.Keys() {
		b.Eq(k, filters[k])
	}
	return b
}

// Order appends an ORDER BY term.
func (b *Builder) Order(column string, ascending bool) *Builder {
	b.stmt.Orders = append(b.stmt.Orders, Order{Column: column, Ascending: ascending})
	return b
}

// Limit caps the number of rows returned.
func (b *Builder) Limit(n int) *Builder {
	b.stmt.Limit = n
	return b
}

// Range selects rows from..to inclusive, zero-based. A negative from or a to
// before from selects nothing rather than widening the read.
func (b *Builder) Range(from, to int) *Builder {
	if from < 0 || to < from {
		b.stmt.Offset = 0
		b.stmt.Limit = -1
		return b
	}
	b.stmt.Offset = from
	b.stmt.Limit = to - from + 1
	return b
}

// Statement returns a copy of the statement built so far.
func (b *Builder) Statement() Statement {
	stmt := b.stmt
	stmt.Filters = append([]Filter(nil), b.stmt.Filters...)
	stmt.Orders = append([]Order(nil), b.stmt.Orders...)
	return stmt
}

// Execute runs the statement.
func (b *Builder) Execute(ctx context.Context) Response {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "query."+string(b.stmt.Op))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.table", b.stmt.Table),
		attribute.Int("db.filters", len(b.stmt.Filters)),
	)

	resp := b.exec.Execute(ctx, b.Statement())
	if resp.Err != nil {
		span.SetStatus(codes.Error, resp.Err.Error())
	}
	return resp
}

func splitColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
