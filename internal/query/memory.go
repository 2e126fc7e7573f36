package query

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sanitrack/pkg/platform/sentinel"
)

// ProcedureFunc implements a stored procedure for the in-memory executor.
type ProcedureFunc func(ctx context.Context, payload Record) ([]Record, error)

// MemoryExecutor keeps tables in process memory and records every statement it
// receives. It backs unit tests and local development without PostgreSQL.
type MemoryExecutor struct {
	mu         sync.Mutex
	tables     map[string][]Record
	statements []Statement
	calls      []string
	failures   map[string]error
	procedures map[string]ProcedureFunc
}

// NewMemoryExecutor creates an empty executor.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{
		tables:     make(map[string][]Record),
		failures:   make(map[string]error),
		procedures: make(map[string]ProcedureFunc),
	}
}

// Seed appends rows to a table without recording a statement.
func (m *MemoryExecutor) Seed(table string, rows ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], row.Clone())
	}
}

// Rows returns a copy of every row currently in table.
func (m *MemoryExecutor) Rows(table string) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.tables[table])
}

// Statements returns every statement executed so far, in order.
func (m *MemoryExecutor) Statements() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Statement(nil), m.statements...)
}

// StatementsFor returns executed statements matching table and op.
func (m *MemoryExecutor) StatementsFor(table string, op Op) []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Statement
	for _, s := range m.statements {
		if s.Table == table && s.Op == op {
			out = append(out, s)
		}
	}
	return out
}

// FailTable makes every subsequent statement against table return err in
// Response.Err. A nil err clears the failure.
func (m *MemoryExecutor) FailTable(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, table)
		return
	}
	m.failures[table] = err
}

// RegisterProcedure installs fn under name for Call.
func (m *MemoryExecutor) RegisterProcedure(name string, fn ProcedureFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.procedures[name] = fn
}

// Calls returns the names of invoked procedures.
func (m *MemoryExecutor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Execute applies stmt to the in-memory tables.
func (m *MemoryExecutor) Execute(_ context.Context, stmt Statement) Response {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statements = append(m.statements, stmt)
	if err := m.failures[stmt.Table]; err != nil {
		return Response{Err: err}
	}

	var data []Record
	switch stmt.Op {
	case OpSelect:
		data = m.selectRows(stmt)
	case OpInsert:
		if len(stmt.Records) == 0 {
			return Response{Err: fmt.Errorf("%w: insert requires at least one record", sentinel.ErrInvalidState)}
		}
		var err error
		if data, err = m.insertRows(stmt); err != nil {
			return Response{Err: err}
		}
	case OpUpdate:
		if len(stmt.Patch) == 0 {
			return Response{Err: fmt.Errorf("%w: update requires a non-empty patch", sentinel.ErrInvalidState)}
		}
		for _, row := range m.tables[stmt.Table] {
			if matches(row, stmt.Filters) {
				for k, v := range stmt.Patch {
					row[k] = v
				}
				data = append(data, row.Clone())
			}
		}
	case OpDelete:
		kept := m.tables[stmt.Table][:0]
		for _, row := range m.tables[stmt.Table] {
			if matches(row, stmt.Filters) {
				data = append(data, row.Clone())
				continue
			}
			kept = append(kept, row)
		}
		m.tables[stmt.Table] = kept
	default:
		return Response{Err: fmt.Errorf("%w: unknown operation %q", sentinel.ErrInvalidState, stmt.Op)}
	}
	return Response{Data: data, Count: len(data)}
}

// Call dispatches to a registered procedure.
func (m *MemoryExecutor) Call(ctx context.Context, name string, payload Record) Response {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	fn, ok := m.procedures[name]
	m.mu.Unlock()

	if !ok {
		return Response{Err: fmt.Errorf("procedure %q: %w", name, sentinel.ErrNotFound)}
	}
	rows, err := fn(ctx, payload)
	if err != nil {
		return Response{Err: err}
	}
	return Response{Data: rows, Count: len(rows)}
}

func (m *MemoryExecutor) selectRows(stmt Statement) []Record {
	if stmt.Limit < 0 {
		return nil
	}
	var out []Record
	for _, row := range m.tables[stmt.Table] {
		if matches(row, stmt.Filters) {
			out = append(out, project(row, stmt.Columns))
		}
	}
	if len(stmt.Orders) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range stmt.Orders {
				c := compareValues(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if stmt.Offset > 0 {
		if stmt.Offset >= len(out) {
			return nil
		}
		out = out[stmt.Offset:]
	}
	if stmt.Limit > 0 && stmt.Limit < len(out) {
		out = out[:stmt.Limit]
	}
	return out
}

func (m *MemoryExecutor) insertRows(stmt Statement) ([]Record, error) {
	var out []Record
	for _, rec := range stmt.Records {
		row := rec.Clone()
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = time.Now().UTC()
		}

		if idx := m.conflictIndex(stmt, row); idx >= 0 {
			existing := m.tables[stmt.Table][idx]
			if org, ok := row[organizationColumn]; ok && !valuesEqual(existing[organizationColumn], org) {
				return nil, fmt.Errorf("upsert across organizations in %s: %w", stmt.Table, sentinel.ErrConflict)
			}
			for k, v := range rec {
				existing[k] = v
			}
			out = append(out, existing.Clone())
			continue
		}
		if idx := m.indexOf(stmt.Table, "id", row["id"]); idx >= 0 {
			return nil, fmt.Errorf("duplicate id %v in %s: %w", row["id"], stmt.Table, sentinel.ErrConflict)
		}
		m.tables[stmt.Table] = append(m.tables[stmt.Table], row)
		out = append(out, row.Clone())
	}
	return out, nil
}

func (m *MemoryExecutor) conflictIndex(stmt Statement, row Record) int {
	if len(stmt.OnConflict) == 0 {
		return -1
	}
	filters := make([]Filter, len(stmt.OnConflict))
	for i, c := range stmt.OnConflict {
		filters[i] = Filter{Column: c, Value: row[c]}
	}
	for i, existing := range m.tables[stmt.Table] {
		if matches(existing, filters) {
			return i
		}
	}
	return -1
}

func (m *MemoryExecutor) indexOf(table, column string, value any) int {
	for i, row := range m.tables[table] {
		if valuesEqual(row[column], value) {
			return i
		}
	}
	return -1
}

func matches(row Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := row[f.Column]
		if f.Value == nil {
			if ok && v != nil {
				return false
			}
			continue
		}
		if !ok || !valuesEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func project(row Record, columns []string) Record {
	if len(columns) == 0 {
		return row.Clone()
	}
	out := make(Record, len(columns))
	for _, c := range columns {
		if c == "*" {
			return row.Clone()
		}
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneAll(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
