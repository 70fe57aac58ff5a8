package harness

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/elabql/internal/store"
)

// columnName restricts the column names a recorded assertion may
// interpolate into SQL. Values are always bound as parameters.
var columnName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// recordedTables are the log tables a recorded assertion may read.
var recordedTables = []string{"runs", "elaborations"}

// AssertionError reports a failed assertion together with the trace it was
// checked against.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assertion failed: %s\n  Expected: %s\n  Actual: %s\n", e.Type, e.Expected, e.Actual)
	if len(e.Trace) == 0 {
		return b.String()
	}
	b.WriteString("\nFull trace:\n")
	for _, ev := range e.Trace {
		line := strings.TrimSpace(fmt.Sprintf("[%d] %s %s %s", ev.Seq, ev.Step, ev.Outcome, ev.Code))
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure. actx is only needed for recorded assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result.Trace, a, actx); err != nil {
			if _, ok := err.(*AssertionError); !ok {
				err = fmt.Errorf("assertion[%d]: %w", i, err)
			}
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// AssertionContext gives recorded assertions access to the scenario log.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

func evaluate(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertSameCore:
		return assertSameCore(trace, a)
	case AssertDistinctCore:
		return assertDistinctCore(trace, a)
	case AssertOutcomeCount:
		return assertOutcomeCount(trace, a)
	case AssertRecorded:
		if actx == nil || actx.Store == nil {
			return fmt.Errorf("recorded requires database context")
		}
		return assertRecorded(actx.Ctx, actx.Store, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertSameCore passes when every listed step elaborated to one core.
func assertSameCore(trace []TraceEvent, a Assertion) error {
	cores, err := stepCores(trace, a)
	if err != nil {
		return err
	}
	for i, core := range cores[1:] {
		if core != cores[0] {
			return &AssertionError{
				Type:     AssertSameCore,
				Expected: fmt.Sprintf("%s and %s to elaborate to the same core", a.Steps[0], a.Steps[i+1]),
				Actual:   cores[0] + " vs " + core,
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertDistinctCore passes when no two listed steps share a core.
func assertDistinctCore(trace []TraceEvent, a Assertion) error {
	cores, err := stepCores(trace, a)
	if err != nil {
		return err
	}
	owner := make(map[string]string, len(cores))
	for i, core := range cores {
		if prev, dup := owner[core]; dup {
			return &AssertionError{
				Type:     AssertDistinctCore,
				Expected: fmt.Sprintf("%s and %s to elaborate to different cores", prev, a.Steps[i]),
				Actual:   "both elaborate to " + core,
				Trace:    trace,
			}
		}
		owner[core] = a.Steps[i]
	}
	return nil
}

// stepCores looks up the listed steps, all of which must have elaborated.
func stepCores(trace []TraceEvent, a Assertion) ([]string, error) {
	cores := make([]string, len(a.Steps))
	for i, name := range a.Steps {
		ev, ok := findEvent(trace, name)
		switch {
		case !ok:
			return nil, &AssertionError{Type: a.Type, Expected: "step " + name + " in trace", Actual: "not found in trace", Trace: trace}
		case ev.Outcome != OutcomeOK:
			return nil, &AssertionError{
				Type:     a.Type,
				Expected: "step " + name + " to elaborate",
				Actual:   fmt.Sprintf("outcome %s %s", ev.Outcome, ev.Code),
				Trace:    trace,
			}
		}
		cores[i] = ev.Core
	}
	return cores, nil
}

// assertOutcomeCount passes when exactly Count steps have Outcome (and Code,
// if set).
func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Outcome == a.Outcome && (a.Code == "" || ev.Code == a.Code) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	what := strings.TrimSpace(a.Outcome + " " + a.Code)
	return &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: fmt.Sprintf("%d steps with outcome %s", a.Count, what),
		Actual:   fmt.Sprintf("%d steps", n),
		Trace:    trace,
	}
}

// assertRecorded passes when exactly one row of a log table matches Where
// and that row carries every Expect value.
func assertRecorded(ctx context.Context, st *store.Store, a Assertion) error {
	if !slices.Contains(recordedTables, a.Table) {
		return fmt.Errorf("invalid table name %q: must be one of %s", a.Table, strings.Join(recordedTables, ", "))
	}
	where, args, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}

	row, err := selectOne(ctx, st.DB(), a.Table, where, args)
	if err != nil {
		return err
	}
	if row == nil {
		return &AssertionError{
			Type:     AssertRecorded,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, formatWhereClause(a.Where)),
			Actual:   "row not found",
		}
	}

	for _, col := range slices.Sorted(maps.Keys(a.Expect)) {
		want := a.Expect[col]
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Type:     AssertRecorded,
				Expected: fmt.Sprintf("column %q to exist", col),
				Actual:   fmt.Sprintf("columns are %v", slices.Sorted(maps.Keys(row))),
			}
		}
		if !columnValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertRecorded,
				Expected: fmt.Sprintf("column %q = %v (type %T)", col, want, want),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", col, got, got),
			}
		}
	}
	return nil
}

// errAmbiguous is returned by selectOne when more than one row matches.
var errAmbiguous = &AssertionError{Type: AssertRecorded, Expected: "exactly one matching row", Actual: "multiple rows matched (assertion is ambiguous)"}

// selectOne returns the single matching row as column -> value, or nil if
// none matches.
func selectOne(ctx context.Context, db *sql.DB, table, where string, args []any) (map[string]any, error) {
	query := "SELECT * FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	if rows.Next() {
		return nil, errAmbiguous
	}

	row := make(map[string]any, len(cols))
	for i, c := range cols {
		row[c] = vals[i]
	}
	return row, nil
}

// buildWhereClause renders where as "a = ? AND b = ?" in key order.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	keys := slices.Sorted(maps.Keys(where))
	clauses := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		if !columnName.MatchString(k) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause", k)
		}
		clauses[i] = k + " = ?"
		args[i] = toSQLValue(where[k])
	}
	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue turns a YAML scalar into a query parameter. Whole floats
// become integers; anything non-scalar is bound as its %v text.
func toSQLValue(v any) any {
	switch x := v.(type) {
	case string, int, int64, bool:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	}
	return fmt.Sprint(v)
}

func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range slices.Sorted(maps.Keys(where)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// columnValuesEqual compares a YAML value with what SQLite returned:
// int64 for integers and booleans, string or []byte for text.
func columnValuesEqual(want, got any) bool {
	if b, ok := got.([]byte); ok {
		got = string(b)
	}
	switch w := want.(type) {
	case nil:
		return got == nil
	case int:
		return got == int64(w)
	case bool:
		if n, ok := got.(int64); ok {
			return w == (n != 0)
		}
	}
	return reflect.DeepEqual(want, got)
}

func findEvent(trace []TraceEvent, step string) (TraceEvent, bool) {
	i := slices.IndexFunc(trace, func(ev TraceEvent) bool { return ev.Step == step })
	if i < 0 {
		return TraceEvent{}, false
	}
	return trace[i], true
}
