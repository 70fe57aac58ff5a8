package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/queryir"
)

// TiebreakColumn is appended to every ORDER BY so that rows with equal sort
// keys come back in a stable order.
const TiebreakColumn = "id"

// SQLCompiler compiles plans to parameterized SQL for SQLite.
//
// Every query has an ORDER BY ending in the tiebreak column. Values are
// always passed as parameters, never interpolated.
type SQLCompiler struct {
	// BoundValues holds the values for BoundCompare predicates, keyed by
	// free variable name. Values may be Go scalars or ir.IRValue.
	BoundValues map[string]any
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		BoundValues: make(map[string]any),
	}
}

// Compile converts a plan to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select without a source type")
	}

	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	b.WriteString(compileColumns(q.Columns))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(q.From))

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(filterSQL)
		params = append(params, filterParams...)
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy(q.OrderBy))

	// SQLite requires LIMIT before OFFSET; -1 means unbounded.
	if q.Limit != nil || q.Offset > 0 {
		limit := int64(-1)
		if q.Limit != nil {
			limit = *q.Limit
		}
		b.WriteString(" LIMIT ?")
		params = append(params, limit)
		if q.Offset > 0 {
			b.WriteString(" OFFSET ?")
			params = append(params, q.Offset)
		}
	}

	return b.String(), params, nil
}

// compileColumns renders the select list. An empty list reads whole rows.
// Example: {name, handle} → "name" AS "handle"
func compileColumns(cols []queryir.Column) string {
	if len(cols) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		if col.As == "" || col.As == col.Field {
			parts = append(parts, quoteIdent(col.Field))
		} else {
			parts = append(parts, quoteIdent(col.Field)+" AS "+quoteIdent(col.As))
		}
	}
	return strings.Join(parts, ", ")
}

// orderBy renders the user keys followed by the tiebreaker. COLLATE BINARY
// keeps text ordering independent of the connection's collation.
func orderBy(keys []queryir.SortKey) string {
	parts := make([]string, 0, len(keys)+1)
	tiebroken := false
	for _, k := range keys {
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s COLLATE BINARY %s", quoteIdent(k.Field), dir))
		if k.Field == TiebreakColumn {
			tiebroken = true
		}
	}
	if !tiebroken {
		parts = append(parts, quoteIdent(TiebreakColumn)+" COLLATE BINARY ASC")
	}
	return strings.Join(parts, ", ")
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case *queryir.Compare:
		return c.compileCompare(*pred)
	case queryir.BoundCompare:
		return c.compileBoundCompare(pred)
	case *queryir.BoundCompare:
		return c.compileBoundCompare(*pred)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	param, err := irValueToParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value of %s: %w", cmp.Field, err)
	}
	return comparison(cmp.Field, cmp.Op), []any{param}, nil
}

func (c *SQLCompiler) compileBoundCompare(cmp queryir.BoundCompare) (string, []any, error) {
	val, ok := c.BoundValues[cmp.BoundVar]
	if !ok {
		return "", nil, fmt.Errorf("no value bound for variable %q", cmp.BoundVar)
	}
	if v, isIR := val.(ir.IRValue); isIR {
		param, err := irValueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value of %s: %w", cmp.BoundVar, err)
		}
		val = param
	}
	return comparison(cmp.Field, cmp.Op), []any{val}, nil
}

// compileJunction joins sub-predicates; each is parenthesized so that a
// nested OR inside an AND keeps its grouping.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	if len(preds) == 1 {
		return c.compilePredicate(preds[0])
	}

	sqlParts := make([]string, 0, len(preds))
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, sep), allParams, nil
}

func comparison(field string, op queryir.CompareOp) string {
	sqlOp := string(op)
	if op == queryir.OpNe {
		sqlOp = "<>"
	}
	return fmt.Sprintf("%s %s ?", quoteIdent(field), sqlOp)
}

// quoteIdent quotes an identifier for SQLite, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter. Arrays and objects have no parameter form.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
