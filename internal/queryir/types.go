package queryir

import "github.com/roach88/elabql/internal/ir"

// Query is a storage plan.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// This is a sealed interface - only types in this package implement it.
// Predicate types:
//   - Compare: field <op> literal
//   - BoundCompare: field <op> variable supplied at execution time
//   - And: all predicates hold (empty = always true)
//   - Or: any predicate holds (empty = always false)
type Predicate interface {
	predicateNode()
}

// Select reads rows of one object type.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter>
//	ORDER BY <order>, id LIMIT <limit> OFFSET <offset>
//
// Example (`select User { name } filter .age > 18 order by .name limit 10`):
//
//	Select{
//	  From:    "User",
//	  Columns: []Column{{Field: "name", As: "name"}},
//	  Filter:  Compare{Field: "age", Op: OpGt, Value: ir.IRInt(18)},
//	  OrderBy: []SortKey{{Field: "name"}},
//	  Limit:   ptr(10),
//	}
type Select struct {
	From    string    // object type name
	Columns []Column  // projected properties; empty reads whole rows
	Filter  Predicate // nil = no filter
	OrderBy []SortKey // user order; backends append a stable tiebreaker
	Offset  int64
	Limit   *int64 // nil = unbounded
}

func (Select) queryNode() {}

// Column projects a property under a result name.
type Column struct {
	Field string `json:"field"`
	As    string `json:"as"`
}

// SortKey orders by one property.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// flip mirrors an operator for swapped operands (`3 < .x` is `.x > 3`).
func (op CompareOp) flip() CompareOp {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return op
	}
}

// Compare is a field-versus-literal predicate.
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// BoundCompare compares a field with a variable that is free in the query.
// Its value is supplied when the plan is compiled.
type BoundCompare struct {
	Field    string
	Op       CompareOp
	BoundVar string
}

func (BoundCompare) predicateNode() {}

// And is a conjunction of predicates.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction of predicates.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
