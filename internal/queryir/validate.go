package queryir

import (
	"fmt"

	"github.com/roach88/elabql/internal/ir"
)

// ValidationResult contains portability analysis of a plan.
//
// The portable fragment is the subset of plans whose results are fully
// determined by the plan itself, independent of the backend's row order
// and column layout.
type ValidationResult struct {
	// IsPortable indicates if the plan uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the plan.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks if a plan conforms to the portable fragment rules.
//
// Portable fragment rules:
//  1. Explicit columns - no whole-row reads
//  2. Deterministic pages - limit and offset require an order by
//  3. Scalar comparisons - ordering operators only on strings and integers
//  4. Satisfiable filters - no empty disjunctions
//
// Non-portable plans still compile and execute. Warnings are returned so
// that callers can report them.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query - portable fragment requires a plan")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	// Rule 1
	if len(sel.Columns) == 0 {
		v.addWarning("No columns on %s (whole-row read) - portable fragment requires explicit columns", sel.From)
	}

	// Rule 2
	if len(sel.OrderBy) == 0 && (sel.Limit != nil || sel.Offset > 0) {
		v.addWarning("Limit or offset without order by - page contents depend on backend row order")
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case BoundCompare, *BoundCompare:
		// Bound values are checked when the plan is compiled.
	case And:
		v.validateJunction(pred.Predicates)
	case *And:
		v.validateJunction(pred.Predicates)
	case Or:
		v.validateOr(pred)
	case *Or:
		v.validateOr(*pred)
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) validateCompare(c Compare) {
	// Rule 3
	switch c.Value.(type) {
	case ir.IRString, ir.IRInt:
	case ir.IRBool:
		if c.Op != OpEq && c.Op != OpNe {
			v.addWarning("Field '%s' ordered against a boolean - portable fragment compares booleans with = and != only", c.Field)
		}
	default:
		v.addWarning("Field '%s' compared to %T - portable fragment requires scalar values", c.Field, c.Value)
	}
}

func (v *validator) validateOr(or Or) {
	// Rule 4
	if len(or.Predicates) == 0 {
		v.addWarning("Empty disjunction - filter never holds")
		return
	}
	v.validateJunction(or.Predicates)
}

func (v *validator) validateJunction(preds []Predicate) {
	for _, sub := range preds {
		v.validatePredicate(sub)
	}
}
