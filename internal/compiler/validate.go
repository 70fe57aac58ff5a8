package compiler

import (
	"fmt"

	"github.com/roach88/elabql/internal/ir"
)

// ValidationError is one violated output invariant.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the invariants every elaborated expression must satisfy.
// Returns all violations found (does not fail-fast).
//
//   - E210: the reserved head name is not free
//   - E211: every bound variable refers to an enclosing binder
func Validate(e ir.Expr) []ValidationError {
	if e == nil {
		return []ValidationError{{
			Field:   "core",
			Message: "expression is nil",
			Code:    ErrMalformedTree,
		}}
	}

	var errs []ValidationError
	for _, name := range ir.FreeVars(e) {
		if name == ir.HeadName {
			errs = append(errs, ValidationError{
				Field:   "core",
				Message: "reserved head name is free in the elaborated expression",
				Code:    ErrHeadNameEscaped,
			})
		}
	}
	for _, d := range ir.Dangling(e) {
		errs = append(errs, ValidationError{
			Field:   "core",
			Message: fmt.Sprintf("bound variable #%d under %d binder(s) has no binder", d.Index, d.Depth),
			Code:    ErrDanglingBoundVariable,
		})
	}
	return errs
}
