package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/elabql/internal/qlast"
)

// Elaboration error codes (E200-E299)
const (
	// Unsupported construct (E201)
	ErrNotImplemented = "E201"

	// Query errors (E202-E206)
	ErrDuplicateShapeLabel   = "E202" // same label twice in one shape
	ErrQualifiedTupleField   = "E203" // module-qualified or item-classed named tuple field
	ErrIntegerOutOfRange     = "E204" // integer literal does not fit in int64
	ErrInvalidNumericLiteral = "E205" // numeric literal text cannot be parsed
	ErrDuplicateTupleField   = "E206" // same name twice in one named tuple

	// Parser contract violation (E209)
	ErrMalformedTree = "E209"

	// Output invariants checked by Validate (E210-E211)
	ErrHeadNameEscaped       = "E210" // reserved head name free in output
	ErrDanglingBoundVariable = "E211" // bound variable refers to no binder
)

// NotImplementedError reports a surface construct the elaborator does not
// support yet.
type NotImplementedError struct {
	Node    qlast.Node
	Message string
}

func (e *NotImplementedError) Error() string {
	msg := "not implemented: " + qlast.KindOf(e.Node)
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	if ctx := e.Context(); ctx.IsValid() {
		return fmt.Sprintf("%s: %s", ctx, msg)
	}
	return msg
}

// Context returns the source location of the offending node.
func (e *NotImplementedError) Context() qlast.Context {
	if e.Node == nil {
		return qlast.Context{}
	}
	return e.Node.Ctx()
}

// QueryError reports a supported construct used incorrectly.
type QueryError struct {
	Code    string
	Message string
	Context qlast.Context
}

func (e *QueryError) Error() string {
	if e.Context.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", e.Context, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MalformedTreeError reports a tree no conforming front end produces, such as
// an object reference in the middle of a path. It is neither a missing
// feature nor a user error.
type MalformedTreeError struct {
	Node    qlast.Node
	Message string
}

func (e *MalformedTreeError) Error() string {
	if e.Node != nil && e.Node.Ctx().IsValid() {
		return fmt.Sprintf("%s: malformed syntax tree: %s", e.Node.Ctx(), e.Message)
	}
	return "malformed syntax tree: " + e.Message
}

// IsNotImplemented reports whether err is or wraps a *NotImplementedError.
func IsNotImplemented(err error) bool {
	var ni *NotImplementedError
	return errors.As(err, &ni)
}

// IsQueryError reports whether err is or wraps a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsMalformedTree reports whether err is or wraps a *MalformedTreeError.
func IsMalformedTree(err error) bool {
	var me *MalformedTreeError
	return errors.As(err, &me)
}

// ErrorCode returns the elaboration error code carried by err, or "" when err
// is not an elaboration error.
func ErrorCode(err error) string {
	var (
		ni *NotImplementedError
		qe *QueryError
		me *MalformedTreeError
	)
	switch {
	case errors.As(err, &ni):
		return ErrNotImplemented
	case errors.As(err, &qe):
		return qe.Code
	case errors.As(err, &me):
		return ErrMalformedTree
	default:
		return ""
	}
}

func malformed(node qlast.Node, format string, args ...any) error {
	return &MalformedTreeError{Node: node, Message: fmt.Sprintf(format, args...)}
}

func queryError(code string, ctx qlast.Context, format string, args ...any) error {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...), Context: ctx}
}
