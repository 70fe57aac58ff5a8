package testutil

import (
	"strings"

	"github.com/roach88/elabql/internal/qlast"
)

// Ptr is an outbound pointer step (`.name`).
func Ptr(name string) *qlast.Ptr {
	return &qlast.Ptr{Ptr: &qlast.ObjectRef{Name: name}, Direction: qlast.Outbound}
}

// LinkProp is a link-property step (`@name`) inside a path.
func LinkProp(name string) *qlast.Ptr {
	return &qlast.Ptr{Ptr: &qlast.ObjectRef{Name: name}, Direction: qlast.Outbound, Type: qlast.PtrTypeProperty}
}

// LinkPropLabel is `@name` on the left of a shape element, which carries no
// direction.
func LinkPropLabel(name string) *qlast.Ptr {
	return &qlast.Ptr{Ptr: &qlast.ObjectRef{Name: name}, Type: qlast.PtrTypeProperty}
}

// Path builds `root.p1.p2...`. A pointer name starting with '@' becomes a
// link-property step.
func Path(root string, ptrs ...string) *qlast.Path {
	steps := []qlast.Node{&qlast.ObjectRef{Name: root}}
	return &qlast.Path{Steps: append(steps, ptrSteps(ptrs)...)}
}

// PartialPath builds `.p1.p2...`.
func PartialPath(ptrs ...string) *qlast.Path {
	return &qlast.Path{Partial: true, Steps: ptrSteps(ptrs)}
}

// Label builds the single-step path on the left of a shape element.
func Label(name string) *qlast.Path {
	if prop, ok := strings.CutPrefix(name, "@"); ok {
		return &qlast.Path{Steps: []qlast.Node{LinkPropLabel(prop)}}
	}
	return &qlast.Path{Steps: []qlast.Node{Ptr(name)}}
}

func ptrSteps(ptrs []string) []qlast.Node {
	steps := make([]qlast.Node, 0, len(ptrs))
	for _, p := range ptrs {
		if name, ok := strings.CutPrefix(p, "@"); ok {
			steps = append(steps, LinkProp(name))
		} else {
			steps = append(steps, Ptr(p))
		}
	}
	return steps
}

func Str(s string) *qlast.StringConstant {
	return &qlast.StringConstant{Value: s}
}

// Int builds an integer literal; a leading '-' sets the sign flag.
func Int(text string) *qlast.IntegerConstant {
	if abs, ok := strings.CutPrefix(text, "-"); ok {
		return &qlast.IntegerConstant{Value: abs, IsNegative: true}
	}
	return &qlast.IntegerConstant{Value: text}
}

func Bool(b bool) *qlast.BooleanConstant {
	return &qlast.BooleanConstant{Value: b}
}

func Call(fn string, args ...qlast.Node) *qlast.FunctionCall {
	return &qlast.FunctionCall{Func: fn, Args: args}
}

func Op(left qlast.Node, op string, right qlast.Node) *qlast.BinOp {
	return &qlast.BinOp{Left: left, Op: op, Right: right}
}

// Type builds a named type, optionally parametrized (`array<str>`).
func Type(name string, subtypes ...qlast.TypeExpr) *qlast.TypeName {
	return &qlast.TypeName{Maintype: &qlast.ObjectRef{Name: name}, Subtypes: subtypes}
}

// Field is a bare shape element.
func Field(name string) *qlast.ShapeElement {
	return &qlast.ShapeElement{Expr: Label(name), Operation: qlast.ShapeOperation{Op: qlast.ShapeOpAssign}}
}

// Computed is `name := expr`.
func Computed(name string, expr qlast.Node) *qlast.ShapeElement {
	el := Field(name)
	el.Compexpr = expr
	return el
}

// Nested is `name: { elements }`.
func Nested(name string, elements ...*qlast.ShapeElement) *qlast.ShapeElement {
	el := Field(name)
	el.Elements = elements
	return el
}

func Asc(path qlast.Node) *qlast.SortExpr {
	return &qlast.SortExpr{Path: path, Direction: qlast.SortAsc}
}

func Desc(path qlast.Node) *qlast.SortExpr {
	return &qlast.SortExpr{Path: path, Direction: qlast.SortDesc}
}

// Alias is one `with` entry.
func Alias(name string, expr qlast.Node) *qlast.AliasedExpr {
	return &qlast.AliasedExpr{Alias: name, Expr: expr}
}

// Select is `select result` with no clauses.
func Select(result qlast.Node) *qlast.SelectQuery {
	return &qlast.SelectQuery{Result: result}
}
