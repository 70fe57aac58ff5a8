package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders e in a compact, deterministic text form used by the CLI and
// by golden files.
//
//	#1                      bound variable
//	\(body)                 binder
//	S.l  S@l                object / link-property projection
//	{l: \(..), @p: \(..)}   shape
//	object{l := v}          object literal
//	set{a, b}               multiset
//	<T>(e)                  cast
func Format(e Expr) string {
	var b strings.Builder
	formatExpr(&b, e)
	return b.String()
}

// FormatTp renders a type term.
func FormatTp(t Tp) string {
	switch t := t.(type) {
	case StrTp:
		return "str"
	case DateTimeTp:
		return "datetime"
	case JsonTp:
		return "json"
	case VarTp:
		return t.Name
	case ArrayTp:
		return "array<" + FormatTp(t.Elem) + ">"
	case UnionTp:
		return "(" + FormatTp(t.Left) + " | " + FormatTp(t.Right) + ")"
	default:
		return fmt.Sprintf("<unknown type %T>", t)
	}
}

// FormatLabel renders a label, prefixing link properties with '@'.
func FormatLabel(l Label) string {
	if _, ok := l.(LinkPropLabel); ok {
		return "@" + l.LabelName()
	}
	return l.LabelName()
}

func formatExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case FreeVarExpr:
		b.WriteString(n.Name)
	case BoundVarExpr:
		fmt.Fprintf(b, "#%d", n.Index)
	case ObjectProjExpr:
		formatExpr(b, n.Subject)
		b.WriteByte('.')
		b.WriteString(n.Label)
	case LinkPropProjExpr:
		formatExpr(b, n.Subject)
		b.WriteByte('@')
		b.WriteString(n.Label)
	case BindingExpr:
		b.WriteString(`\(`)
		formatExpr(b, n.Body)
		b.WriteByte(')')
	case ShapeExpr:
		formatShape(b, n)
	case ShapedExprExpr:
		b.WriteString("shaped(")
		formatExpr(b, n.Expr)
		b.WriteString(", ")
		formatShape(b, n.Shape)
		b.WriteByte(')')
	case ObjectExpr:
		b.WriteString("object{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(FormatLabel(f.Label))
			b.WriteString(" := ")
			formatExpr(b, f.Expr)
		}
		b.WriteByte('}')
	case FilterOrderExpr:
		formatCall(b, "filter_order", n.Subject, n.Filter, n.Order)
	case OffsetLimitExpr:
		formatCall(b, "offset_limit", n.Subject, n.Offset, n.Limit)
	case InsertExpr:
		b.WriteString("insert(")
		b.WriteString(n.Name)
		b.WriteString(", ")
		formatExpr(b, n.New)
		b.WriteByte(')')
	case UpdateExpr:
		formatCall(b, "update", n.Subject, n.Shape)
	case ForExpr:
		formatCall(b, "for", n.Bound, n.Next)
	case WithExpr:
		formatCall(b, "with", n.Bound, n.Next)
	case FunAppExpr:
		name := n.Fun
		if n.OverloadingIndex != nil {
			name = fmt.Sprintf("%s[%d]", n.Fun, *n.OverloadingIndex)
		}
		formatCall(b, name, n.Args...)
	case UnionExpr:
		formatCall(b, "union", n.Left, n.Right)
	case ArrayExpr:
		b.WriteByte('[')
		formatList(b, n.Elems)
		b.WriteByte(']')
	case NamedTupleExpr:
		b.WriteByte('(')
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(" := ")
			formatExpr(b, f.Expr)
		}
		b.WriteByte(')')
	case UnnamedTupleExpr:
		b.WriteByte('(')
		formatList(b, n.Elems)
		if len(n.Elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case TypeCastExpr:
		b.WriteByte('<')
		b.WriteString(FormatTp(n.Tp))
		b.WriteString(">(")
		formatExpr(b, n.Arg)
		b.WriteByte(')')
	case MultiSetExpr:
		b.WriteString("set{")
		formatList(b, n.Elems)
		b.WriteByte('}')
	case DetachedExpr:
		formatCall(b, "detached", n.Expr)
	case StrVal:
		b.WriteString(strconv.Quote(n.Val))
	case IntVal:
		b.WriteString(strconv.FormatInt(n.Val, 10))
	case IntInfVal:
		b.WriteString("inf")
	case BoolVal:
		b.WriteString(strconv.FormatBool(n.Val))
	case FloatVal:
		b.WriteString(formatFloat(n.Val))
	case DecimalVal:
		b.WriteString(n.Val.String())
		b.WriteByte('n')
	case BigIntVal:
		b.WriteString(n.Val.String())
		b.WriteByte('n')
	default:
		fmt.Fprintf(b, "<unknown %T>", e)
	}
}

func formatShape(b *strings.Builder, s ShapeExpr) {
	b.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatLabel(f.Label))
		b.WriteString(": ")
		formatExpr(b, f.Body)
	}
	b.WriteByte('}')
}

func formatCall(b *strings.Builder, name string, args ...Expr) {
	b.WriteString(name)
	b.WriteByte('(')
	formatList(b, args)
	b.WriteByte(')')
}

func formatList(b *strings.Builder, es []Expr) {
	for i, e := range es {
		if i > 0 {
			b.WriteString(", ")
		}
		formatExpr(b, e)
	}
}

// formatFloat keeps a decimal point so floats never read as integers.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}
	return s + ".0"
}
