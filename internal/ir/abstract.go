package ir

import (
	"fmt"
	"slices"
)

// varFunc rewrites one variable occurrence found under depth binders.
type varFunc func(v Expr, depth int) Expr

// rewriteVars rebuilds e, passing every FreeVarExpr and BoundVarExpr to f
// together with the number of binders entered since the root. It never
// modifies e.
//
// The switch is exhaustive over Expr. A variant missing here is a bug that
// would silently break binder arity, so it panics instead of passing the
// node through.
func rewriteVars(e Expr, depth int, f varFunc) Expr {
	switch n := e.(type) {
	case FreeVarExpr, BoundVarExpr:
		return f(n, depth)
	case ObjectProjExpr:
		return ObjectProjExpr{Subject: rewriteVars(n.Subject, depth, f), Label: n.Label}
	case LinkPropProjExpr:
		return LinkPropProjExpr{Subject: rewriteVars(n.Subject, depth, f), Label: n.Label}
	case BindingExpr:
		return rewriteBinding(n, depth, f)
	case ShapeExpr:
		return rewriteShape(n, depth, f)
	case ShapedExprExpr:
		return ShapedExprExpr{Expr: rewriteVars(n.Expr, depth, f), Shape: rewriteShape(n.Shape, depth, f)}
	case ObjectExpr:
		var fields []ObjectField
		if n.Fields != nil {
			fields = make([]ObjectField, len(n.Fields))
			for i, fld := range n.Fields {
				fields[i] = ObjectField{Label: fld.Label, Expr: rewriteVars(fld.Expr, depth, f)}
			}
		}
		return ObjectExpr{Fields: fields}
	case FilterOrderExpr:
		return FilterOrderExpr{
			Subject: rewriteVars(n.Subject, depth, f),
			Filter:  rewriteBinding(n.Filter, depth, f),
			Order:   rewriteBinding(n.Order, depth, f),
		}
	case OffsetLimitExpr:
		return OffsetLimitExpr{
			Subject: rewriteVars(n.Subject, depth, f),
			Offset:  rewriteVars(n.Offset, depth, f),
			Limit:   rewriteVars(n.Limit, depth, f),
		}
	case InsertExpr:
		return InsertExpr{Name: n.Name, New: rewriteVars(n.New, depth, f)}
	case UpdateExpr:
		return UpdateExpr{Subject: rewriteVars(n.Subject, depth, f), Shape: rewriteShape(n.Shape, depth, f)}
	case ForExpr:
		return ForExpr{Bound: rewriteVars(n.Bound, depth, f), Next: rewriteBinding(n.Next, depth, f)}
	case WithExpr:
		return WithExpr{Bound: rewriteVars(n.Bound, depth, f), Next: rewriteBinding(n.Next, depth, f)}
	case FunAppExpr:
		return FunAppExpr{Fun: n.Fun, OverloadingIndex: n.OverloadingIndex, Args: rewriteList(n.Args, depth, f)}
	case UnionExpr:
		return UnionExpr{Left: rewriteVars(n.Left, depth, f), Right: rewriteVars(n.Right, depth, f)}
	case ArrayExpr:
		return ArrayExpr{Elems: rewriteList(n.Elems, depth, f)}
	case NamedTupleExpr:
		var fields []NamedTupleField
		if n.Fields != nil {
			fields = make([]NamedTupleField, len(n.Fields))
			for i, fld := range n.Fields {
				fields[i] = NamedTupleField{Name: fld.Name, Expr: rewriteVars(fld.Expr, depth, f)}
			}
		}
		return NamedTupleExpr{Fields: fields}
	case UnnamedTupleExpr:
		return UnnamedTupleExpr{Elems: rewriteList(n.Elems, depth, f)}
	case TypeCastExpr:
		return TypeCastExpr{Tp: n.Tp, Arg: rewriteVars(n.Arg, depth, f)}
	case MultiSetExpr:
		return MultiSetExpr{Elems: rewriteList(n.Elems, depth, f)}
	case DetachedExpr:
		return DetachedExpr{Expr: rewriteVars(n.Expr, depth, f)}
	case StrVal, IntVal, IntInfVal, BoolVal, FloatVal, DecimalVal, BigIntVal:
		return n
	default:
		panic(fmt.Sprintf("ir: unhandled expression variant %T", e))
	}
}

func rewriteBinding(b BindingExpr, depth int, f varFunc) BindingExpr {
	return BindingExpr{Body: rewriteVars(b.Body, depth+1, f)}
}

func rewriteShape(s ShapeExpr, depth int, f varFunc) ShapeExpr {
	if s.Fields == nil {
		return ShapeExpr{}
	}
	fields := make([]ShapeField, len(s.Fields))
	for i, fld := range s.Fields {
		fields[i] = ShapeField{Label: fld.Label, Body: rewriteBinding(fld.Body, depth, f)}
	}
	return ShapeExpr{Fields: fields}
}

func rewriteList(es []Expr, depth int, f varFunc) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = rewriteVars(e, depth, f)
	}
	return out
}

// AbstractOver binds every free occurrence of name in e under a new binder.
// Bound variables of e that point outside e are shifted by one so they keep
// referring to the same binders.
func AbstractOver(e Expr, name string) BindingExpr {
	body := rewriteVars(e, 0, func(v Expr, depth int) Expr {
		switch v := v.(type) {
		case FreeVarExpr:
			if v.Name == name {
				return BoundVarExpr{Index: depth + 1}
			}
		case BoundVarExpr:
			if v.Index > depth {
				return BoundVarExpr{Index: v.Index + 1}
			}
		}
		return v
	})
	return BindingExpr{Body: body}
}

// Constant returns a binder whose body ignores the bound variable.
func Constant(e Expr) BindingExpr {
	return BindingExpr{Body: Shift(e, 1)}
}

// Shift adds by to every bound variable of e that points outside e.
func Shift(e Expr, by int) Expr {
	if by == 0 {
		return e
	}
	return rewriteVars(e, 0, func(v Expr, depth int) Expr {
		if bv, ok := v.(BoundVarExpr); ok && bv.Index > depth {
			return BoundVarExpr{Index: bv.Index + by}
		}
		return v
	})
}

// Instantiate substitutes arg for the variable bound by b and returns the
// body. It is the inverse of AbstractOver:
//
//	Instantiate(AbstractOver(e, n), FreeVarExpr{Name: n}) == e
func Instantiate(b BindingExpr, arg Expr) Expr {
	return rewriteVars(b.Body, 0, func(v Expr, depth int) Expr {
		bv, ok := v.(BoundVarExpr)
		if !ok {
			return v
		}
		switch {
		case bv.Index == depth+1:
			return Shift(arg, depth)
		case bv.Index > depth+1:
			return BoundVarExpr{Index: bv.Index - 1}
		default:
			return v
		}
	})
}

// FreeVars returns the distinct free variable names of e in sorted order.
func FreeVars(e Expr) []string {
	seen := map[string]bool{}
	rewriteVars(e, 0, func(v Expr, _ int) Expr {
		if fv, ok := v.(FreeVarExpr); ok {
			seen[fv.Name] = true
		}
		return v
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DanglingVar is a bound variable that points past the outermost binder.
type DanglingVar struct {
	Index int
	Depth int
}

// Dangling returns the bound variables of e that refer to no binder inside e,
// in traversal order.
func Dangling(e Expr) []DanglingVar {
	var out []DanglingVar
	rewriteVars(e, 0, func(v Expr, depth int) Expr {
		if bv, ok := v.(BoundVarExpr); ok && (bv.Index > depth || bv.Index < 1) {
			out = append(out, DanglingVar{Index: bv.Index, Depth: depth})
		}
		return v
	})
	return out
}

// CountBound counts occurrences of the variable bound by b in its body.
func CountBound(b BindingExpr) int {
	count := 0
	rewriteVars(b.Body, 0, func(v Expr, depth int) Expr {
		if bv, ok := v.(BoundVarExpr); ok && bv.Index == depth+1 {
			count++
		}
		return v
	})
	return count
}
