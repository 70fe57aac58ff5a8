package queryir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/elabql/internal/ir"
)

// ErrNotPlannable is wrapped by every Lower failure.
var ErrNotPlannable = errors.New("not plannable")

func notPlannable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotPlannable, fmt.Sprintf(format, args...))
}

// Lower converts an elaborated query into a Select plan.
//
// The accepted nesting is
//
//	with(..., offset_limit(filter_order(subject, filter, order), offset, limit))
//
// where every layer but the subject is optional. The elaborator produces
// both the offset_limit and the filter_order layer for a select over a
// filtered subquery.
func Lower(e ir.Expr) (Select, error) {
	e, err := substituteWith(e)
	if err != nil {
		return Select{}, err
	}

	var sel Select
	if ol, ok := e.(ir.OffsetLimitExpr); ok {
		if err := lowerOffsetLimit(ol, &sel); err != nil {
			return Select{}, err
		}
		e = ol.Subject
	}

	if fo, ok := e.(ir.FilterOrderExpr); ok {
		if sel.Filter, err = lowerFilter(fo.Filter.Body); err != nil {
			return Select{}, err
		}
		if sel.OrderBy, err = lowerOrder(fo.Order.Body); err != nil {
			return Select{}, err
		}
		e = fo.Subject
	}

	if sel.From, sel.Columns, err = lowerSubject(e); err != nil {
		return Select{}, err
	}
	return sel, nil
}

// substituteWith inlines with-bindings whose value is a literal or a type
// name.
func substituteWith(e ir.Expr) (ir.Expr, error) {
	for {
		w, ok := e.(ir.WithExpr)
		if !ok {
			return e, nil
		}
		switch w.Bound.(type) {
		case ir.StrVal, ir.IntVal, ir.BoolVal, ir.FreeVarExpr:
			e = ir.Instantiate(w.Next, w.Bound)
		default:
			return nil, notPlannable("with-binding of %s", ir.Format(w.Bound))
		}
	}
}

func lowerOffsetLimit(ol ir.OffsetLimitExpr, sel *Select) error {
	offset, ok := ol.Offset.(ir.IntVal)
	if !ok || offset.Val < 0 {
		return notPlannable("offset %s", ir.Format(ol.Offset))
	}
	sel.Offset = offset.Val

	switch limit := ol.Limit.(type) {
	case ir.IntInfVal:
	case ir.IntVal:
		if limit.Val < 0 {
			return notPlannable("negative limit %d", limit.Val)
		}
		n := limit.Val
		sel.Limit = &n
	default:
		return notPlannable("limit %s", ir.Format(ol.Limit))
	}
	return nil
}

func lowerSubject(e ir.Expr) (string, []Column, error) {
	switch s := e.(type) {
	case ir.FreeVarExpr:
		return s.Name, nil, nil
	case ir.ShapedExprExpr:
		from, ok := s.Expr.(ir.FreeVarExpr)
		if !ok {
			return "", nil, notPlannable("shape over %s", ir.Format(s.Expr))
		}
		cols := make([]Column, 0, len(s.Shape.Fields))
		for _, f := range s.Shape.Fields {
			if _, ok := f.Label.(ir.StrLabel); !ok {
				return "", nil, notPlannable("shape field %s", ir.FormatLabel(f.Label))
			}
			field, ok := headProperty(f.Body.Body)
			if !ok {
				return "", nil, notPlannable("computed shape field %s", f.Label.LabelName())
			}
			cols = append(cols, Column{Field: field, As: f.Label.LabelName()})
		}
		return from.Name, cols, nil
	default:
		return "", nil, notPlannable("subject %s", ir.Format(e))
	}
}

// headProperty matches `#1.field`, a property of the row being filtered,
// ordered or projected.
func headProperty(e ir.Expr) (string, bool) {
	p, ok := e.(ir.ObjectProjExpr)
	if !ok {
		return "", false
	}
	if bv, ok := p.Subject.(ir.BoundVarExpr); !ok || bv.Index != 1 {
		return "", false
	}
	return p.Label, true
}

func literal(e ir.Expr) (ir.IRValue, bool) {
	switch v := e.(type) {
	case ir.StrVal:
		return ir.IRString(v.Val), true
	case ir.IntVal:
		return ir.IRInt(v.Val), true
	case ir.BoolVal:
		return ir.IRBool(v.Val), true
	default:
		return nil, false
	}
}

var compareOps = map[string]CompareOp{
	"=":  OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
}

func lowerFilter(body ir.Expr) (Predicate, error) {
	switch b := body.(type) {
	case ir.BoolVal:
		if b.Val {
			return nil, nil
		}
		return Or{Predicates: []Predicate{}}, nil
	case ir.ObjectProjExpr:
		if field, ok := headProperty(b); ok {
			return Compare{Field: field, Op: OpEq, Value: ir.IRBool(true)}, nil
		}
	case ir.FunAppExpr:
		if len(b.Args) != 2 {
			break
		}
		switch {
		case strings.EqualFold(b.Fun, "and"):
			return lowerJunction(b, func(ps []Predicate) Predicate { return And{Predicates: ps} })
		case strings.EqualFold(b.Fun, "or"):
			return lowerJunction(b, func(ps []Predicate) Predicate { return Or{Predicates: ps} })
		}
		if op, ok := compareOps[b.Fun]; ok {
			return lowerCompare(op, b.Args[0], b.Args[1])
		}
	}
	return nil, notPlannable("filter %s", ir.Format(body))
}

// lowerJunction flattens nested and / or of the same kind.
func lowerJunction(f ir.FunAppExpr, build func([]Predicate) Predicate) (Predicate, error) {
	var preds []Predicate
	for _, arg := range f.Args {
		p, err := lowerFilter(arg)
		if err != nil {
			return nil, err
		}
		switch inner := p.(type) {
		case And:
			if strings.EqualFold(f.Fun, "and") {
				preds = append(preds, inner.Predicates...)
				continue
			}
		case Or:
			if strings.EqualFold(f.Fun, "or") {
				preds = append(preds, inner.Predicates...)
				continue
			}
		case nil:
			p = And{Predicates: []Predicate{}}
		}
		preds = append(preds, p)
	}
	return build(preds), nil
}

func lowerCompare(op CompareOp, left, right ir.Expr) (Predicate, error) {
	field, ok := headProperty(left)
	if !ok {
		if field, ok = headProperty(right); !ok {
			return nil, notPlannable("comparison without a property: %s %s %s", ir.Format(left), op, ir.Format(right))
		}
		right, op = left, op.flip()
	}
	if v, ok := literal(right); ok {
		return Compare{Field: field, Op: op, Value: v}, nil
	}
	if fv, ok := right.(ir.FreeVarExpr); ok {
		return BoundCompare{Field: field, Op: op, BoundVar: fv.Name}, nil
	}
	return nil, notPlannable("comparison of %s with %s", field, ir.Format(right))
}

func isUnit(e ir.Expr) bool {
	t, ok := e.(ir.UnnamedTupleExpr)
	return ok && len(t.Elems) == 0
}

// lowerOrder decodes the paired order tuple: (k, ()) ascending, ((), k)
// descending.
func lowerOrder(body ir.Expr) ([]SortKey, error) {
	t, ok := body.(ir.UnnamedTupleExpr)
	if !ok || len(t.Elems)%2 != 0 {
		return nil, notPlannable("order %s", ir.Format(body))
	}
	var keys []SortKey
	for i := 0; i < len(t.Elems); i += 2 {
		first, second := t.Elems[i], t.Elems[i+1]
		switch {
		case isUnit(second):
			field, ok := headProperty(first)
			if !ok {
				return nil, notPlannable("order key %s", ir.Format(first))
			}
			keys = append(keys, SortKey{Field: field})
		case isUnit(first):
			field, ok := headProperty(second)
			if !ok {
				return nil, notPlannable("order key %s", ir.Format(second))
			}
			keys = append(keys, SortKey{Field: field, Desc: true})
		default:
			return nil, notPlannable("order %s", ir.Format(body))
		}
	}
	return keys, nil
}
