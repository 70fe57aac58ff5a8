package compiler

import (
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// ElaborateOrderBy encodes sort keys as one flat tuple over the head:
// an ascending key k contributes (k, ()), a descending key ((), k).
// Comparing these tuples lexicographically orders by every key in turn,
// with the direction chosen by slot position.
func (el *Elaborator) ElaborateOrderBy(sorts []*qlast.SortExpr) (ir.BindingExpr, error) {
	elems := make([]ir.Expr, 0, 2*len(sorts))
	for _, s := range sorts {
		if s.NonesOrder != "" {
			return ir.BindingExpr{}, el.notImplemented(s, "nones order")
		}
		key, err := el.Elaborate(s.Path)
		if err != nil {
			return ir.BindingExpr{}, err
		}
		switch s.Direction {
		case qlast.SortAsc:
			elems = append(elems, key, ir.Unit())
		case qlast.SortDesc:
			elems = append(elems, ir.Unit(), key)
		default:
			return ir.BindingExpr{}, malformed(s, "unknown sort direction %q", s.Direction)
		}
	}
	return ir.AbstractOver(ir.UnnamedTupleExpr{Elems: elems}, ir.HeadName), nil
}

// defaultFilter keeps every element.
func defaultFilter() ir.BindingExpr {
	return ir.Constant(ir.BoolVal{Val: true})
}

// defaultOrder leaves elements in their original order.
func defaultOrder() ir.BindingExpr {
	return ir.Constant(ir.Unit())
}
