package compiler

import (
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// elaborateSelect builds the query combinators for a select.
//
// With offset or limit the result is offset_limit over the elaborated
// result, and where and order by are not elaborated. Paging a filtered set
// takes a nested select: `select (select X filter ...) limit n`.
func (el *Elaborator) elaborateSelect(q *qlast.SelectQuery) (ir.Expr, error) {
	subject, err := el.Elaborate(q.Result)
	if err != nil {
		return nil, err
	}

	if q.Offset == nil && q.Limit == nil {
		if subject, err = el.filterOrder(subject, q.Where, q.OrderBy); err != nil {
			return nil, err
		}
		return el.ElaborateAliases(q.Aliases, subject)
	}

	var offset ir.Expr = ir.IntVal{Val: 0}
	if q.Offset != nil {
		if offset, err = el.Elaborate(q.Offset); err != nil {
			return nil, err
		}
	}
	var limit ir.Expr = ir.IntInfVal{}
	if q.Limit != nil {
		if limit, err = el.Elaborate(q.Limit); err != nil {
			return nil, err
		}
	}
	return el.ElaborateAliases(q.Aliases, ir.OffsetLimitExpr{Subject: subject, Offset: offset, Limit: limit})
}

func (el *Elaborator) filterOrder(subject ir.Expr, where qlast.Node, orderBy []*qlast.SortExpr) (ir.Expr, error) {
	filter := defaultFilter()
	if where != nil {
		cond, err := el.Elaborate(where)
		if err != nil {
			return nil, err
		}
		filter = ir.AbstractOver(cond, ir.HeadName)
	}
	order := defaultOrder()
	if len(orderBy) > 0 {
		var err error
		if order, err = el.ElaborateOrderBy(orderBy); err != nil {
			return nil, err
		}
	}
	return ir.FilterOrderExpr{Subject: subject, Filter: filter, Order: order}, nil
}

func (el *Elaborator) elaborateInsert(q *qlast.InsertQuery) (ir.Expr, error) {
	if q.Subject == nil {
		return nil, malformed(q, "insert without a subject type")
	}
	shape, err := el.ElaborateShape(q.Shape)
	if err != nil {
		return nil, err
	}
	insert := ir.InsertExpr{Name: q.Subject.Name, New: shapeToObject(shape)}
	return el.ElaborateAliases(q.Aliases, insert)
}

// elaborateUpdate filters the subject with a trivial order; update does not
// support ordering.
func (el *Elaborator) elaborateUpdate(q *qlast.UpdateQuery) (ir.Expr, error) {
	subject, err := el.Elaborate(q.Subject)
	if err != nil {
		return nil, err
	}
	subject, err = el.filterOrder(subject, q.Where, nil)
	if err != nil {
		return nil, err
	}
	shape, err := el.ElaborateShape(q.Shape)
	if err != nil {
		return nil, err
	}
	return el.ElaborateAliases(q.Aliases, ir.UpdateExpr{Subject: subject, Shape: shape})
}

func (el *Elaborator) elaborateFor(q *qlast.ForQuery) (ir.Expr, error) {
	if q.ResultAlias != "" {
		return nil, el.notImplemented(q, "result alias")
	}
	bound, err := el.Elaborate(q.Iterator)
	if err != nil {
		return nil, err
	}
	body, err := el.Elaborate(q.Result)
	if err != nil {
		return nil, err
	}
	loop := ir.ForExpr{Bound: bound, Next: ir.AbstractOver(body, q.IteratorAlias)}
	return el.ElaborateAliases(q.Aliases, loop)
}

// ElaborateAliases wraps tail in one with-binding per alias. The last alias
// is the innermost binding, so earlier aliases are visible to later ones.
func (el *Elaborator) ElaborateAliases(aliases []qlast.Alias, tail ir.Expr) (ir.Expr, error) {
	result := tail
	for i := len(aliases) - 1; i >= 0; i-- {
		switch a := aliases[i].(type) {
		case *qlast.AliasedExpr:
			val, err := el.Elaborate(a.Expr)
			if err != nil {
				return nil, err
			}
			result = ir.WithExpr{Bound: val, Next: ir.AbstractOver(result, a.Alias)}
		case *qlast.ModuleAliasDecl:
			return nil, el.notImplemented(a, "module alias")
		default:
			return nil, malformed(aliases[i], "unknown alias declaration")
		}
	}
	return result, nil
}
