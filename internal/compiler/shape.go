package compiler

import (
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// ElaborateShape converts shape elements into a ShapeExpr, keeping source
// order. The first repeated label fails the whole shape.
func (el *Elaborator) ElaborateShape(elements []*qlast.ShapeElement) (ir.ShapeExpr, error) {
	fields := make([]ir.ShapeField, 0, len(elements))
	for _, se := range elements {
		label, body, err := el.elaborateShapeElement(se)
		if err != nil {
			return ir.ShapeExpr{}, err
		}
		for _, f := range fields {
			if f.Label == label {
				return ir.ShapeExpr{}, queryError(ErrDuplicateShapeLabel, se.Ctx(),
					"duplicate shape label %q", ir.FormatLabel(label))
			}
		}
		fields = append(fields, ir.ShapeField{Label: label, Body: body})
	}
	return ir.ShapeExpr{Fields: fields}, nil
}

// elaborateShapeElement handles the three element forms:
//
//	l := E    \(E[head := #1])
//	l: {S}    \(shaped(#1.l, S))
//	l         \(#1.l) or \(#1@l)
func (el *Elaborator) elaborateShapeElement(se *qlast.ShapeElement) (ir.Label, ir.BindingExpr, error) {
	if len(se.OrderBy) > 0 || se.Where != nil {
		return nil, ir.BindingExpr{}, el.notImplemented(se, "filter or order by on a shape element")
	}

	switch {
	case se.Compexpr != nil:
		if se.Operation.Op != qlast.ShapeOpAssign {
			return nil, ir.BindingExpr{}, el.notImplemented(se, "shape operation "+string(se.Operation.Op))
		}
		label, err := el.ElaborateLabel(se.Expr)
		if err != nil {
			return nil, ir.BindingExpr{}, err
		}
		val, err := el.Elaborate(se.Compexpr)
		if err != nil {
			return nil, ir.BindingExpr{}, err
		}
		return label, ir.AbstractOver(val, ir.HeadName), nil

	case len(se.Elements) > 0:
		label, err := el.ElaborateLabel(se.Expr)
		if err != nil {
			return nil, ir.BindingExpr{}, err
		}
		if _, ok := label.(ir.StrLabel); !ok {
			return nil, ir.BindingExpr{}, el.notImplemented(se, "link property with shapes")
		}
		sub, err := el.ElaborateShape(se.Elements)
		if err != nil {
			return nil, ir.BindingExpr{}, err
		}
		return label, ir.BindingExpr{Body: ir.ShapedExprExpr{
			Expr:  ir.ObjectProjExpr{Subject: ir.BoundVarExpr{Index: 1}, Label: label.LabelName()},
			Shape: sub,
		}}, nil

	default:
		label, err := el.ElaborateLabel(se.Expr)
		if err != nil {
			return nil, ir.BindingExpr{}, err
		}
		return label, ir.BindingExpr{Body: project(ir.BoundVarExpr{Index: 1}, label)}, nil
	}
}

// project selects the projection kind matching the label.
func project(subject ir.Expr, label ir.Label) ir.Expr {
	if _, ok := label.(ir.LinkPropLabel); ok {
		return ir.LinkPropProjExpr{Subject: subject, Label: label.LabelName()}
	}
	return ir.ObjectProjExpr{Subject: subject, Label: label.LabelName()}
}

// elaborateShaped handles `expr { elements }`. Without a subject the shape
// applies to an empty object.
func (el *Elaborator) elaborateShaped(s *qlast.Shape) (ir.Expr, error) {
	var subject ir.Expr = ir.ObjectExpr{Fields: []ir.ObjectField{}}
	if s.Expr != nil {
		e, err := el.Elaborate(s.Expr)
		if err != nil {
			return nil, err
		}
		subject = e
	}
	shape, err := el.ElaborateShape(s.Elements)
	if err != nil {
		return nil, err
	}
	return ir.ShapedExprExpr{Expr: subject, Shape: shape}, nil
}

// shapeToObject turns an insert shape into an object literal. Each field
// keeps its binder over the object under construction.
func shapeToObject(shape ir.ShapeExpr) ir.ObjectExpr {
	fields := make([]ir.ObjectField, len(shape.Fields))
	for i, f := range shape.Fields {
		fields[i] = ir.ObjectField{Label: f.Label, Expr: f.Body}
	}
	return ir.ObjectExpr{Fields: fields}
}
