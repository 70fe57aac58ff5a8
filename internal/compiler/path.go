package compiler

import (
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// elaboratePath folds the steps of a path into projections.
//
// Only the first step may introduce a variable: a partial path starts at the
// reserved head, otherwise an object reference becomes a free variable and
// any other first step is elaborated as an expression.
func (el *Elaborator) elaboratePath(p *qlast.Path) (ir.Expr, error) {
	var result ir.Expr
	if p.Partial {
		result = ir.FreeVarExpr{Name: ir.HeadName}
	}
	for _, step := range p.Steps {
		switch s := step.(type) {
		case *qlast.ObjectRef:
			if result != nil {
				return nil, malformed(s, "unexpected object reference %q mid-path", s.Name)
			}
			result = ir.FreeVarExpr{Name: s.Name}
			continue
		case *qlast.Ptr:
			if s.Direction == qlast.Outbound {
				if result == nil {
					return nil, malformed(s, "pointer step %q without a subject", ptrName(s))
				}
				if s.Type == qlast.PtrTypeProperty {
					result = ir.LinkPropProjExpr{Subject: result, Label: ptrName(s)}
				} else {
					result = ir.ObjectProjExpr{Subject: result, Label: ptrName(s)}
				}
				continue
			}
		}
		if result != nil {
			return nil, el.notImplemented(step, "in path")
		}
		e, err := el.Elaborate(step)
		if err != nil {
			return nil, err
		}
		result = e
	}
	if result == nil {
		return nil, malformed(p, "empty path")
	}
	return result, nil
}

func ptrName(p *qlast.Ptr) string {
	if p.Ptr == nil {
		return ""
	}
	return p.Ptr.Name
}

// ElaborateLabel classifies the left-hand side of a shape element.
// The path must be a single pointer step: an outbound pointer is a StrLabel,
// a property pointer a LinkPropLabel. The outbound check runs first.
func (el *Elaborator) ElaborateLabel(p *qlast.Path) (ir.Label, error) {
	if p != nil && len(p.Steps) == 1 {
		if ptr, ok := p.Steps[0].(*qlast.Ptr); ok && ptr.Ptr != nil {
			if ptr.Direction == qlast.Outbound {
				return ir.StrLabel{Name: ptr.Ptr.Name}, nil
			}
			if ptr.Type == qlast.PtrTypeProperty {
				return ir.LinkPropLabel{Name: ptr.Ptr.Name}, nil
			}
		}
	}
	if p == nil {
		return nil, malformed(nil, "shape element without a label")
	}
	return nil, el.notImplemented(p, "label")
}

// ElaborateLabel classifies p with a default, silent Elaborator.
func ElaborateLabel(p *qlast.Path) (ir.Label, error) {
	return defaultElaborator.ElaborateLabel(p)
}
