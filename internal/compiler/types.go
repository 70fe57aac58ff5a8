package compiler

import (
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// ElaborateType converts a surface type expression into a type term.
func (el *Elaborator) ElaborateType(t qlast.TypeExpr) (ir.Tp, error) {
	switch t := t.(type) {
	case *qlast.TypeName:
		return el.elaborateTypeName(t)
	case *qlast.TypeOp:
		if t.Op != "|" {
			return nil, malformed(t, "unknown type operator %q", t.Op)
		}
		left, err := el.ElaborateType(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := el.ElaborateType(t.Right)
		if err != nil {
			return nil, err
		}
		return ir.UnionTp{Left: left, Right: right}, nil
	case nil:
		return nil, malformed(nil, "missing type expression")
	default:
		return nil, malformed(t, "unknown type expression %s", qlast.KindOf(t))
	}
}

// ElaborateType converts t with a default, silent Elaborator.
func ElaborateType(t qlast.TypeExpr) (ir.Tp, error) {
	return defaultElaborator.ElaborateType(t)
}

func (el *Elaborator) elaborateTypeName(t *qlast.TypeName) (ir.Tp, error) {
	if t.Name != "" {
		return nil, el.notImplemented(t, "named type instance")
	}
	if len(t.Dimensions) > 0 {
		return nil, el.notImplemented(t, "array dimensions")
	}
	base := t.Maintype
	if base == nil {
		return nil, malformed(t, "type name without a main type")
	}
	if base.Module != "" && base.Module != "std" {
		return nil, el.notImplemented(t, "module "+base.Module)
	}
	if base.ItemClass != "" {
		return nil, el.notImplemented(t, "item class")
	}
	if len(t.Subtypes) > 0 {
		if base.Name == "array" && len(t.Subtypes) == 1 {
			elem, err := el.ElaborateType(t.Subtypes[0])
			if err != nil {
				return nil, err
			}
			return ir.ArrayTp{Elem: elem}, nil
		}
		return nil, el.notImplemented(t, "parametrized type "+base.Name)
	}
	return builtinType(base.Name), nil
}

func builtinType(name string) ir.Tp {
	switch name {
	case "str":
		return ir.StrTp{}
	case "datetime":
		return ir.DateTimeTp{}
	case "json":
		return ir.JsonTp{}
	default:
		return ir.VarTp{Name: name}
	}
}
