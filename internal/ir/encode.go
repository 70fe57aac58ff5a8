package ir

import (
	"fmt"
	"strconv"
)

// Encode converts e into a JSON-shaped value. Every node is an object with a
// "kind" key; ordered fields become arrays. Floats, decimals and bigints are
// encoded as strings.
func Encode(e Expr) IRValue {
	switch n := e.(type) {
	case FreeVarExpr:
		return node("FreeVar", "name", IRString(n.Name))
	case BoundVarExpr:
		return node("BoundVar", "index", IRInt(n.Index))
	case ObjectProjExpr:
		return node("ObjectProj", "subject", Encode(n.Subject), "label", IRString(n.Label))
	case LinkPropProjExpr:
		return node("LinkPropProj", "subject", Encode(n.Subject), "label", IRString(n.Label))
	case BindingExpr:
		return node("Binding", "body", Encode(n.Body))
	case ShapeExpr:
		return encodeShape(n)
	case ShapedExprExpr:
		return node("ShapedExpr", "expr", Encode(n.Expr), "shape", encodeShape(n.Shape))
	case ObjectExpr:
		fields := make(IRArray, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = IRObject{"label": EncodeLabel(f.Label), "expr": Encode(f.Expr)}
		}
		return node("Object", "fields", fields)
	case FilterOrderExpr:
		return node("FilterOrder", "subject", Encode(n.Subject), "filter", Encode(n.Filter), "order", Encode(n.Order))
	case OffsetLimitExpr:
		return node("OffsetLimit", "subject", Encode(n.Subject), "offset", Encode(n.Offset), "limit", Encode(n.Limit))
	case InsertExpr:
		return node("Insert", "name", IRString(n.Name), "new", Encode(n.New))
	case UpdateExpr:
		return node("Update", "subject", Encode(n.Subject), "shape", encodeShape(n.Shape))
	case ForExpr:
		return node("For", "bound", Encode(n.Bound), "next", Encode(n.Next))
	case WithExpr:
		return node("With", "bound", Encode(n.Bound), "next", Encode(n.Next))
	case FunAppExpr:
		obj := node("FunApp", "fun", IRString(n.Fun), "args", encodeList(n.Args))
		if n.OverloadingIndex != nil {
			obj["overloading_index"] = IRInt(*n.OverloadingIndex)
		}
		return obj
	case UnionExpr:
		return node("Union", "left", Encode(n.Left), "right", Encode(n.Right))
	case ArrayExpr:
		return node("Array", "elems", encodeList(n.Elems))
	case NamedTupleExpr:
		fields := make(IRArray, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = IRObject{"name": IRString(f.Name), "expr": Encode(f.Expr)}
		}
		return node("NamedTuple", "fields", fields)
	case UnnamedTupleExpr:
		return node("UnnamedTuple", "elems", encodeList(n.Elems))
	case TypeCastExpr:
		return node("TypeCast", "type", EncodeTp(n.Tp), "arg", Encode(n.Arg))
	case MultiSetExpr:
		return node("MultiSet", "elems", encodeList(n.Elems))
	case DetachedExpr:
		return node("Detached", "expr", Encode(n.Expr))
	case StrVal:
		return node("Str", "val", IRString(n.Val))
	case IntVal:
		return node("Int", "val", IRInt(n.Val))
	case IntInfVal:
		return node("IntInf")
	case BoolVal:
		return node("Bool", "val", IRBool(n.Val))
	case FloatVal:
		return node("Float", "val", IRString(strconv.FormatFloat(n.Val, 'g', -1, 64)))
	case DecimalVal:
		return node("Decimal", "val", IRString(n.Val.String()))
	case BigIntVal:
		return node("BigInt", "val", IRString(n.Val.String()))
	default:
		panic(fmt.Sprintf("ir: cannot encode %T", e))
	}
}

// EncodeTp converts a type term into a JSON-shaped value.
func EncodeTp(t Tp) IRValue {
	switch t := t.(type) {
	case StrTp:
		return node("StrTp")
	case DateTimeTp:
		return node("DateTimeTp")
	case JsonTp:
		return node("JsonTp")
	case VarTp:
		return node("VarTp", "name", IRString(t.Name))
	case ArrayTp:
		return node("ArrayTp", "elem", EncodeTp(t.Elem))
	case UnionTp:
		return node("UnionTp", "left", EncodeTp(t.Left), "right", EncodeTp(t.Right))
	default:
		panic(fmt.Sprintf("ir: cannot encode type %T", t))
	}
}

// EncodeLabel converts a label into a JSON-shaped value.
func EncodeLabel(l Label) IRValue {
	if _, ok := l.(LinkPropLabel); ok {
		return node("LinkPropLabel", "name", IRString(l.LabelName()))
	}
	return node("StrLabel", "name", IRString(l.LabelName()))
}

func encodeShape(s ShapeExpr) IRObject {
	fields := make(IRArray, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = IRObject{"label": EncodeLabel(f.Label), "body": Encode(f.Body)}
	}
	return node("Shape", "fields", fields)
}

func encodeList(es []Expr) IRArray {
	out := make(IRArray, len(es))
	for i, e := range es {
		out[i] = Encode(e)
	}
	return out
}
