package qlast

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// DecodeError reports a malformed syntax-tree document.
type DecodeError struct {
	Field   string
	Message string
	Context Context
}

func (e *DecodeError) Error() string {
	if e.Context.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Context, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads a syntax-tree document (CUE or JSON) from path.
func LoadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read syntax tree: %w", err)
	}
	return DecodeBytes(path, data)
}

// DecodeBytes compiles a CUE or JSON document and decodes the node at its root.
func DecodeBytes(filename string, data []byte) (Node, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Decode(v)
}

// Decode converts a kind-tagged CUE value into a syntax tree.
//
// Every node is a struct with a "kind" field naming the node type (see
// KindOf) and fields named after the node's JSON tags:
//
//	kind: "Path"
//	steps: [{kind: "ObjectRef", name: "User"}]
func Decode(v cue.Value) (Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeNode(v)
}

func lookup(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.MakePath(cue.Str(name)))
	return f, f.Exists()
}

func ctxOf(v cue.Value) Loc {
	return Loc{Context: ContextFromPos(v.Pos())}
}

func decodeNode(v cue.Value) (Node, error) {
	kindVal, ok := lookup(v, "kind")
	if !ok {
		return nil, &DecodeError{Field: "kind", Message: "node kind is required", Context: ContextFromPos(v.Pos())}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	loc := ctxOf(v)

	switch kind {
	case "ObjectRef":
		return decodeObjectRef(v)
	case "Ptr":
		ref, err := requiredObjectRef(v, "ptr")
		if err != nil {
			return nil, err
		}
		dir, err := optString(v, "direction")
		if err != nil {
			return nil, err
		}
		tp, err := optString(v, "type")
		if err != nil {
			return nil, err
		}
		// A link property keeps whatever direction it was given.
		if dir == "" && tp != PtrTypeProperty {
			dir = string(Outbound)
		}
		return &Ptr{Ptr: ref, Direction: PointerDirection(dir), Type: tp, Loc: loc}, nil
	case "Path":
		return decodePath(v)
	case "Shape":
		expr, err := optNode(v, "expr")
		if err != nil {
			return nil, err
		}
		elems, err := shapeElements(v, "elements")
		if err != nil {
			return nil, err
		}
		return &Shape{Expr: expr, Elements: elems, Loc: loc}, nil
	case "ShapeElement":
		return decodeShapeElement(v)
	case "SortExpr":
		return decodeSortExpr(v)
	case "AliasedExpr", "ModuleAliasDecl":
		return decodeAlias(v, kind)
	case "SelectQuery":
		q := &SelectQuery{Loc: loc}
		if q.Aliases, err = aliases(v); err != nil {
			return nil, err
		}
		if q.Result, err = requiredNode(v, "result"); err != nil {
			return nil, err
		}
		if q.ResultAlias, err = optString(v, "result_alias"); err != nil {
			return nil, err
		}
		if q.Where, err = optNode(v, "where"); err != nil {
			return nil, err
		}
		if q.OrderBy, err = sortExprs(v, "orderby"); err != nil {
			return nil, err
		}
		if q.Offset, err = optNode(v, "offset"); err != nil {
			return nil, err
		}
		if q.Limit, err = optNode(v, "limit"); err != nil {
			return nil, err
		}
		return q, nil
	case "InsertQuery":
		q := &InsertQuery{Loc: loc}
		if q.Aliases, err = aliases(v); err != nil {
			return nil, err
		}
		if q.Subject, err = requiredObjectRef(v, "subject"); err != nil {
			return nil, err
		}
		if q.Shape, err = shapeElements(v, "shape"); err != nil {
			return nil, err
		}
		return q, nil
	case "UpdateQuery":
		q := &UpdateQuery{Loc: loc}
		if q.Aliases, err = aliases(v); err != nil {
			return nil, err
		}
		if q.Subject, err = requiredNode(v, "subject"); err != nil {
			return nil, err
		}
		if q.Where, err = optNode(v, "where"); err != nil {
			return nil, err
		}
		if q.Shape, err = shapeElements(v, "shape"); err != nil {
			return nil, err
		}
		return q, nil
	case "DeleteQuery":
		q := &DeleteQuery{Loc: loc}
		if q.Aliases, err = aliases(v); err != nil {
			return nil, err
		}
		if q.Subject, err = requiredNode(v, "subject"); err != nil {
			return nil, err
		}
		if q.Where, err = optNode(v, "where"); err != nil {
			return nil, err
		}
		if q.OrderBy, err = sortExprs(v, "orderby"); err != nil {
			return nil, err
		}
		if q.Offset, err = optNode(v, "offset"); err != nil {
			return nil, err
		}
		if q.Limit, err = optNode(v, "limit"); err != nil {
			return nil, err
		}
		return q, nil
	case "ForQuery":
		q := &ForQuery{Loc: loc}
		if q.Aliases, err = aliases(v); err != nil {
			return nil, err
		}
		if q.Iterator, err = requiredNode(v, "iterator"); err != nil {
			return nil, err
		}
		if q.IteratorAlias, err = optString(v, "iterator_alias"); err != nil {
			return nil, err
		}
		if q.Result, err = requiredNode(v, "result"); err != nil {
			return nil, err
		}
		if q.ResultAlias, err = optString(v, "result_alias"); err != nil {
			return nil, err
		}
		return q, nil
	case "StringConstant":
		s, err := requiredString(v, "value")
		if err != nil {
			return nil, err
		}
		return &StringConstant{Value: s, Loc: loc}, nil
	case "IntegerConstant", "FloatConstant", "DecimalConstant", "BigintConstant":
		return decodeNumber(v, kind)
	case "BooleanConstant":
		b, err := optBool(v, "value")
		if err != nil {
			return nil, err
		}
		return &BooleanConstant{Value: b, Loc: loc}, nil
	case "FunctionCall":
		return decodeFunctionCall(v)
	case "BinOp":
		left, err := requiredNode(v, "left")
		if err != nil {
			return nil, err
		}
		right, err := requiredNode(v, "right")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(v, "op")
		if err != nil {
			return nil, err
		}
		rebalanced, err := optBool(v, "rebalanced")
		if err != nil {
			return nil, err
		}
		return &BinOp{Left: left, Op: op, Right: right, Rebalanced: rebalanced, Loc: loc}, nil
	case "UnaryOp":
		operand, err := requiredNode(v, "operand")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(v, "op")
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: op, Operand: operand, Loc: loc}, nil
	case "TypeName", "TypeOp":
		return decodeTypeExpr(v)
	case "TypeCast":
		tp, err := requiredTypeExpr(v, "type")
		if err != nil {
			return nil, err
		}
		expr, err := requiredNode(v, "expr")
		if err != nil {
			return nil, err
		}
		card, err := optString(v, "cardinality_mod")
		if err != nil {
			return nil, err
		}
		return &TypeCast{Type: tp, Expr: expr, CardinalityMod: card, Loc: loc}, nil
	case "Array":
		elems, err := nodeList(v, "elements")
		if err != nil {
			return nil, err
		}
		return &Array{Elements: elems, Loc: loc}, nil
	case "Set":
		elems, err := nodeList(v, "elements")
		if err != nil {
			return nil, err
		}
		return &Set{Elements: elems, Loc: loc}, nil
	case "Tuple":
		elems, err := nodeList(v, "elements")
		if err != nil {
			return nil, err
		}
		return &Tuple{Elements: elems, Loc: loc}, nil
	case "NamedTuple":
		return decodeNamedTuple(v)
	case "DetachedExpr":
		expr, err := requiredNode(v, "expr")
		if err != nil {
			return nil, err
		}
		preserve, err := optBool(v, "preserve_path_prefix")
		if err != nil {
			return nil, err
		}
		return &DetachedExpr{Expr: expr, PreservePathPrefix: preserve, Loc: loc}, nil
	default:
		return nil, &DecodeError{Field: "kind", Message: fmt.Sprintf("unknown node kind %q", kind), Context: loc.Context}
	}
}

func decodeObjectRef(v cue.Value) (*ObjectRef, error) {
	name, err := requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	module, err := optString(v, "module")
	if err != nil {
		return nil, err
	}
	itemclass, err := optString(v, "itemclass")
	if err != nil {
		return nil, err
	}
	return &ObjectRef{Name: name, Module: module, ItemClass: itemclass, Loc: ctxOf(v)}, nil
}

func decodePath(v cue.Value) (*Path, error) {
	steps, err := nodeList(v, "steps")
	if err != nil {
		return nil, err
	}
	partial, err := optBool(v, "partial")
	if err != nil {
		return nil, err
	}
	return &Path{Steps: steps, Partial: partial, Loc: ctxOf(v)}, nil
}

func decodeShapeElement(v cue.Value) (*ShapeElement, error) {
	el := &ShapeElement{Loc: ctxOf(v), Operation: ShapeOperation{Op: ShapeOpAssign}}
	exprVal, ok := lookup(v, "expr")
	if !ok {
		return nil, &DecodeError{Field: "expr", Message: "shape element path is required", Context: el.Context}
	}
	path, err := decodePath(exprVal)
	if err != nil {
		return nil, err
	}
	el.Expr = path
	if el.Elements, err = shapeElements(v, "elements"); err != nil {
		return nil, err
	}
	if el.Compexpr, err = optNode(v, "compexpr"); err != nil {
		return nil, err
	}
	if opVal, ok := lookup(v, "operation"); ok {
		op, err := optString(opVal, "op")
		if err != nil {
			return nil, err
		}
		if op != "" {
			el.Operation = ShapeOperation{Op: ShapeOp(op), Loc: ctxOf(opVal)}
		}
	}
	if el.Where, err = optNode(v, "where"); err != nil {
		return nil, err
	}
	if el.OrderBy, err = sortExprs(v, "orderby"); err != nil {
		return nil, err
	}
	return el, nil
}

func decodeSortExpr(v cue.Value) (*SortExpr, error) {
	path, err := requiredNode(v, "path")
	if err != nil {
		return nil, err
	}
	dir, err := optString(v, "direction")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = string(SortAsc)
	}
	nones, err := optString(v, "nones_order")
	if err != nil {
		return nil, err
	}
	return &SortExpr{Path: path, Direction: SortOrder(dir), NonesOrder: NonesOrder(nones), Loc: ctxOf(v)}, nil
}

func decodeAlias(v cue.Value, kind string) (Alias, error) {
	alias, err := optString(v, "alias")
	if err != nil {
		return nil, err
	}
	if kind == "ModuleAliasDecl" {
		module, err := requiredString(v, "module")
		if err != nil {
			return nil, err
		}
		return &ModuleAliasDecl{Alias: alias, Module: module, Loc: ctxOf(v)}, nil
	}
	expr, err := requiredNode(v, "expr")
	if err != nil {
		return nil, err
	}
	return &AliasedExpr{Alias: alias, Expr: expr, Loc: ctxOf(v)}, nil
}

func decodeNumber(v cue.Value, kind string) (Node, error) {
	text, err := requiredString(v, "value")
	if err != nil {
		return nil, err
	}
	neg, err := optBool(v, "is_negative")
	if err != nil {
		return nil, err
	}
	loc := ctxOf(v)
	switch kind {
	case "IntegerConstant":
		return &IntegerConstant{Value: text, IsNegative: neg, Loc: loc}, nil
	case "FloatConstant":
		return &FloatConstant{Value: text, IsNegative: neg, Loc: loc}, nil
	case "DecimalConstant":
		return &DecimalConstant{Value: text, IsNegative: neg, Loc: loc}, nil
	default:
		return &BigintConstant{Value: text, IsNegative: neg, Loc: loc}, nil
	}
}

func decodeFunctionCall(v cue.Value) (*FunctionCall, error) {
	call := &FunctionCall{Loc: ctxOf(v)}
	var err error
	if call.Func, err = requiredString(v, "func"); err != nil {
		return nil, err
	}
	if call.Module, err = optString(v, "module"); err != nil {
		return nil, err
	}
	if call.Args, err = nodeList(v, "args"); err != nil {
		return nil, err
	}
	if kwVal, ok := lookup(v, "kwargs"); ok {
		iter, err := kwVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			val, err := decodeNode(iter.Value())
			if err != nil {
				return nil, err
			}
			call.Kwargs = append(call.Kwargs, &KeywordArg{Name: iter.Selector().Unquoted(), Val: val, Loc: ctxOf(iter.Value())})
		}
	}
	if winVal, ok := lookup(v, "window"); ok {
		win := &WindowSpec{Loc: ctxOf(winVal)}
		if win.PartitionBy, err = nodeList(winVal, "partition"); err != nil {
			return nil, err
		}
		if win.OrderBy, err = sortExprs(winVal, "orderby"); err != nil {
			return nil, err
		}
		call.Window = win
	}
	return call, nil
}

func decodeTypeExpr(v cue.Value) (TypeExpr, error) {
	kindVal, ok := lookup(v, "kind")
	if !ok {
		return nil, &DecodeError{Field: "kind", Message: "type kind is required", Context: ContextFromPos(v.Pos())}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	switch kind {
	case "TypeName":
		tn := &TypeName{Loc: ctxOf(v)}
		if tn.Name, err = optString(v, "name"); err != nil {
			return nil, err
		}
		if tn.Maintype, err = requiredObjectRef(v, "maintype"); err != nil {
			return nil, err
		}
		if subVal, ok := lookup(v, "subtypes"); ok {
			iter, err := subVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				sub, err := decodeTypeExpr(iter.Value())
				if err != nil {
					return nil, err
				}
				tn.Subtypes = append(tn.Subtypes, sub)
			}
		}
		if dimVal, ok := lookup(v, "dimensions"); ok {
			iter, err := dimVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for iter.Next() {
				d, err := iter.Value().Int64()
				if err != nil {
					return nil, formatCUEError(err)
				}
				tn.Dimensions = append(tn.Dimensions, int(d))
			}
		}
		return tn, nil
	case "TypeOp":
		left, err := requiredTypeExpr(v, "left")
		if err != nil {
			return nil, err
		}
		right, err := requiredTypeExpr(v, "right")
		if err != nil {
			return nil, err
		}
		op, err := requiredString(v, "op")
		if err != nil {
			return nil, err
		}
		return &TypeOp{Left: left, Op: op, Right: right, Loc: ctxOf(v)}, nil
	default:
		return nil, &DecodeError{Field: "kind", Message: fmt.Sprintf("%q is not a type expression", kind), Context: ContextFromPos(v.Pos())}
	}
}

func decodeNamedTuple(v cue.Value) (*NamedTuple, error) {
	nt := &NamedTuple{Loc: ctxOf(v)}
	elemsVal, ok := lookup(v, "elements")
	if !ok {
		return nt, nil
	}
	iter, err := elemsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ev := iter.Value()
		name, err := requiredObjectRef(ev, "name")
		if err != nil {
			return nil, err
		}
		val, err := requiredNode(ev, "val")
		if err != nil {
			return nil, err
		}
		nt.Elements = append(nt.Elements, &TupleElement{Name: name, Val: val, Loc: ctxOf(ev)})
	}
	return nt, nil
}

func requiredNode(v cue.Value, name string) (Node, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, &DecodeError{Field: name, Message: "field is required", Context: ContextFromPos(v.Pos())}
	}
	return decodeNode(f)
}

func optNode(v cue.Value, name string) (Node, error) {
	f, ok := lookup(v, name)
	if !ok || f.IsNull() {
		return nil, nil
	}
	return decodeNode(f)
}

func requiredObjectRef(v cue.Value, name string) (*ObjectRef, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, &DecodeError{Field: name, Message: "object reference is required", Context: ContextFromPos(v.Pos())}
	}
	return decodeObjectRef(f)
}

func requiredTypeExpr(v cue.Value, name string) (TypeExpr, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, &DecodeError{Field: name, Message: "type expression is required", Context: ContextFromPos(v.Pos())}
	}
	return decodeTypeExpr(f)
}

func nodeList(v cue.Value, name string) ([]Node, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var nodes []Node
	for iter.Next() {
		n, err := decodeNode(iter.Value())
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func shapeElements(v cue.Value, name string) ([]*ShapeElement, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var elems []*ShapeElement
	for iter.Next() {
		el, err := decodeShapeElement(iter.Value())
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
	return elems, nil
}

func sortExprs(v cue.Value, name string) ([]*SortExpr, error) {
	f, ok := lookup(v, name)
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var sorts []*SortExpr
	for iter.Next() {
		s, err := decodeSortExpr(iter.Value())
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

func aliases(v cue.Value) ([]Alias, error) {
	f, ok := lookup(v, "aliases")
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Alias
	for iter.Next() {
		av := iter.Value()
		kind, err := requiredString(av, "kind")
		if err != nil {
			return nil, err
		}
		if kind != "AliasedExpr" && kind != "ModuleAliasDecl" {
			return nil, &DecodeError{Field: "aliases", Message: fmt.Sprintf("%q is not an alias declaration", kind), Context: ContextFromPos(av.Pos())}
		}
		a, err := decodeAlias(av, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func requiredString(v cue.Value, name string) (string, error) {
	f, ok := lookup(v, name)
	if !ok {
		return "", &DecodeError{Field: name, Message: "field is required", Context: ContextFromPos(v.Pos())}
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optString(v cue.Value, name string) (string, error) {
	f, ok := lookup(v, name)
	if !ok || f.IsNull() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optBool(v cue.Value, name string) (bool, error) {
	f, ok := lookup(v, name)
	if !ok || f.IsNull() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &DecodeError{Field: "cue", Message: first.Error(), Context: ContextFromPos(positions[0])}
	}
	return err
}
