package qlparse

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/elabql/internal/qlast"
)

func loc(p lexer.Position) qlast.Loc {
	return qlast.Loc{Context: contextOf(p)}
}

func contextOf(p lexer.Position) qlast.Context {
	return qlast.Context{Filename: p.Filename, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

// keywordOp normalizes keyword operators to the spelling front ends emit.
func keywordOp(op string) string {
	return strings.ToUpper(op)
}

func convertExpr(e *rawExpr) (qlast.Node, error) {
	switch {
	case e == nil:
		return nil, nil
	case e.Query != nil:
		return convertQuery(e.Query)
	case e.Union != nil:
		return convertUnion(e.Union)
	default:
		return nil, errorAt(e.Pos, "empty expression")
	}
}

func convertQuery(q *rawQuery) (qlast.Node, error) {
	aliases, err := convertAliases(q.Aliases)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Select != nil:
		return convertSelect(q.Select, aliases)
	case q.Insert != nil:
		return convertInsert(q.Insert, aliases)
	case q.Update != nil:
		return convertUpdate(q.Update, aliases)
	case q.Delete != nil:
		return convertDelete(q.Delete, aliases)
	case q.For != nil:
		return convertFor(q.For, aliases)
	default:
		return nil, errorAt(q.Pos, "expected a statement")
	}
}

func convertAliases(raw []*rawAlias) ([]qlast.Alias, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]qlast.Alias, 0, len(raw))
	for _, a := range raw {
		if a.Module != "" {
			out = append(out, &qlast.ModuleAliasDecl{Module: a.Module, Loc: loc(a.Pos)})
			continue
		}
		expr, err := convertExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, &qlast.AliasedExpr{Alias: a.Name, Expr: expr, Loc: loc(a.Pos)})
	}
	return out, nil
}

func convertSelect(s *rawSelect, aliases []qlast.Alias) (*qlast.SelectQuery, error) {
	q := &qlast.SelectQuery{Aliases: aliases, Loc: loc(s.Pos)}
	var err error
	if q.Result, err = convertExpr(s.Result); err != nil {
		return nil, err
	}
	if q.Where, err = convertOr(s.Filter); err != nil {
		return nil, err
	}
	if q.OrderBy, err = convertOrderBy(s.OrderBy); err != nil {
		return nil, err
	}
	if q.Offset, err = convertOr(s.Offset); err != nil {
		return nil, err
	}
	if q.Limit, err = convertOr(s.Limit); err != nil {
		return nil, err
	}
	return q, nil
}

func convertOrderBy(o *rawOrderBy) ([]*qlast.SortExpr, error) {
	if o == nil {
		return nil, nil
	}
	out := make([]*qlast.SortExpr, 0, len(o.Keys))
	for _, k := range o.Keys {
		key, err := convertOr(k.Key)
		if err != nil {
			return nil, err
		}
		dir := qlast.SortAsc
		if strings.EqualFold(k.Direction, "desc") {
			dir = qlast.SortDesc
		}
		out = append(out, &qlast.SortExpr{
			Path:       key,
			Direction:  dir,
			NonesOrder: qlast.NonesOrder(strings.ToLower(k.Nones)),
			Loc:        loc(k.Pos),
		})
	}
	return out, nil
}

func convertInsert(s *rawInsert, aliases []qlast.Alias) (*qlast.InsertQuery, error) {
	shape, err := convertShape(s.Shape)
	if err != nil {
		return nil, err
	}
	return &qlast.InsertQuery{
		Aliases: aliases,
		Subject: &qlast.ObjectRef{Name: s.Name, Module: s.Module, Loc: loc(s.Pos)},
		Shape:   shape,
		Loc:     loc(s.Pos),
	}, nil
}

func convertUpdate(s *rawUpdate, aliases []qlast.Alias) (*qlast.UpdateQuery, error) {
	q := &qlast.UpdateQuery{Aliases: aliases, Loc: loc(s.Pos)}
	var err error
	if q.Subject, err = convertOr(s.Subject); err != nil {
		return nil, err
	}
	if q.Where, err = convertOr(s.Filter); err != nil {
		return nil, err
	}
	if q.Shape, err = convertShape(s.Shape); err != nil {
		return nil, err
	}
	return q, nil
}

func convertDelete(s *rawDelete, aliases []qlast.Alias) (*qlast.DeleteQuery, error) {
	q := &qlast.DeleteQuery{Aliases: aliases, Loc: loc(s.Pos)}
	var err error
	if q.Subject, err = convertOr(s.Subject); err != nil {
		return nil, err
	}
	if q.Where, err = convertOr(s.Filter); err != nil {
		return nil, err
	}
	if q.OrderBy, err = convertOrderBy(s.OrderBy); err != nil {
		return nil, err
	}
	if q.Offset, err = convertOr(s.Offset); err != nil {
		return nil, err
	}
	if q.Limit, err = convertOr(s.Limit); err != nil {
		return nil, err
	}
	return q, nil
}

func convertFor(s *rawFor, aliases []qlast.Alias) (*qlast.ForQuery, error) {
	iter, err := convertOr(s.Iterator)
	if err != nil {
		return nil, err
	}
	result, err := convertExpr(s.Result)
	if err != nil {
		return nil, err
	}
	return &qlast.ForQuery{
		Aliases:       aliases,
		Iterator:      iter,
		IteratorAlias: s.Alias,
		Result:        result,
		Loc:           loc(s.Pos),
	}, nil
}

func binOp(pos lexer.Position, left qlast.Node, op string, right qlast.Node) *qlast.BinOp {
	return &qlast.BinOp{Left: left, Op: op, Right: right, Loc: loc(pos)}
}

func convertUnion(u *rawUnion) (qlast.Node, error) {
	acc, err := convertOr(u.Left)
	if err != nil {
		return nil, err
	}
	for _, arm := range u.Right {
		right, err := convertOr(arm.Right)
		if err != nil {
			return nil, err
		}
		acc = binOp(u.Pos, acc, keywordOp(arm.Op), right)
	}
	return acc, nil
}

func convertOr(o *rawOr) (qlast.Node, error) {
	if o == nil {
		return nil, nil
	}
	acc, err := convertAnd(o.Left)
	if err != nil {
		return nil, err
	}
	for _, arm := range o.Right {
		right, err := convertAnd(arm.Right)
		if err != nil {
			return nil, err
		}
		acc = binOp(o.Pos, acc, keywordOp(arm.Op), right)
	}
	return acc, nil
}

func convertAnd(a *rawAnd) (qlast.Node, error) {
	acc, err := convertNot(a.Left)
	if err != nil {
		return nil, err
	}
	for _, arm := range a.Right {
		right, err := convertNot(arm.Right)
		if err != nil {
			return nil, err
		}
		acc = binOp(a.Pos, acc, keywordOp(arm.Op), right)
	}
	return acc, nil
}

func convertNot(n *rawNot) (qlast.Node, error) {
	operand, err := convertCmp(n.Operand)
	if err != nil {
		return nil, err
	}
	for range n.Nots {
		operand = &qlast.UnaryOp{Op: "NOT", Operand: operand, Loc: loc(n.Pos)}
	}
	return operand, nil
}

func convertCmp(c *rawCmp) (qlast.Node, error) {
	left, err := convertAdd(c.Left)
	if err != nil {
		return nil, err
	}
	if c.Op == "" {
		return left, nil
	}
	right, err := convertAdd(c.Right)
	if err != nil {
		return nil, err
	}
	op := c.Op
	if isWord(op) {
		op = keywordOp(op)
	}
	return binOp(c.Pos, left, op, right), nil
}

func convertAdd(a *rawAdd) (qlast.Node, error) {
	acc, err := convertMul(a.Left)
	if err != nil {
		return nil, err
	}
	for _, arm := range a.Right {
		right, err := convertMul(arm.Right)
		if err != nil {
			return nil, err
		}
		acc = binOp(a.Pos, acc, arm.Op, right)
	}
	return acc, nil
}

func convertMul(m *rawMul) (qlast.Node, error) {
	acc, err := convertUnary(m.Left)
	if err != nil {
		return nil, err
	}
	for _, arm := range m.Right {
		right, err := convertUnary(arm.Right)
		if err != nil {
			return nil, err
		}
		acc = binOp(m.Pos, acc, arm.Op, right)
	}
	return acc, nil
}

// convertUnary folds a minus directly in front of a numeric literal into
// the literal's sign, the way the EdgeQL grammar does.
func convertUnary(u *rawUnary) (qlast.Node, error) {
	operand, err := convertPostfix(u.Operand)
	if err != nil {
		return nil, err
	}
	ops := u.Ops
	if n := len(ops); n > 0 && ops[n-1] == "-" && negate(operand) {
		ops = ops[:n-1]
	}
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if isWord(op) {
			op = keywordOp(op)
		}
		operand = &qlast.UnaryOp{Op: op, Operand: operand, Loc: loc(u.Pos)}
	}
	return operand, nil
}

// negate flips the sign of an unsigned numeric literal in place.
func negate(n qlast.Node) bool {
	switch c := n.(type) {
	case *qlast.IntegerConstant:
		if !c.IsNegative {
			c.IsNegative = true
			return true
		}
	case *qlast.FloatConstant:
		if !c.IsNegative {
			c.IsNegative = true
			return true
		}
	case *qlast.DecimalConstant:
		if !c.IsNegative {
			c.IsNegative = true
			return true
		}
	case *qlast.BigintConstant:
		if !c.IsNegative {
			c.IsNegative = true
			return true
		}
	}
	return false
}

func isWord(op string) bool {
	return op != "" && (op[0] >= 'a' && op[0] <= 'z' || op[0] >= 'A' && op[0] <= 'Z')
}

func convertPostfix(p *rawPostfix) (qlast.Node, error) {
	var (
		expr qlast.Node
		err  error
	)
	if len(p.Primary.Partial) > 0 {
		expr = &qlast.Path{Partial: true, Steps: convertSteps(append(p.Primary.Partial, p.Steps...)), Loc: loc(p.Pos)}
	} else {
		if expr, err = convertPrimary(p.Primary); err != nil {
			return nil, err
		}
		if ref, ok := expr.(*qlast.ObjectRef); ok {
			expr = &qlast.Path{Steps: append([]qlast.Node{ref}, convertSteps(p.Steps)...), Loc: loc(p.Pos)}
		} else if len(p.Steps) > 0 {
			expr = &qlast.Path{Steps: append([]qlast.Node{expr}, convertSteps(p.Steps)...), Loc: loc(p.Pos)}
		}
	}
	if p.Shape == nil {
		return expr, nil
	}
	elems, err := convertShape(p.Shape)
	if err != nil {
		return nil, err
	}
	return &qlast.Shape{Expr: expr, Elements: elems, Loc: loc(p.Shape.Pos)}, nil
}

func convertSteps(raw []*rawStep) []qlast.Node {
	steps := make([]qlast.Node, 0, len(raw))
	for _, s := range raw {
		steps = append(steps, convertStep(s))
	}
	return steps
}

func convertStep(s *rawStep) *qlast.Ptr {
	ref := func(name string) *qlast.ObjectRef {
		return &qlast.ObjectRef{Name: name, Loc: loc(s.Pos)}
	}
	switch {
	case s.Inbound != "":
		return &qlast.Ptr{Ptr: ref(s.Inbound), Direction: qlast.Inbound, Loc: loc(s.Pos)}
	case s.LinkProp != "":
		return &qlast.Ptr{Ptr: ref(s.LinkProp), Direction: qlast.Outbound, Type: qlast.PtrTypeProperty, Loc: loc(s.Pos)}
	default:
		return &qlast.Ptr{Ptr: ref(s.Outbound), Direction: qlast.Outbound, Loc: loc(s.Pos)}
	}
}

func convertPrimary(p *rawPrimary) (qlast.Node, error) {
	l := loc(p.Pos)
	switch {
	case p.Cast != nil:
		tp, err := convertType(p.Cast.Type)
		if err != nil {
			return nil, err
		}
		operand, err := convertUnary(p.Cast.Operand)
		if err != nil {
			return nil, err
		}
		return &qlast.TypeCast{Type: tp, Expr: operand, Loc: l}, nil
	case p.Detached != nil:
		expr, err := convertPostfix(p.Detached)
		if err != nil {
			return nil, err
		}
		return &qlast.DetachedExpr{Expr: expr, Loc: l}, nil
	case p.Str != nil:
		s, err := unquote(*p.Str)
		if err != nil {
			return nil, errorAt(p.Pos, err.Error())
		}
		return &qlast.StringConstant{Value: s, Loc: l}, nil
	case p.Number != nil:
		return numberConstant(*p.Number, l), nil
	case p.Bool != nil:
		return &qlast.BooleanConstant{Value: strings.EqualFold(*p.Bool, "true"), Loc: l}, nil
	case p.Paren != nil:
		return convertParen(p.Paren)
	case p.Array != nil:
		elems, err := convertList(p.Array.Elements)
		if err != nil {
			return nil, err
		}
		return &qlast.Array{Elements: elems, Loc: l}, nil
	case p.Set != nil:
		elems, err := convertList(p.Set.Elements)
		if err != nil {
			return nil, err
		}
		return &qlast.Set{Elements: elems, Loc: l}, nil
	case p.Shape != nil:
		elems, err := convertShape(p.Shape)
		if err != nil {
			return nil, err
		}
		return &qlast.Shape{Elements: elems, Loc: l}, nil
	case p.Call != nil:
		return convertCall(p.Call)
	case p.Ref != nil:
		return &qlast.ObjectRef{Name: p.Ref.Name, Module: p.Ref.Module, Loc: l}, nil
	default:
		return nil, errorAt(p.Pos, "expected an expression")
	}
}

// numberConstant classifies a numeric token by its suffix and shape.
func numberConstant(text string, l qlast.Loc) qlast.Node {
	fractional := strings.ContainsAny(text, ".eE")
	switch {
	case strings.HasSuffix(text, "n") && fractional:
		return &qlast.DecimalConstant{Value: text, Loc: l}
	case strings.HasSuffix(text, "n"):
		return &qlast.BigintConstant{Value: text, Loc: l}
	case fractional:
		return &qlast.FloatConstant{Value: text, Loc: l}
	default:
		return &qlast.IntegerConstant{Value: text, Loc: l}
	}
}

func convertParen(p *rawParen) (qlast.Node, error) {
	l := loc(p.Pos)
	switch {
	case len(p.Named) > 0:
		nt := &qlast.NamedTuple{Loc: l}
		for _, el := range p.Named {
			val, err := convertExpr(el.Value)
			if err != nil {
				return nil, err
			}
			nt.Elements = append(nt.Elements, &qlast.TupleElement{
				Name: &qlast.ObjectRef{Name: el.Name, Loc: loc(el.Pos)},
				Val:  val,
				Loc:  loc(el.Pos),
			})
		}
		return nt, nil
	case p.Unit:
		return &qlast.Tuple{Elements: []qlast.Node{}, Loc: l}, nil
	}

	first, err := convertExpr(p.First)
	if err != nil {
		return nil, err
	}
	if len(p.Rest) == 0 {
		return first, nil
	}
	elems := []qlast.Node{first}
	for i, arm := range p.Rest {
		if arm.Expr == nil {
			if i != len(p.Rest)-1 {
				return nil, errorAt(arm.Pos, "unexpected \",\"")
			}
			break
		}
		e, err := convertExpr(arm.Expr)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &qlast.Tuple{Elements: elems, Loc: l}, nil
}

func convertList(raw []*rawExpr) ([]qlast.Node, error) {
	out := make([]qlast.Node, 0, len(raw))
	for _, r := range raw {
		e, err := convertExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func convertCall(c *rawCall) (*qlast.FunctionCall, error) {
	call := &qlast.FunctionCall{Func: c.Name, Module: c.Module, Loc: loc(c.Pos)}
	for _, a := range c.Args {
		val, err := convertExpr(a.Value)
		if err != nil {
			return nil, err
		}
		if a.Name != "" {
			call.Kwargs = append(call.Kwargs, &qlast.KeywordArg{Name: a.Name, Val: val, Loc: loc(a.Pos)})
			continue
		}
		call.Args = append(call.Args, val)
	}
	return call, nil
}

func convertShape(s *rawShape) ([]*qlast.ShapeElement, error) {
	if s == nil {
		return nil, nil
	}
	out := make([]*qlast.ShapeElement, 0, len(s.Elements))
	for _, el := range s.Elements {
		se, err := convertShapeElement(el)
		if err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	return out, nil
}

func convertShapeElement(el *rawShapeElement) (*qlast.ShapeElement, error) {
	// A link-property label has no direction; only path steps do.
	label := convertStep(&rawStep{Pos: el.Pos, Outbound: el.Name})
	if el.LinkProp {
		label = &qlast.Ptr{Ptr: label.Ptr, Type: qlast.PtrTypeProperty, Loc: label.Loc}
	}
	se := &qlast.ShapeElement{
		Expr:      &qlast.Path{Steps: []qlast.Node{label}, Loc: loc(el.Pos)},
		Operation: qlast.ShapeOperation{Op: qlast.ShapeOpAssign},
		Loc:       loc(el.Pos),
	}
	var err error
	if el.Computed != nil {
		se.Operation = qlast.ShapeOperation{Op: qlast.ShapeOp(el.Computed.Op), Loc: loc(el.Computed.Pos)}
		if se.Compexpr, err = convertExpr(el.Computed.Expr); err != nil {
			return nil, err
		}
	}
	if el.Nested != nil {
		if se.Elements, err = convertShape(el.Nested); err != nil {
			return nil, err
		}
	}
	if se.Where, err = convertOr(el.Filter); err != nil {
		return nil, err
	}
	if se.OrderBy, err = convertOrderBy(el.OrderBy); err != nil {
		return nil, err
	}
	return se, nil
}

func convertType(t *rawType) (qlast.TypeExpr, error) {
	acc, err := convertTypeName(t.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range t.Right {
		right, err := convertTypeName(r)
		if err != nil {
			return nil, err
		}
		acc = &qlast.TypeOp{Left: acc, Op: "|", Right: right, Loc: loc(t.Pos)}
	}
	return acc, nil
}

func convertTypeName(t *rawTypeName) (qlast.TypeExpr, error) {
	tn := &qlast.TypeName{
		Maintype: &qlast.ObjectRef{Name: t.Name, Module: t.Module, Loc: loc(t.Pos)},
		Loc:      loc(t.Pos),
	}
	for _, sub := range t.Subtypes {
		st, err := convertType(sub)
		if err != nil {
			return nil, err
		}
		tn.Subtypes = append(tn.Subtypes, st)
	}
	return tn, nil
}
