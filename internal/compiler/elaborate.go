package compiler

import (
	"go.uber.org/zap"

	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
)

// Elaborator converts surface syntax trees into core IR.
//
// An Elaborator holds no per-query state and is safe for concurrent use.
// Every method is a pure function of its input tree; the logger only
// receives diagnostics for unsupported constructs.
type Elaborator struct {
	logger *zap.Logger
}

// Option configures an Elaborator.
type Option func(*Elaborator)

// WithLogger sets the logger used for unsupported-construct diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(el *Elaborator) {
		if logger != nil {
			el.logger = logger
		}
	}
}

// New creates an Elaborator. Without WithLogger it logs nothing.
func New(opts ...Option) *Elaborator {
	el := &Elaborator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

var defaultElaborator = New()

// Elaborate converts node with a default, silent Elaborator.
func Elaborate(node qlast.Node) (ir.Expr, error) {
	return defaultElaborator.Elaborate(node)
}

// Elaborate converts one surface node, and everything below it, into a core
// expression.
//
// Unsupported constructs fail with *NotImplementedError, invalid programs
// with *QueryError and trees no front end should produce with
// *MalformedTreeError. There are no partial results.
func (el *Elaborator) Elaborate(node qlast.Node) (ir.Expr, error) {
	switch n := node.(type) {
	case nil:
		return nil, malformed(nil, "missing expression")
	case *qlast.Path:
		return el.elaboratePath(n)
	case *qlast.Shape:
		return el.elaborateShaped(n)
	case *qlast.StringConstant:
		return ir.StrVal{Val: n.Value}, nil
	case *qlast.IntegerConstant:
		return elaborateInteger(n)
	case *qlast.FloatConstant:
		return elaborateFloat(n)
	case *qlast.DecimalConstant:
		return elaborateDecimal(n)
	case *qlast.BigintConstant:
		return elaborateBigint(n)
	case *qlast.BooleanConstant:
		return ir.BoolVal{Val: n.Value}, nil
	case *qlast.FunctionCall:
		return el.elaborateFunctionCall(n)
	case *qlast.BinOp:
		return el.elaborateBinOp(n)
	case *qlast.TypeCast:
		return el.elaborateTypeCast(n)
	case *qlast.Array:
		elems, err := el.elaborateList(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.ArrayExpr{Elems: elems}, nil
	case *qlast.Tuple:
		elems, err := el.elaborateList(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.UnnamedTupleExpr{Elems: elems}, nil
	case *qlast.NamedTuple:
		return el.elaborateNamedTuple(n)
	case *qlast.Set:
		elems, err := el.elaborateList(n.Elements)
		if err != nil {
			return nil, err
		}
		return ir.MultiSetExpr{Elems: elems}, nil
	case *qlast.DetachedExpr:
		if n.PreservePathPrefix {
			return nil, el.notImplemented(n, "preserved path prefix")
		}
		inner, err := el.Elaborate(n.Expr)
		if err != nil {
			return nil, err
		}
		return ir.DetachedExpr{Expr: inner}, nil
	case *qlast.SelectQuery:
		return el.elaborateSelect(n)
	case *qlast.InsertQuery:
		return el.elaborateInsert(n)
	case *qlast.UpdateQuery:
		return el.elaborateUpdate(n)
	case *qlast.ForQuery:
		return el.elaborateFor(n)
	default:
		return nil, el.notImplemented(node, "")
	}
}

// elaborateList elaborates each node in order. The result is never nil.
func (el *Elaborator) elaborateList(nodes []qlast.Node) ([]ir.Expr, error) {
	out := make([]ir.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := el.Elaborate(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (el *Elaborator) elaborateFunctionCall(call *qlast.FunctionCall) (ir.Expr, error) {
	if call.Window != nil {
		return nil, el.notImplemented(call, "window functions")
	}
	if len(call.Kwargs) > 0 {
		return nil, el.notImplemented(call, "keyword arguments")
	}
	if call.Module != "" || call.Func == "" {
		return nil, el.notImplemented(call, "qualified function name")
	}
	args, err := el.elaborateList(call.Args)
	if err != nil {
		return nil, err
	}
	return ir.FunAppExpr{Fun: call.Func, Args: args}, nil
}

func (el *Elaborator) elaborateBinOp(op *qlast.BinOp) (ir.Expr, error) {
	if op.Rebalanced {
		return nil, el.notImplemented(op, "rebalanced operator")
	}
	left, err := el.Elaborate(op.Left)
	if err != nil {
		return nil, err
	}
	right, err := el.Elaborate(op.Right)
	if err != nil {
		return nil, err
	}
	if op.Op == "UNION" {
		return ir.UnionExpr{Left: left, Right: right}, nil
	}
	return ir.FunAppExpr{Fun: op.Op, Args: []ir.Expr{left, right}}, nil
}

func (el *Elaborator) elaborateTypeCast(cast *qlast.TypeCast) (ir.Expr, error) {
	if cast.CardinalityMod != "" {
		return nil, el.notImplemented(cast, "cardinality modifier")
	}
	name, ok := cast.Type.(*qlast.TypeName)
	if !ok {
		return nil, el.notImplemented(cast, "cast to a compound type")
	}
	tp, err := el.elaborateTypeName(name)
	if err != nil {
		return nil, err
	}
	arg, err := el.Elaborate(cast.Expr)
	if err != nil {
		return nil, err
	}
	return ir.TypeCastExpr{Tp: tp, Arg: arg}, nil
}

func (el *Elaborator) elaborateNamedTuple(tup *qlast.NamedTuple) (ir.Expr, error) {
	fields := make([]ir.NamedTupleField, 0, len(tup.Elements))
	seen := make(map[string]bool, len(tup.Elements))
	for _, elem := range tup.Elements {
		if elem.Name == nil {
			return nil, malformed(elem, "named tuple element without a name")
		}
		if elem.Name.Module != "" || elem.Name.ItemClass != "" {
			return nil, queryError(ErrQualifiedTupleField, tup.Ctx(),
				"named tuple field %q must not be qualified", elem.Name.Name)
		}
		if seen[elem.Name.Name] {
			return nil, queryError(ErrDuplicateTupleField, elem.Ctx(),
				"duplicate named tuple field %q", elem.Name.Name)
		}
		seen[elem.Name.Name] = true
		val, err := el.Elaborate(elem.Val)
		if err != nil {
			return nil, err
		}
		fields = append(fields, ir.NamedTupleField{Name: elem.Name.Name, Expr: val})
	}
	return ir.NamedTupleExpr{Fields: fields}, nil
}

// notImplemented logs a dump of node and returns the matching error.
func (el *Elaborator) notImplemented(node qlast.Node, msg string) error {
	if ce := el.logger.Check(zap.DebugLevel, "construct not implemented"); ce != nil {
		ce.Write(
			zap.String("kind", qlast.KindOf(node)),
			zap.String("context", node.Ctx().String()),
			zap.String("hint", msg),
			zap.String("node", qlast.Dump(node)),
		)
	}
	return &NotImplementedError{Node: node, Message: msg}
}
