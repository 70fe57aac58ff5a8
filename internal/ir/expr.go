package ir

import "github.com/cockroachdb/apd/v3"

// HeadName is the reserved free-variable name for the implicit subject of a
// partial path (`.name`). It is abstracted away before any binder leaves the
// elaborator.
const HeadName = "__no_clash_head_subject__"

// Expr is a sealed interface over every core expression variant.
type Expr interface {
	coreExpr()
}

// Label identifies one shape or object field.
// Labels are comparable with == by (variant, name).
type Label interface {
	LabelName() string
	label()
}

// StrLabel is an ordinary property or link name.
type StrLabel struct {
	Name string
}

// LinkPropLabel is a link-property name (`@name`).
type LinkPropLabel struct {
	Name string
}

func (l StrLabel) LabelName() string      { return l.Name }
func (l LinkPropLabel) LabelName() string { return l.Name }
func (StrLabel) label()                   {}
func (LinkPropLabel) label()              {}

type (
	// FreeVarExpr references a name not bound inside the expression.
	FreeVarExpr struct {
		Name string
	}

	// BoundVarExpr references an enclosing binder. Index 1 is the nearest.
	BoundVarExpr struct {
		Index int
	}

	ObjectProjExpr struct {
		Subject Expr
		Label   string
	}

	LinkPropProjExpr struct {
		Subject Expr
		Label   string
	}

	// BindingExpr introduces one variable visible in Body as BoundVarExpr{1}.
	BindingExpr struct {
		Body Expr
	}

	ShapeField struct {
		Label Label
		Body  BindingExpr
	}

	// ShapeExpr maps labels to field computations over the current object.
	ShapeExpr struct {
		Fields []ShapeField
	}

	ShapedExprExpr struct {
		Expr  Expr
		Shape ShapeExpr
	}

	ObjectField struct {
		Label Label
		Expr  Expr
	}

	// ObjectExpr is an object literal. Insert payloads use it.
	ObjectExpr struct {
		Fields []ObjectField
	}

	// FilterOrderExpr keeps the elements of Subject satisfying Filter, ordered
	// by the tuple computed by Order. Both binders range over one element.
	FilterOrderExpr struct {
		Subject Expr
		Filter  BindingExpr
		Order   BindingExpr
	}

	OffsetLimitExpr struct {
		Subject Expr
		Offset  Expr
		Limit   Expr
	}

	// InsertExpr creates an object of type Name from New.
	InsertExpr struct {
		Name string
		New  Expr
	}

	UpdateExpr struct {
		Subject Expr
		Shape   ShapeExpr
	}

	// ForExpr evaluates Next once per element of Bound.
	ForExpr struct {
		Bound Expr
		Next  BindingExpr
	}

	// WithExpr binds Bound for the scope of Next.
	WithExpr struct {
		Bound Expr
		Next  BindingExpr
	}

	// FunAppExpr applies a function or operator by name. OverloadingIndex is
	// nil until the type checker resolves it.
	FunAppExpr struct {
		Fun              string
		OverloadingIndex *int
		Args             []Expr
	}

	UnionExpr struct {
		Left  Expr
		Right Expr
	}

	ArrayExpr struct {
		Elems []Expr
	}

	NamedTupleField struct {
		Name string
		Expr Expr
	}

	NamedTupleExpr struct {
		Fields []NamedTupleField
	}

	UnnamedTupleExpr struct {
		Elems []Expr
	}

	TypeCastExpr struct {
		Tp  Tp
		Arg Expr
	}

	MultiSetExpr struct {
		Elems []Expr
	}

	DetachedExpr struct {
		Expr Expr
	}

	StrVal struct {
		Val string
	}

	IntVal struct {
		Val int64
	}

	// IntInfVal is the unbounded limit.
	IntInfVal struct{}

	BoolVal struct {
		Val bool
	}

	FloatVal struct {
		Val float64
	}

	// DecimalVal is an arbitrary precision decimal (`1.5n`).
	DecimalVal struct {
		Val *apd.Decimal
	}

	// BigIntVal is an arbitrary size integer (`5n`).
	BigIntVal struct {
		Val *apd.BigInt
	}
)

func (FreeVarExpr) coreExpr()      {}
func (BoundVarExpr) coreExpr()     {}
func (ObjectProjExpr) coreExpr()   {}
func (LinkPropProjExpr) coreExpr() {}
func (BindingExpr) coreExpr()      {}
func (ShapeExpr) coreExpr()        {}
func (ShapedExprExpr) coreExpr()   {}
func (ObjectExpr) coreExpr()       {}
func (FilterOrderExpr) coreExpr()  {}
func (OffsetLimitExpr) coreExpr()  {}
func (InsertExpr) coreExpr()       {}
func (UpdateExpr) coreExpr()       {}
func (ForExpr) coreExpr()          {}
func (WithExpr) coreExpr()         {}
func (FunAppExpr) coreExpr()       {}
func (UnionExpr) coreExpr()        {}
func (ArrayExpr) coreExpr()        {}
func (NamedTupleExpr) coreExpr()   {}
func (UnnamedTupleExpr) coreExpr() {}
func (TypeCastExpr) coreExpr()     {}
func (MultiSetExpr) coreExpr()     {}
func (DetachedExpr) coreExpr()     {}
func (StrVal) coreExpr()           {}
func (IntVal) coreExpr()           {}
func (IntInfVal) coreExpr()        {}
func (BoolVal) coreExpr()          {}
func (FloatVal) coreExpr()         {}
func (DecimalVal) coreExpr()       {}
func (BigIntVal) coreExpr()        {}

// Unit is the empty tuple.
func Unit() UnnamedTupleExpr {
	return UnnamedTupleExpr{Elems: []Expr{}}
}

// Tp is a sealed interface over core type terms.
type Tp interface {
	coreTp()
}

type (
	StrTp      struct{}
	DateTimeTp struct{}
	JsonTp     struct{}

	// VarTp is a type name left for the type checker to resolve.
	VarTp struct {
		Name string
	}

	ArrayTp struct {
		Elem Tp
	}

	UnionTp struct {
		Left  Tp
		Right Tp
	}
)

func (StrTp) coreTp()      {}
func (DateTimeTp) coreTp() {}
func (JsonTp) coreTp()     {}
func (VarTp) coreTp()      {}
func (ArrayTp) coreTp()    {}
func (UnionTp) coreTp()    {}

// Field returns the binder for label, if present.
func (s ShapeExpr) Field(l Label) (BindingExpr, bool) {
	for _, f := range s.Fields {
		if f.Label == l {
			return f.Body, true
		}
	}
	return BindingExpr{}, false
}

// Field returns the value for label, if present.
func (o ObjectExpr) Field(l Label) (Expr, bool) {
	for _, f := range o.Fields {
		if f.Label == l {
			return f.Expr, true
		}
	}
	return nil, false
}
