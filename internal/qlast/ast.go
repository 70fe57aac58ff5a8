package qlast

// Node is any surface syntax tree node.
type Node interface {
	Ctx() Context
	qlNode()
}

// TypeExpr is a surface type expression: a *TypeName or a *TypeOp.
type TypeExpr interface {
	Node
	typeExpr()
}

// Alias is an entry of a `with` block: an *AliasedExpr or a *ModuleAliasDecl.
type Alias interface {
	Node
	aliasNode()
}

// PointerDirection is the direction of a path step.
type PointerDirection string

const (
	Outbound PointerDirection = ">"
	Inbound  PointerDirection = "<"
)

// PtrTypeProperty marks a link-property step (`@name`).
const PtrTypeProperty = "property"

// ShapeOp is the operation of a computed shape element.
type ShapeOp string

const (
	ShapeOpAssign   ShapeOp = ":="
	ShapeOpAppend   ShapeOp = "+="
	ShapeOpSubtract ShapeOp = "-="
)

// SortOrder is the direction of a sort key.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// NonesOrder places empty sort keys explicitly. Empty means unspecified.
type NonesOrder string

const (
	NonesFirst NonesOrder = "first"
	NonesLast  NonesOrder = "last"
)

type (
	// ObjectRef names an object, type or function, optionally module-qualified.
	ObjectRef struct {
		Name      string `json:"name"`
		Module    string `json:"module,omitempty"`
		ItemClass string `json:"itemclass,omitempty"`
		Loc
	}

	// Ptr is a pointer step of a path (`.name`, `.<name`, `@name`).
	Ptr struct {
		Ptr       *ObjectRef       `json:"ptr"`
		Direction PointerDirection `json:"direction"`
		Type      string           `json:"type,omitempty"`
		Loc
	}

	// Path is a chain of steps. Partial paths start with a leading dot.
	Path struct {
		Steps   []Node `json:"steps"`
		Partial bool   `json:"partial,omitempty"`
		Loc
	}

	// ShapeOperation wraps the operator of a computed shape element.
	ShapeOperation struct {
		Op ShapeOp `json:"op"`
		Loc
	}

	// ShapeElement is one entry of a shape: bare, nested or computed.
	ShapeElement struct {
		Expr      *Path           `json:"expr"`
		Elements  []*ShapeElement `json:"elements,omitempty"`
		Compexpr  Node            `json:"compexpr,omitempty"`
		Operation ShapeOperation  `json:"operation"`
		Where     Node            `json:"where,omitempty"`
		OrderBy   []*SortExpr     `json:"orderby,omitempty"`
		Loc
	}

	// Shape is an expression followed by a projection template.
	Shape struct {
		Expr     Node            `json:"expr,omitempty"`
		Elements []*ShapeElement `json:"elements"`
		Loc
	}

	SortExpr struct {
		Path       Node       `json:"path"`
		Direction  SortOrder  `json:"direction"`
		NonesOrder NonesOrder `json:"nones_order,omitempty"`
		Loc
	}

	AliasedExpr struct {
		Alias string `json:"alias"`
		Expr  Node   `json:"expr"`
		Loc
	}

	ModuleAliasDecl struct {
		Alias  string `json:"alias,omitempty"`
		Module string `json:"module"`
		Loc
	}

	SelectQuery struct {
		Aliases     []Alias     `json:"aliases,omitempty"`
		Result      Node        `json:"result"`
		ResultAlias string      `json:"result_alias,omitempty"`
		Where       Node        `json:"where,omitempty"`
		OrderBy     []*SortExpr `json:"orderby,omitempty"`
		Offset      Node        `json:"offset,omitempty"`
		Limit       Node        `json:"limit,omitempty"`
		Loc
	}

	InsertQuery struct {
		Aliases []Alias         `json:"aliases,omitempty"`
		Subject *ObjectRef      `json:"subject"`
		Shape   []*ShapeElement `json:"shape,omitempty"`
		Loc
	}

	UpdateQuery struct {
		Aliases []Alias         `json:"aliases,omitempty"`
		Subject Node            `json:"subject"`
		Where   Node            `json:"where,omitempty"`
		Shape   []*ShapeElement `json:"shape"`
		Loc
	}

	DeleteQuery struct {
		Aliases []Alias     `json:"aliases,omitempty"`
		Subject Node        `json:"subject"`
		Where   Node        `json:"where,omitempty"`
		OrderBy []*SortExpr `json:"orderby,omitempty"`
		Offset  Node        `json:"offset,omitempty"`
		Limit   Node        `json:"limit,omitempty"`
		Loc
	}

	ForQuery struct {
		Aliases       []Alias `json:"aliases,omitempty"`
		Iterator      Node    `json:"iterator"`
		IteratorAlias string  `json:"iterator_alias"`
		Result        Node    `json:"result"`
		ResultAlias   string  `json:"result_alias,omitempty"`
		Loc
	}

	StringConstant struct {
		Value string `json:"value"`
		Loc
	}

	// IntegerConstant keeps the literal text; the sign is carried separately.
	IntegerConstant struct {
		Value      string `json:"value"`
		IsNegative bool   `json:"is_negative,omitempty"`
		Loc
	}

	FloatConstant struct {
		Value      string `json:"value"`
		IsNegative bool   `json:"is_negative,omitempty"`
		Loc
	}

	// DecimalConstant is an arbitrary precision literal (`1.5n`).
	DecimalConstant struct {
		Value      string `json:"value"`
		IsNegative bool   `json:"is_negative,omitempty"`
		Loc
	}

	// BigintConstant is an arbitrary size integer literal (`5n`).
	BigintConstant struct {
		Value      string `json:"value"`
		IsNegative bool   `json:"is_negative,omitempty"`
		Loc
	}

	BooleanConstant struct {
		Value bool `json:"value"`
		Loc
	}

	KeywordArg struct {
		Name string `json:"name"`
		Val  Node   `json:"val"`
		Loc
	}

	WindowSpec struct {
		PartitionBy []Node      `json:"partition,omitempty"`
		OrderBy     []*SortExpr `json:"orderby,omitempty"`
		Loc
	}

	// FunctionCall calls Func, qualified by Module when it is non-empty.
	FunctionCall struct {
		Func   string        `json:"func"`
		Module string        `json:"module,omitempty"`
		Args   []Node        `json:"args,omitempty"`
		Kwargs []*KeywordArg `json:"kwargs,omitempty"`
		Window *WindowSpec   `json:"window,omitempty"`
		Loc
	}

	// BinOp is an infix operator application. Rebalanced is set by front ends
	// that rewrote operator associativity after parsing.
	BinOp struct {
		Left       Node   `json:"left"`
		Op         string `json:"op"`
		Right      Node   `json:"right"`
		Rebalanced bool   `json:"rebalanced,omitempty"`
		Loc
	}

	UnaryOp struct {
		Op      string `json:"op"`
		Operand Node   `json:"operand"`
		Loc
	}

	TypeName struct {
		Name       string     `json:"name,omitempty"`
		Maintype   *ObjectRef `json:"maintype"`
		Subtypes   []TypeExpr `json:"subtypes,omitempty"`
		Dimensions []int      `json:"dimensions,omitempty"`
		Loc
	}

	TypeOp struct {
		Left  TypeExpr `json:"left"`
		Op    string   `json:"op"`
		Right TypeExpr `json:"right"`
		Loc
	}

	TypeCast struct {
		Type           TypeExpr `json:"type"`
		Expr           Node     `json:"expr"`
		CardinalityMod string   `json:"cardinality_mod,omitempty"`
		Loc
	}

	Array struct {
		Elements []Node `json:"elements"`
		Loc
	}

	Set struct {
		Elements []Node `json:"elements"`
		Loc
	}

	Tuple struct {
		Elements []Node `json:"elements"`
		Loc
	}

	TupleElement struct {
		Name *ObjectRef `json:"name"`
		Val  Node       `json:"val"`
		Loc
	}

	NamedTuple struct {
		Elements []*TupleElement `json:"elements"`
		Loc
	}

	DetachedExpr struct {
		Expr               Node `json:"expr"`
		PreservePathPrefix bool `json:"preserve_path_prefix,omitempty"`
		Loc
	}
)

func (*ObjectRef) qlNode()       {}
func (*Ptr) qlNode()             {}
func (*Path) qlNode()            {}
func (*ShapeOperation) qlNode()  {}
func (*ShapeElement) qlNode()    {}
func (*Shape) qlNode()           {}
func (*SortExpr) qlNode()        {}
func (*AliasedExpr) qlNode()     {}
func (*ModuleAliasDecl) qlNode() {}
func (*SelectQuery) qlNode()     {}
func (*InsertQuery) qlNode()     {}
func (*UpdateQuery) qlNode()     {}
func (*DeleteQuery) qlNode()     {}
func (*ForQuery) qlNode()        {}
func (*StringConstant) qlNode()  {}
func (*IntegerConstant) qlNode() {}
func (*FloatConstant) qlNode()   {}
func (*DecimalConstant) qlNode() {}
func (*BigintConstant) qlNode()  {}
func (*BooleanConstant) qlNode() {}
func (*KeywordArg) qlNode()      {}
func (*WindowSpec) qlNode()      {}
func (*FunctionCall) qlNode()    {}
func (*BinOp) qlNode()           {}
func (*UnaryOp) qlNode()         {}
func (*TypeName) qlNode()        {}
func (*TypeOp) qlNode()          {}
func (*TypeCast) qlNode()        {}
func (*Array) qlNode()           {}
func (*Set) qlNode()             {}
func (*Tuple) qlNode()           {}
func (*TupleElement) qlNode()    {}
func (*NamedTuple) qlNode()      {}
func (*DetachedExpr) qlNode()    {}

func (*TypeName) typeExpr() {}
func (*TypeOp) typeExpr()   {}

func (*AliasedExpr) aliasNode()     {}
func (*ModuleAliasDecl) aliasNode() {}

// KindOf returns the node's kind name as used in syntax-tree documents.
func KindOf(n Node) string {
	switch n.(type) {
	case *ObjectRef:
		return "ObjectRef"
	case *Ptr:
		return "Ptr"
	case *Path:
		return "Path"
	case *ShapeOperation:
		return "ShapeOperation"
	case *ShapeElement:
		return "ShapeElement"
	case *Shape:
		return "Shape"
	case *SortExpr:
		return "SortExpr"
	case *AliasedExpr:
		return "AliasedExpr"
	case *ModuleAliasDecl:
		return "ModuleAliasDecl"
	case *SelectQuery:
		return "SelectQuery"
	case *InsertQuery:
		return "InsertQuery"
	case *UpdateQuery:
		return "UpdateQuery"
	case *DeleteQuery:
		return "DeleteQuery"
	case *ForQuery:
		return "ForQuery"
	case *StringConstant:
		return "StringConstant"
	case *IntegerConstant:
		return "IntegerConstant"
	case *FloatConstant:
		return "FloatConstant"
	case *DecimalConstant:
		return "DecimalConstant"
	case *BigintConstant:
		return "BigintConstant"
	case *BooleanConstant:
		return "BooleanConstant"
	case *KeywordArg:
		return "KeywordArg"
	case *WindowSpec:
		return "WindowSpec"
	case *FunctionCall:
		return "FunctionCall"
	case *BinOp:
		return "BinOp"
	case *UnaryOp:
		return "UnaryOp"
	case *TypeName:
		return "TypeName"
	case *TypeOp:
		return "TypeOp"
	case *TypeCast:
		return "TypeCast"
	case *Array:
		return "Array"
	case *Set:
		return "Set"
	case *Tuple:
		return "Tuple"
	case *TupleElement:
		return "TupleElement"
	case *NamedTuple:
		return "NamedTuple"
	case *DetachedExpr:
		return "DetachedExpr"
	default:
		return "unknown"
	}
}
