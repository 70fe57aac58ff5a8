package qlast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, src string) Node {
	t.Helper()
	n, err := DecodeBytes("test.cue", []byte(src))
	require.NoError(t, err)
	return n
}

func TestDecodeSelect(t *testing.T) {
	n := decodeString(t, `
kind: "SelectQuery"
result: {kind: "Path", steps: [{kind: "ObjectRef", name: "User"}]}
where: {kind: "BooleanConstant", value: true}
orderby: [{kind: "SortExpr", path: {kind: "Path", partial: true, steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "name"}}]}}]
limit: {kind: "IntegerConstant", value: "10"}
`)

	q, ok := n.(*SelectQuery)
	require.True(t, ok, "got %T", n)

	result := q.Result.(*Path)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, "User", result.Steps[0].(*ObjectRef).Name)

	assert.Equal(t, true, q.Where.(*BooleanConstant).Value)
	assert.Equal(t, "10", q.Limit.(*IntegerConstant).Value)
	assert.Nil(t, q.Offset)

	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, SortAsc, q.OrderBy[0].Direction, "direction defaults to ascending")
	key := q.OrderBy[0].Path.(*Path)
	assert.True(t, key.Partial)
	assert.Equal(t, Outbound, key.Steps[0].(*Ptr).Direction)
}

func TestDecodeContext(t *testing.T) {
	n := decodeString(t, `kind: "SelectQuery"
result: {kind: "Path", steps: [{kind: "ObjectRef", name: "User"}]}
where: {kind: "BooleanConstant", value: true}
`)

	where := n.(*SelectQuery).Where
	ctx := where.Ctx()
	require.True(t, ctx.IsValid())
	assert.Equal(t, "test.cue", ctx.Filename)
	assert.Equal(t, 3, ctx.Line)
}

func TestDecodePtrDirection(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		direction PointerDirection
		typ       string
	}{
		{"defaults to outbound", `{kind: "Ptr", ptr: {kind: "ObjectRef", name: "a"}}`, Outbound, ""},
		{"inbound", `{kind: "Ptr", ptr: {kind: "ObjectRef", name: "a"}, direction: "<"}`, Inbound, ""},
		{"link property has none", `{kind: "Ptr", ptr: {kind: "ObjectRef", name: "a"}, type: "property"}`, "", PtrTypeProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := decodeString(t, tt.src).(*Ptr)
			assert.Equal(t, tt.direction, p.Direction)
			assert.Equal(t, tt.typ, p.Type)
			assert.Equal(t, "a", p.Ptr.Name)
		})
	}
}

func TestDecodeShape(t *testing.T) {
	n := decodeString(t, `
kind: "Shape"
expr: {kind: "Path", steps: [{kind: "ObjectRef", name: "User"}]}
elements: [
	{kind: "ShapeElement", expr: {kind: "Path", steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "name"}}]}},
	{
		kind: "ShapeElement"
		expr: {kind: "Path", steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "n"}}]}
		compexpr: {kind: "IntegerConstant", value: "1"}
		operation: {op: "+="}
	},
	{
		kind: "ShapeElement"
		expr: {kind: "Path", steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "friends"}}]}
		elements: [{kind: "ShapeElement", expr: {kind: "Path", steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "name"}}]}}]
	},
]
`)

	s := n.(*Shape)
	require.Len(t, s.Elements, 3)
	assert.Equal(t, ShapeOpAssign, s.Elements[0].Operation.Op, "operation defaults to assignment")
	assert.Nil(t, s.Elements[0].Compexpr)
	assert.Equal(t, ShapeOpAppend, s.Elements[1].Operation.Op)
	assert.Equal(t, "1", s.Elements[1].Compexpr.(*IntegerConstant).Value)
	require.Len(t, s.Elements[2].Elements, 1)
}

func TestDecodeFunctionCall(t *testing.T) {
	n := decodeString(t, `
kind: "FunctionCall"
func: "sum"
args: [{kind: "IntegerConstant", value: "1"}, {kind: "FloatConstant", value: "2.5", is_negative: true}]
kwargs: {start: {kind: "BigintConstant", value: "5n"}}
window: {partition: [{kind: "StringConstant", value: "x"}]}
`)

	call := n.(*FunctionCall)
	assert.Equal(t, "sum", call.Func)
	require.Len(t, call.Args, 2)
	assert.True(t, call.Args[1].(*FloatConstant).IsNegative)

	require.Len(t, call.Kwargs, 1)
	assert.Equal(t, "start", call.Kwargs[0].Name)
	assert.Equal(t, "5n", call.Kwargs[0].Val.(*BigintConstant).Value)

	require.NotNil(t, call.Window)
	assert.Len(t, call.Window.PartitionBy, 1)
}

func TestDecodeTypes(t *testing.T) {
	n := decodeString(t, `
kind: "TypeCast"
type: {
	kind: "TypeOp"
	op: "|"
	left: {kind: "TypeName", maintype: {kind: "ObjectRef", name: "str", module: "std"}}
	right: {kind: "TypeName", maintype: {kind: "ObjectRef", name: "array"}, subtypes: [{kind: "TypeName", maintype: {kind: "ObjectRef", name: "json"}}], dimensions: [2]}
}
expr: {kind: "StringConstant", value: "x"}
`)

	cast := n.(*TypeCast)
	op := cast.Type.(*TypeOp)
	assert.Equal(t, "|", op.Op)
	assert.Equal(t, "std", op.Left.(*TypeName).Maintype.Module)

	arr := op.Right.(*TypeName)
	require.Len(t, arr.Subtypes, 1)
	assert.Equal(t, "json", arr.Subtypes[0].(*TypeName).Maintype.Name)
	assert.Equal(t, []int{2}, arr.Dimensions)
}

func TestDecodeQueries(t *testing.T) {
	n := decodeString(t, `
kind: "ForQuery"
aliases: [
	{kind: "AliasedExpr", alias: "y", expr: {kind: "IntegerConstant", value: "2"}},
	{kind: "ModuleAliasDecl", module: "default"},
]
iterator: {kind: "Set", elements: [{kind: "IntegerConstant", value: "1"}]}
iterator_alias: "x"
result: {
	kind: "InsertQuery"
	subject: {kind: "ObjectRef", name: "User"}
	shape: [{kind: "ShapeElement", expr: {kind: "Path", steps: [{kind: "Ptr", ptr: {kind: "ObjectRef", name: "n"}}]}, compexpr: {kind: "Path", steps: [{kind: "ObjectRef", name: "x"}]}}]
}
`)

	q := n.(*ForQuery)
	assert.Equal(t, "x", q.IteratorAlias)
	require.Len(t, q.Aliases, 2)
	assert.Equal(t, "y", q.Aliases[0].(*AliasedExpr).Alias)
	assert.Equal(t, "default", q.Aliases[1].(*ModuleAliasDecl).Module)

	ins := q.Result.(*InsertQuery)
	assert.Equal(t, "User", ins.Subject.Name)
	require.Len(t, ins.Shape, 1)
}

func TestDecodeNamedTuple(t *testing.T) {
	n := decodeString(t, `
kind: "NamedTuple"
elements: [{name: {kind: "ObjectRef", name: "a"}, val: {kind: "BooleanConstant", value: false}}]
`)

	nt := n.(*NamedTuple)
	require.Len(t, nt.Elements, 1)
	assert.Equal(t, "a", nt.Elements[0].Name.Name)
	assert.False(t, nt.Elements[0].Val.(*BooleanConstant).Value)
}

func TestDecodeJSON(t *testing.T) {
	n, err := DecodeBytes("tree.json", []byte(`{"kind": "UnaryOp", "op": "-", "operand": {"kind": "IntegerConstant", "value": "3"}}`))
	require.NoError(t, err)
	op := n.(*UnaryOp)
	assert.Equal(t, "-", op.Op)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing kind", `name: "x"`, "kind"},
		{"unknown kind", `kind: "Frobnicate"`, "kind"},
		{"missing required field", `kind: "BinOp", op: "+", left: {kind: "IntegerConstant", value: "1"}`, "right"},
		{"type expected", `kind: "TypeCast", type: {kind: "StringConstant", value: "x"}, expr: {kind: "StringConstant", value: "x"}`, "kind"},
		{"bad alias", `kind: "SelectQuery", result: {kind: "StringConstant", value: "x"}, aliases: [{kind: "StringConstant", value: "x"}]`, "aliases"},
		{"shape element without path", `kind: "Shape", elements: [{kind: "ShapeElement"}]`, "expr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes("bad.cue", []byte(tt.src))
			require.Error(t, err)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDecodeInvalidCUE(t *testing.T) {
	_, err := DecodeBytes("bad.cue", []byte(`kind: "Path"`+"\n"+`steps: [`))
	require.Error(t, err)

	_, err = DecodeBytes("bad.cue", []byte(`kind: "StringConstant", value: 5`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.cue")
	require.NoError(t, os.WriteFile(path, []byte(`kind: "StringConstant", value: "hi"`), 0o644))

	n, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hi", n.(*StringConstant).Value)

	_, err = LoadFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestContextString(t *testing.T) {
	assert.Equal(t, "-", Context{}.String())
	assert.Equal(t, "3:7", Context{Line: 3, Column: 7}.String())
	assert.Equal(t, "q.edgeql:3:7", Context{Filename: "q.edgeql", Line: 3, Column: 7}.String())
}

func TestKindOfAndDump(t *testing.T) {
	n := &BinOp{Left: &StringConstant{Value: "a"}, Op: "++", Right: &StringConstant{Value: "b"}}
	assert.Equal(t, "BinOp", KindOf(n))
	assert.Equal(t, "unknown", KindOf(nil))
	assert.Contains(t, Dump(n), `"++"`)
}
