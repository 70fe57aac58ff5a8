package ir

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	dec, _, err := apd.NewFromString("-1.50")
	require.NoError(t, err)
	big, ok := new(apd.BigInt).SetString("123", 10)
	require.True(t, ok)
	one := 1

	tests := []struct {
		name     string
		input    Expr
		expected string
	}{
		{"free", fv("User"), "User"},
		{"bound", bv(2), "#2"},
		{"projections", LinkPropProjExpr{Subject: ObjectProjExpr{Subject: fv("U"), Label: "friends"}, Label: "since"}, "U.friends@since"},
		{"binder", BindingExpr{Body: bv(1)}, `\(#1)`},
		{"string", StrVal{Val: `a"b`}, `"a\"b"`},
		{"ints", UnnamedTupleExpr{Elems: []Expr{IntVal{Val: -5}, IntInfVal{}}}, "(-5, inf)"},
		{"unit", Unit(), "()"},
		{"singleton tuple", UnnamedTupleExpr{Elems: []Expr{BoolVal{Val: true}}}, "(true,)"},
		{"float keeps point", FloatVal{Val: 2}, "2.0"},
		{"float", FloatVal{Val: 1.25}, "1.25"},
		{"decimal", DecimalVal{Val: dec}, "-1.50n"},
		{"bigint", BigIntVal{Val: big}, "123n"},
		{"call", FunAppExpr{Fun: "+", Args: []Expr{IntVal{Val: 1}, IntVal{Val: 2}}}, "+(1, 2)"},
		{"resolved overload", FunAppExpr{Fun: "len", OverloadingIndex: &one, Args: []Expr{StrVal{Val: "x"}}}, `len[1]("x")`},
		{"array and set", ArrayExpr{Elems: []Expr{MultiSetExpr{Elems: []Expr{IntVal{Val: 1}}}}}, "[set{1}]"},
		{"named tuple", NamedTupleExpr{Fields: []NamedTupleField{{Name: "a", Expr: IntVal{Val: 1}}}}, "(a := 1)"},
		{"cast", TypeCastExpr{Tp: ArrayTp{Elem: UnionTp{Left: StrTp{}, Right: VarTp{Name: "Foo"}}}, Arg: fv("x")}, "<array<(str | Foo)>>(x)"},
		{"detached", DetachedExpr{Expr: fv("User")}, "detached(User)"},
		{
			"shaped",
			ShapedExprExpr{Expr: fv("User"), Shape: ShapeExpr{Fields: []ShapeField{
				{Label: StrLabel{Name: "name"}, Body: BindingExpr{Body: ObjectProjExpr{Subject: bv(1), Label: "name"}}},
				{Label: LinkPropLabel{Name: "since"}, Body: BindingExpr{Body: LinkPropProjExpr{Subject: bv(1), Label: "since"}}},
			}}},
			`shaped(User, {name: \(#1.name), @since: \(#1@since)})`,
		},
		{
			"insert",
			InsertExpr{Name: "User", New: ObjectExpr{Fields: []ObjectField{{Label: StrLabel{Name: "name"}, Expr: BindingExpr{Body: StrVal{Val: "a"}}}}}},
			`insert(User, object{name := \("a")})`,
		},
		{
			"with",
			WithExpr{Bound: IntVal{Val: 1}, Next: BindingExpr{Body: UnionExpr{Left: bv(1), Right: bv(1)}}},
			`with(1, \(union(#1, #1)))`,
		},
		{
			"offset limit",
			OffsetLimitExpr{Subject: fv("User"), Offset: IntVal{Val: 0}, Limit: IntInfVal{}},
			"offset_limit(User, 0, inf)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.input))
		})
	}
}

func TestFormatTp(t *testing.T) {
	assert.Equal(t, "datetime", FormatTp(DateTimeTp{}))
	assert.Equal(t, "json", FormatTp(JsonTp{}))
}
