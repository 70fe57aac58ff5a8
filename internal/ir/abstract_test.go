package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fv(name string) FreeVarExpr { return FreeVarExpr{Name: name} }
func bv(i int) BoundVarExpr     { return BoundVarExpr{Index: i} }

func TestAbstractOver(t *testing.T) {
	tests := []struct {
		name     string
		input    Expr
		expected Expr
	}{
		{
			name:     "bare variable",
			input:    fv("x"),
			expected: bv(1),
		},
		{
			name:     "other name untouched",
			input:    fv("y"),
			expected: fv("y"),
		},
		{
			name:     "projection",
			input:    ObjectProjExpr{Subject: fv("x"), Label: "name"},
			expected: ObjectProjExpr{Subject: bv(1), Label: "name"},
		},
		{
			name: "under a binder the index grows",
			input: ForExpr{
				Bound: fv("x"),
				Next:  BindingExpr{Body: UnnamedTupleExpr{Elems: []Expr{fv("x"), bv(1)}}},
			},
			expected: ForExpr{
				Bound: bv(1),
				Next:  BindingExpr{Body: UnnamedTupleExpr{Elems: []Expr{bv(2), bv(1)}}},
			},
		},
		{
			name:     "outward bound variables shift",
			input:    BindingExpr{Body: FunAppExpr{Fun: "=", Args: []Expr{bv(1), bv(2)}}},
			expected: BindingExpr{Body: FunAppExpr{Fun: "=", Args: []Expr{bv(1), bv(3)}}},
		},
		{
			name: "shape fields are binders",
			input: ShapedExprExpr{
				Expr: fv("x"),
				Shape: ShapeExpr{Fields: []ShapeField{
					{Label: StrLabel{Name: "a"}, Body: BindingExpr{Body: ObjectProjExpr{Subject: fv("x"), Label: "a"}}},
				}},
			},
			expected: ShapedExprExpr{
				Expr: bv(1),
				Shape: ShapeExpr{Fields: []ShapeField{
					{Label: StrLabel{Name: "a"}, Body: BindingExpr{Body: ObjectProjExpr{Subject: bv(2), Label: "a"}}},
				}},
			},
		},
		{
			name:     "literals unchanged",
			input:    UnnamedTupleExpr{Elems: []Expr{StrVal{Val: "x"}, IntInfVal{}, BoolVal{Val: false}}},
			expected: UnnamedTupleExpr{Elems: []Expr{StrVal{Val: "x"}, IntInfVal{}, BoolVal{Val: false}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AbstractOver(tt.input, "x")
			assert.Equal(t, BindingExpr{Body: tt.expected}, got)
		})
	}
}

func TestAbstractOverDoesNotMutate(t *testing.T) {
	args := []Expr{fv("x"), fv("y")}
	input := FunAppExpr{Fun: "++", Args: args}

	_ = AbstractOver(input, "x")

	assert.Equal(t, fv("x"), args[0])
	assert.Equal(t, FunAppExpr{Fun: "++", Args: []Expr{fv("x"), fv("y")}}, input)
}

func TestAbstractOverCountsOccurrences(t *testing.T) {
	input := UnionExpr{
		Left: ObjectProjExpr{Subject: fv("n"), Label: "a"},
		Right: WithExpr{
			Bound: fv("n"),
			Next:  BindingExpr{Body: ArrayExpr{Elems: []Expr{fv("n"), bv(1)}}},
		},
	}

	b := AbstractOver(input, "n")

	assert.Equal(t, 3, CountBound(b))
	assert.NotContains(t, FreeVars(b), "n")
	assert.Empty(t, Dangling(b))
}

func TestInstantiateInvertsAbstractOver(t *testing.T) {
	inputs := []Expr{
		fv("x"),
		ObjectProjExpr{Subject: fv("x"), Label: "a"},
		BindingExpr{Body: FunAppExpr{Fun: "=", Args: []Expr{bv(1), bv(2), fv("x")}}},
		FilterOrderExpr{
			Subject: fv("User"),
			Filter:  BindingExpr{Body: FunAppExpr{Fun: "=", Args: []Expr{ObjectProjExpr{Subject: bv(1), Label: "name"}, fv("x")}}},
			Order:   Constant(Unit()),
		},
	}

	for _, e := range inputs {
		t.Run(Format(e), func(t *testing.T) {
			got := Instantiate(AbstractOver(e, "x"), fv("x"))
			assert.Equal(t, e, got)
		})
	}
}

func TestInstantiateShiftsArgument(t *testing.T) {
	// \( \(#2) ) applied to #1 must still point at the outer #1.
	b := BindingExpr{Body: BindingExpr{Body: bv(2)}}

	got := Instantiate(b, bv(1))

	assert.Equal(t, BindingExpr{Body: bv(2)}, got)
}

func TestFreeVarsSortedDistinct(t *testing.T) {
	e := UnnamedTupleExpr{Elems: []Expr{fv("b"), fv("a"), fv("b"), bv(1)}}
	assert.Equal(t, []string{"a", "b"}, FreeVars(e))
}

func TestDangling(t *testing.T) {
	e := WithExpr{Bound: bv(1), Next: BindingExpr{Body: bv(3)}}

	got := Dangling(e)

	require.Len(t, got, 2)
	assert.Equal(t, DanglingVar{Index: 1, Depth: 0}, got[0])
	assert.Equal(t, DanglingVar{Index: 3, Depth: 1}, got[1])
}

func TestConstantIgnoresArgument(t *testing.T) {
	c := Constant(BoolVal{Val: true})
	assert.Equal(t, 0, CountBound(c))
	assert.Equal(t, BoolVal{Val: true}, Instantiate(c, fv("anything")))
}

func TestNilSlicesPreserved(t *testing.T) {
	e := FunAppExpr{Fun: "count"}
	got := AbstractOver(e, "x")
	assert.Nil(t, got.Body.(FunAppExpr).Args)
}
