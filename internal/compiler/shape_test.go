package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
	tu "github.com/roach88/elabql/internal/testutil"
)

func TestElaborateLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    *qlast.Path
		expected ir.Label
	}{
		{"outbound pointer", tu.Label("name"), ir.StrLabel{Name: "name"}},
		{"link property", tu.Label("@since"), ir.LinkPropLabel{Name: "since"}},
		{
			"outbound check runs first",
			&qlast.Path{Steps: []qlast.Node{&qlast.Ptr{Ptr: &qlast.ObjectRef{Name: "x"}, Direction: qlast.Outbound, Type: qlast.PtrTypeProperty}}},
			ir.StrLabel{Name: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ElaborateLabel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestElaborateLabelRejects(t *testing.T) {
	inputs := map[string]*qlast.Path{
		"two steps":  {Steps: []qlast.Node{tu.Ptr("a"), tu.Ptr("b")}},
		"object ref": tu.Path("User"),
		"inbound":    {Steps: []qlast.Node{&qlast.Ptr{Ptr: &qlast.ObjectRef{Name: "a"}, Direction: qlast.Inbound}}},
		"no steps":   {},
	}
	for name, p := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ElaborateLabel(p)
			assert.True(t, IsNotImplemented(err))
		})
	}
}

func TestElaborateShapeElements(t *testing.T) {
	el := New()

	shape, err := el.ElaborateShape([]*qlast.ShapeElement{
		tu.Field("name"),
		tu.Field("@since"),
		tu.Computed("upper", tu.Call("str_upper", tu.PartialPath("name"))),
		tu.Nested("friends", tu.Field("name")),
	})
	require.NoError(t, err)

	expected := ir.ShapeExpr{Fields: []ir.ShapeField{
		{Label: ir.StrLabel{Name: "name"}, Body: ir.BindingExpr{Body: proj(b1(), "name")}},
		{Label: ir.LinkPropLabel{Name: "since"}, Body: ir.BindingExpr{Body: ir.LinkPropProjExpr{Subject: b1(), Label: "since"}}},
		{Label: ir.StrLabel{Name: "upper"}, Body: ir.BindingExpr{Body: ir.FunAppExpr{Fun: "str_upper", Args: []ir.Expr{proj(b1(), "name")}}}},
		{Label: ir.StrLabel{Name: "friends"}, Body: ir.BindingExpr{Body: ir.ShapedExprExpr{
			Expr: proj(b1(), "friends"),
			Shape: ir.ShapeExpr{Fields: []ir.ShapeField{
				{Label: ir.StrLabel{Name: "name"}, Body: ir.BindingExpr{Body: proj(b1(), "name")}},
			}},
		}}},
	}}
	assert.Equal(t, expected, shape)
}

func TestElaborateShapeComputedKeepsOuterVariables(t *testing.T) {
	// `x := .a ++ y` inside a shape: the head becomes #1, y stays free.
	shape, err := New().ElaborateShape([]*qlast.ShapeElement{
		tu.Computed("x", tu.Op(tu.PartialPath("a"), "++", tu.Path("y"))),
	})
	require.NoError(t, err)

	body := shape.Fields[0].Body
	assert.Equal(t, 1, ir.CountBound(body))
	assert.Equal(t, []string{"y"}, ir.FreeVars(body))
}

func TestElaborateShapeUniqueness(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		ok     bool
	}{
		{"distinct", []string{"a", "b", "c"}, true},
		{"property and link property differ", []string{"a", "@a"}, true},
		{"adjacent repeat", []string{"a", "a"}, false},
		{"distant repeat", []string{"a", "b", "c", "a"}, false},
		{"link property repeat", []string{"@a", "b", "@a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems := make([]*qlast.ShapeElement, len(tt.labels))
			for i, l := range tt.labels {
				elems[i] = tu.Field(l)
			}

			shape, err := New().ElaborateShape(elems)
			if tt.ok {
				require.NoError(t, err)
				assert.Len(t, shape.Fields, len(tt.labels))
				return
			}
			require.Error(t, err)
			assert.True(t, IsQueryError(err), "duplicate labels are a program error")
			assert.Equal(t, ErrDuplicateShapeLabel, ErrorCode(err))
		})
	}
}

func TestElaborateShapeDuplicateReportsFirstRepeat(t *testing.T) {
	second := tu.Field("a")
	second.Context = qlast.Context{Line: 2, Column: 5}
	third := tu.Field("b")
	third.Context = qlast.Context{Line: 3, Column: 5}

	_, err := New().ElaborateShape([]*qlast.ShapeElement{
		tu.Field("a"), tu.Field("b"), second, third,
	})

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 2, qe.Context.Line)
	assert.Contains(t, qe.Message, `"a"`)
}

func TestElaborateShapeElementRejects(t *testing.T) {
	withWhere := tu.Field("a")
	withWhere.Where = tu.Bool(true)

	withOrder := tu.Field("a")
	withOrder.OrderBy = []*qlast.SortExpr{tu.Asc(tu.PartialPath("a"))}

	appendOp := tu.Computed("a", tu.Int("1"))
	appendOp.Operation = qlast.ShapeOperation{Op: qlast.ShapeOpAppend}

	subtractOp := tu.Computed("a", tu.Int("1"))
	subtractOp.Operation = qlast.ShapeOperation{Op: qlast.ShapeOpSubtract}

	nestedLinkProp := tu.Nested("@a", tu.Field("b"))

	for i, se := range []*qlast.ShapeElement{withWhere, withOrder, appendOp, subtractOp, nestedLinkProp} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := New().ElaborateShape([]*qlast.ShapeElement{se})
			require.Error(t, err)
			assert.True(t, IsNotImplemented(err))
		})
	}
}

func TestElaborateShapedExpr(t *testing.T) {
	got := mustElaborate(t, &qlast.Shape{Expr: tu.Path("User"), Elements: []*qlast.ShapeElement{tu.Field("name")}})
	assert.Equal(t, ir.ShapedExprExpr{
		Expr: ir.FreeVarExpr{Name: "User"},
		Shape: ir.ShapeExpr{Fields: []ir.ShapeField{
			{Label: ir.StrLabel{Name: "name"}, Body: ir.BindingExpr{Body: proj(b1(), "name")}},
		}},
	}, got)

	free := mustElaborate(t, &qlast.Shape{Elements: []*qlast.ShapeElement{tu.Computed("a", tu.Int("1"))}})
	require.IsType(t, ir.ShapedExprExpr{}, free)
	assert.Equal(t, ir.ObjectExpr{Fields: []ir.ObjectField{}}, free.(ir.ShapedExprExpr).Expr)
}
