package queryir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elabql/internal/ir"
)

func TestSelect_ImplementsQuery(t *testing.T) {
	var q Query = Select{From: "User"}

	switch q.(type) {
	case Select:
		// Expected
	default:
		t.Fatal("unexpected query type")
	}
}

func TestPredicate_SealedInterface(t *testing.T) {
	predicates := []Predicate{
		Compare{Field: "age", Op: OpGt, Value: ir.IRInt(18)},
		BoundCompare{Field: "name", Op: OpEq, BoundVar: "who"},
		And{Predicates: []Predicate{}},
		Or{Predicates: []Predicate{}},
	}

	for _, p := range predicates {
		switch p.(type) {
		case Compare, BoundCompare, And, Or:
			// OK
		default:
			t.Fatalf("unexpected predicate type %T", p)
		}
	}
}

func TestCompareOp_Flip(t *testing.T) {
	tests := []struct {
		op       CompareOp
		expected CompareOp
	}{
		{OpEq, OpEq},
		{OpNe, OpNe},
		{OpLt, OpGt},
		{OpLe, OpGe},
		{OpGt, OpLt},
		{OpGe, OpLe},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.op.flip())
			assert.Equal(t, tt.op, tt.op.flip().flip())
		})
	}
}

func TestColumnAndSortKey_JSON(t *testing.T) {
	data, err := json.Marshal([]Column{{Field: "name", As: "handle"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field":"name","as":"handle"}]`, string(data))

	data, err = json.Marshal([]SortKey{{Field: "name"}, {Field: "age", Desc: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field":"name"},{"field":"age","desc":true}]`, string(data))
}

func TestSelect_NilLimitIsUnbounded(t *testing.T) {
	sel := Select{From: "User", Offset: 10}

	assert.Nil(t, sel.Limit)
	assert.Nil(t, sel.Filter)
	assert.Empty(t, sel.OrderBy)
}
