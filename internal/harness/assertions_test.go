package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: "a", Seq: 2, Outcome: OutcomeOK, Core: "User"},
		{Step: "b", Seq: 3, Outcome: OutcomeOK, Core: "User"},
		{Step: "c", Seq: 4, Outcome: OutcomeOK, Core: "Group"},
		{Step: "d", Seq: 5, Outcome: OutcomeError, Code: "E202"},
		{Step: "e", Seq: 6, Outcome: OutcomeError, Code: "PARSE_ERROR"},
	}
}

func TestAssertSameCore(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertSameCore(trace, Assertion{Type: AssertSameCore, Steps: []string{"a", "b"}}))

	err := assertSameCore(trace, Assertion{Type: AssertSameCore, Steps: []string{"a", "c"}})
	require.Error(t, err)
	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertSameCore, assertErr.Type)
	assert.Equal(t, "User vs Group", assertErr.Actual)
}

func TestAssertSameCore_FailedStep(t *testing.T) {
	err := assertSameCore(sampleTrace(), Assertion{Type: AssertSameCore, Steps: []string{"a", "d"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step d to elaborate")
	assert.Contains(t, err.Error(), "E202")
}

func TestAssertSameCore_MissingStep(t *testing.T) {
	err := assertSameCore(sampleTrace(), Assertion{Type: AssertSameCore, Steps: []string{"a", "zz"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")
}

func TestAssertDistinctCore(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertDistinctCore(trace, Assertion{Type: AssertDistinctCore, Steps: []string{"a", "c"}}))

	err := assertDistinctCore(trace, Assertion{Type: AssertDistinctCore, Steps: []string{"c", "a", "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a and b to elaborate to different cores")
	assert.Contains(t, err.Error(), "both elaborate to User")
}

func TestAssertOutcomeCount(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   bool
	}{
		{"ok count", Assertion{Outcome: OutcomeOK, Count: 3}, false},
		{"error count", Assertion{Outcome: OutcomeError, Count: 2}, false},
		{"by code", Assertion{Outcome: OutcomeError, Code: "E202", Count: 1}, false},
		{"absent code", Assertion{Outcome: OutcomeError, Code: "E201", Count: 0}, false},
		{"wrong count", Assertion{Outcome: OutcomeOK, Count: 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion.Type = AssertOutcomeCount
			err := assertOutcomeCount(trace, tt.assertion)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Expected: 4 steps with outcome ok")
				assert.Contains(t, err.Error(), "Actual: 3 steps")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: "x",
		Actual:   "y",
		Trace:    sampleTrace()[3:4],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: outcome_count")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[5] d error E202")
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]interface{}{"name": "a", "seq": 2})
	require.NoError(t, err)
	assert.Equal(t, "name = ? AND seq = ?", sql)
	assert.Equal(t, []interface{}{"a", 2}, args)

	sql, args, err = buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)

	_, _, err = buildWhereClause(map[string]interface{}{"name; DROP TABLE runs": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "a=1 AND b=x", formatWhereClause(map[string]interface{}{"b": "x", "a": 1}))
}

func TestColumnValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"string", "ok", "ok", true},
		{"bytes as string", "ok", []byte("ok"), true},
		{"int vs int64", 2, int64(2), true},
		{"int mismatch", 2, int64(3), false},
		{"bool from integer", true, int64(1), true},
		{"false from integer", false, int64(0), true},
		{"both nil", nil, nil, true},
		{"nil vs value", nil, "x", false},
		{"type mismatch", "2", int64(2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnValuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestToSQLValue(t *testing.T) {
	assert.Equal(t, int64(3), toSQLValue(float64(3)))
	assert.Equal(t, 2.5, toSQLValue(2.5))
	assert.Equal(t, "x", toSQLValue("x"))
	assert.Equal(t, "[1 2]", toSQLValue([]int{1, 2}))
}

func TestEvaluateAssertions_Recorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "recorded",
		Description: "assertions over the log",
		RunID:       "run-rec",
		Steps: []Step{
			{Name: "good", Query: "select User filter .age > 21"},
			{Name: "bad", Query: "select User { name, name }"},
		},
		Assertions: []Assertion{
			{
				Type:   AssertRecorded,
				Table:  "elaborations",
				Where:  map[string]interface{}{"name": "bad"},
				Expect: map[string]interface{}{"outcome": "error", "error_code": "E202", "run_id": "run-rec"},
			},
			{
				Type:   AssertRecorded,
				Table:  "elaborations",
				Where:  map[string]interface{}{"name": "good"},
				Expect: map[string]interface{}{"plan_sql": `SELECT * FROM "User" WHERE "age" > ? ORDER BY "id" COLLATE BINARY ASC`},
			},
			{
				Type:   AssertRecorded,
				Table:  "runs",
				Where:  map[string]interface{}{"id": "run-rec"},
				Expect: map[string]interface{}{"label": "recorded", "seq": 1},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestEvaluateAssertions_RecordedFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "recorded_failures",
		Description: "failing log assertions",
		Steps: []Step{
			{Name: "a", Query: "select User"},
			{Name: "b", Query: "select Group"},
		},
		Assertions: []Assertion{
			{Type: AssertRecorded, Table: "elaborations", Where: map[string]interface{}{"name": "zz"}, Expect: map[string]interface{}{"outcome": "ok"}},
			{Type: AssertRecorded, Table: "elaborations", Expect: map[string]interface{}{"outcome": "ok"}},
			{Type: AssertRecorded, Table: "elaborations", Where: map[string]interface{}{"name": "a"}, Expect: map[string]interface{}{"nope": 1}},
			{Type: AssertRecorded, Table: "elaborations", Where: map[string]interface{}{"name": "a"}, Expect: map[string]interface{}{"outcome": "error"}},
			{Type: AssertRecorded, Table: "sqlite_master", Expect: map[string]interface{}{"name": "runs"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "row not found")
	assert.Contains(t, result.Errors[1], "multiple rows matched")
	assert.Contains(t, result.Errors[2], `column "nope" to exist`)
	assert.Contains(t, result.Errors[3], `column "outcome" = error`)
	assert.Contains(t, result.Errors[4], "invalid table name")
}

func TestEvaluateAssertions_NoStore(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertRecorded, Table: "runs"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")

	errs = EvaluateAssertions(NewResult(), []Assertion{{Type: "bogus"}}, &AssertionContext{Ctx: context.Background()})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "bogus"`)
}
