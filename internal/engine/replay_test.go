package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elabql/internal/compiler"
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/store"
)

func TestReplay_ReproducesRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := New(WithStore(s), WithRunIDGenerator(NewFixedGenerator("run-1")))

	_, err := e.ProcessAll(ctx, []Source{
		{Name: "a", Text: "select User { name } order by .name"},
		{Name: "b", Text: "select User { name, name }"},
		{Name: "c", Text: "with n := 'x' select User filter .name = n"},
	})
	require.NoError(t, err)

	diffs, err := e.Replay(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, diffs, 3)

	for _, d := range diffs {
		assert.False(t, d.Changed(), "%s changed: %+v", d.Name, d)
	}
	assert.Equal(t, store.OutcomeError, diffs[1].Outcome)
	assert.Equal(t, compiler.ErrDuplicateShapeLabel, diffs[1].Code)

	// Replay records nothing.
	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReplay_ReportsChanges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.WriteBatch(ctx, store.Run{ID: "old", Seq: 1}, []store.Elaboration{
		{Seq: 2, Name: "same", Source: "select Group", Core: mustCore(t, "select Group")},
		{Seq: 3, Name: "core", Source: "select User", Core: ir.FreeVarExpr{Name: "Account"}},
		{Seq: 4, Name: "fixed", Source: "select Thing", ErrorCode: "E201", ErrorMessage: "not implemented"},
	})
	require.NoError(t, err)

	e := New(WithStore(s))
	diffs, err := e.Replay(ctx, "old")
	require.NoError(t, err)
	require.Len(t, diffs, 3)

	assert.False(t, diffs[0].Changed())

	assert.True(t, diffs[1].Changed())
	assert.Equal(t, diffs[1].RecordedOutcome, diffs[1].Outcome)
	assert.NotEqual(t, diffs[1].RecordedHash, diffs[1].Hash)

	assert.True(t, diffs[2].Changed())
	assert.Equal(t, store.OutcomeError, diffs[2].RecordedOutcome)
	assert.Equal(t, store.OutcomeOK, diffs[2].Outcome)
	assert.Empty(t, diffs[2].Code)
}

func TestReplay_UnknownRun(t *testing.T) {
	e := New(WithStore(openTestStore(t)))

	_, err := e.Replay(context.Background(), "missing")
	require.Error(t, err)
}

func TestReplay_NoStore(t *testing.T) {
	_, err := New().Replay(context.Background(), "run-1")
	require.Error(t, err)
}

func TestIsTreeDocument(t *testing.T) {
	assert.True(t, IsTreeDocument("q.cue"))
	assert.True(t, IsTreeDocument("dir/q.json"))
	assert.False(t, IsTreeDocument("q.edgeql"))
	assert.False(t, IsTreeDocument("inline"))
}

func mustCore(t *testing.T, text string) ir.Expr {
	t.Helper()
	r := New().Elaborate(Source{Name: "core", Text: text})
	require.True(t, r.OK(), "elaborate %q: %v", text, r.Err)
	return r.Core
}

func TestSourceFromRecord(t *testing.T) {
	src, err := SourceFromRecord(store.Elaboration{Name: "q.edgeql", Source: "select User"})
	require.NoError(t, err)
	assert.Nil(t, src.Node)
	assert.Equal(t, "select User", src.Text)

	doc := `{"kind": "Path", "steps": [{"kind": "ObjectRef", "name": "User"}]}`
	src, err = SourceFromRecord(store.Elaboration{Name: "q.json", Source: doc})
	require.NoError(t, err)
	assert.NotNil(t, src.Node)
	assert.Equal(t, doc, src.Text)

	_, err = SourceFromRecord(store.Elaboration{Name: "q.json", Source: "{"})
	require.Error(t, err)
}
