package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/elabql/internal/ir"
)

func TestListRun_Empty(t *testing.T) {
	s := createTestStore(t)

	els, err := s.ListRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ListRun() failed: %v", err)
	}
	if els == nil {
		t.Error("ListRun() should return an empty slice, not nil")
	}
	if len(els) != 0 {
		t.Errorf("ListRun() returned %d records, want 0", len(els))
	}
}

func TestListRun_DeterministicOrdering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1", 1)

	// Written out of seq order.
	for _, el := range []Elaboration{
		okElaboration("run-1", "C", 4),
		okElaboration("run-1", "A", 2),
		okElaboration("run-1", "B", 3),
	} {
		if _, _, err := s.WriteElaboration(ctx, el); err != nil {
			t.Fatalf("WriteElaboration() failed: %v", err)
		}
	}

	els, err := s.ListRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRun() failed: %v", err)
	}
	var names []string
	for _, el := range els {
		names = append(names, el.Name)
	}
	want := []string{"A", "B", "C"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListRun_SameSeqOrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1", 1)

	for _, name := range []string{"Zed", "Amy", "Kim"} {
		if _, _, err := s.WriteElaboration(ctx, okElaboration("run-1", name, 2)); err != nil {
			t.Fatalf("WriteElaboration() failed: %v", err)
		}
	}

	els, err := s.ListRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRun() failed: %v", err)
	}
	for i := 1; i < len(els); i++ {
		if els[i-1].ID >= els[i].ID {
			t.Errorf("records with equal seq not ordered by id: %q >= %q", els[i-1].ID, els[i].ID)
		}
	}
}

func TestReadElaboration_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadElaboration(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadElaboration() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadRun() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_Counts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestRun(t, s, "run-b", 5)
	createTestRun(t, s, "run-a", 1)
	createTestRun(t, s, "run-empty", 9)

	writes := []Elaboration{
		okElaboration("run-a", "User", 2),
		{RunID: "run-a", Seq: 3, Name: "bad", Source: "select User { a, a }", ErrorCode: "E202", ErrorMessage: "dup"},
		okElaboration("run-b", "User", 6),
	}
	for _, el := range writes {
		if _, _, err := s.WriteElaboration(ctx, el); err != nil {
			t.Fatalf("WriteElaboration() failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(runs))
	}

	type counts struct {
		id            string
		total, errors int
	}
	want := []counts{{"run-a", 2, 1}, {"run-b", 1, 0}, {"run-empty", 0, 0}}
	for i, w := range want {
		got := counts{runs[i].ID, runs[i].Total, runs[i].Errors}
		if got != w {
			t.Errorf("runs[%d] = %+v, want %+v", i, got, w)
		}
	}
}

func TestListBySource_AcrossRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1", 1)
	createTestRun(t, s, "run-2", 10)

	for _, el := range []Elaboration{
		okElaboration("run-2", "User", 11),
		okElaboration("run-1", "User", 2),
		okElaboration("run-1", "Group", 3),
	} {
		if _, _, err := s.WriteElaboration(ctx, el); err != nil {
			t.Fatalf("WriteElaboration() failed: %v", err)
		}
	}

	els, err := s.ListBySource(ctx, ir.SourceHash("select User"))
	if err != nil {
		t.Fatalf("ListBySource() failed: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("ListBySource() returned %d records, want 2", len(els))
	}
	if els[0].RunID != "run-1" || els[1].RunID != "run-2" {
		t.Errorf("history out of order: %s, %s", els[0].RunID, els[1].RunID)
	}
	if els[0].CoreHash != els[1].CoreHash {
		t.Error("same source and core should hash the same across runs")
	}
}

func TestMaxSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("MaxSeq() on empty log = %d, want 0", seq)
	}

	createTestRun(t, s, "run-1", 4)
	if seq, _ = s.MaxSeq(ctx); seq != 4 {
		t.Errorf("MaxSeq() = %d, want 4", seq)
	}

	if _, _, err := s.WriteElaboration(ctx, okElaboration("run-1", "User", 7)); err != nil {
		t.Fatalf("WriteElaboration() failed: %v", err)
	}
	if seq, _ = s.MaxSeq(ctx); seq != 7 {
		t.Errorf("MaxSeq() = %d, want 7", seq)
	}
}

func TestDecodeCore(t *testing.T) {
	v, err := DecodeCore(`{"kind":"IntVal","val":9007199254740993}`)
	if err != nil {
		t.Fatalf("DecodeCore() failed: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("DecodeCore() = %T, want map", v)
	}
	if got := m["val"]; got.(interface{ String() string }).String() != "9007199254740993" {
		t.Errorf("val = %v, want exact 9007199254740993", got)
	}

	if v, err := DecodeCore(""); err != nil || v != nil {
		t.Errorf("DecodeCore(\"\") = %v, %v; want nil, nil", v, err)
	}
	if _, err := DecodeCore("{"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
