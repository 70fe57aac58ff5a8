package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/elabql/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with the given ID and seq.
func createTestRun(t *testing.T, s *Store, id string, seq int64) Run {
	t.Helper()
	run := Run{ID: id, Seq: seq, EngineVersion: "0.1.0", IRVersion: "1"}
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}

// okElaboration builds a successful elaboration of `select <name>`.
func okElaboration(runID, name string, seq int64) Elaboration {
	return Elaboration{
		RunID:  runID,
		Seq:    seq,
		Name:   name,
		Source: "select " + name,
		Core:   ir.FreeVarExpr{Name: name},
	}
}
