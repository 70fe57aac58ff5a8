package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roach88/elabql/internal/qlast"
	"github.com/roach88/elabql/internal/store"
)

// Replay
//
// Elaboration is a pure function of the source, so re-elaborating a
// recorded run must reproduce it exactly. Replay re-runs every recorded
// source of a run through the same pipeline, without recording anything,
// and compares:
//
//   - outcome (ok / error)
//   - core hash (content address of the canonical core encoding)
//   - error code
//
// A difference means the elaborator changed behavior between versions, or
// that elaboration is not deterministic.

// ReplayDiff is one recorded elaboration compared with a fresh one.
type ReplayDiff struct {
	Name string
	Seq  int64

	RecordedOutcome store.Outcome
	RecordedHash    string
	RecordedCode    string

	Outcome store.Outcome
	Hash    string
	Code    string
}

// Changed reports whether the fresh elaboration differs from the record.
func (d ReplayDiff) Changed() bool {
	return d.RecordedOutcome != d.Outcome || d.RecordedHash != d.Hash || d.RecordedCode != d.Code
}

// Replay re-elaborates every source recorded in a run.
// Results are in recording order (seq ASC).
func (e *Engine) Replay(ctx context.Context, runID string) ([]ReplayDiff, error) {
	if e.store == nil {
		return nil, fmt.Errorf("replay %s: no store configured", runID)
	}
	if _, err := e.store.ReadRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}
	records, err := e.store.ListRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	diffs := make([]ReplayDiff, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := SourceFromRecord(rec)
		var r Result
		if err != nil {
			r = Result{Name: rec.Name, Err: err}
		} else {
			r = e.Elaborate(src)
		}

		d := ReplayDiff{
			Name:            rec.Name,
			Seq:             rec.Seq,
			RecordedOutcome: rec.Outcome,
			RecordedHash:    rec.CoreHash,
			RecordedCode:    rec.ErrorCode,
			Outcome:         store.OutcomeOK,
			Hash:            r.CoreHash,
			Code:            r.ErrorCode(),
		}
		if !r.OK() {
			d.Outcome = store.OutcomeError
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

// SourceFromRecord rebuilds the Source of a recorded elaboration. Syntax
// tree documents (.cue, .json) are decoded; anything else is query text.
func SourceFromRecord(rec store.Elaboration) (Source, error) {
	src := Source{Name: rec.Name, Text: rec.Source}
	if IsTreeDocument(rec.Name) {
		node, err := qlast.DecodeBytes(rec.Name, []byte(rec.Source))
		if err != nil {
			return Source{}, err
		}
		src.Node = node
	}
	return src, nil
}

// IsTreeDocument reports whether name is a syntax tree document rather
// than query text.
func IsTreeDocument(name string) bool {
	switch filepath.Ext(name) {
	case ".cue", ".json":
		return true
	default:
		return false
	}
}
