package store

import (
	"context"
	"fmt"
)

const elaborationColumns = `id, run_id, seq, name, source, source_hash, outcome, core, core_text, core_hash, error_code, error_message, plan_sql`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, label, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.Label, &run.EngineVersion, &run.IRVersion)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns every run with its elaboration counts.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.label, r.engine_version, r.ir_version,
		       COUNT(e.id),
		       COALESCE(SUM(CASE WHEN e.outcome = 'error' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN elaborations e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	summaries := []RunSummary{}
	for rows.Next() {
		var sum RunSummary
		if err := rows.Scan(
			&sum.ID, &sum.Seq, &sum.Label, &sum.EngineVersion, &sum.IRVersion,
			&sum.Total, &sum.Errors,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return summaries, nil
}

// ReadElaboration retrieves a single elaboration by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadElaboration(ctx context.Context, id string) (Elaboration, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+elaborationColumns+`
		FROM elaborations
		WHERE id = ?
	`, id)
	return scanElaboration(row)
}

// ListRun returns the elaborations of a run in recording order.
//
// Returns an empty slice (not nil) if the run has no elaborations.
func (s *Store) ListRun(ctx context.Context, runID string) ([]Elaboration, error) {
	return s.listElaborations(ctx, `
		SELECT `+elaborationColumns+`
		FROM elaborations
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
}

// ListBySource returns every recorded elaboration of a source across runs,
// oldest first.
func (s *Store) ListBySource(ctx context.Context, sourceHash string) ([]Elaboration, error) {
	return s.listElaborations(ctx, `
		SELECT `+elaborationColumns+`
		FROM elaborations
		WHERE source_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sourceHash)
}

// MaxSeq returns the highest logical clock value in the log, or 0 for an
// empty log.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM runs), 0),
			COALESCE((SELECT MAX(seq) FROM elaborations), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

func (s *Store) listElaborations(ctx context.Context, query string, args ...any) ([]Elaboration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query elaborations: %w", err)
	}
	defer rows.Close()

	els := []Elaboration{}
	for rows.Next() {
		el, err := scanElaboration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan elaboration: %w", err)
		}
		els = append(els, el)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elaborations: %w", err)
	}
	return els, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanElaboration(row scanner) (Elaboration, error) {
	var el Elaboration
	var outcome string
	if err := row.Scan(
		&el.ID, &el.RunID, &el.Seq, &el.Name, &el.Source, &el.SourceHash, &outcome,
		&el.CoreJSON, &el.CoreText, &el.CoreHash, &el.ErrorCode, &el.ErrorMessage, &el.PlanSQL,
	); err != nil {
		return Elaboration{}, err
	}
	el.Outcome = Outcome(outcome)
	return el, nil
}
