package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/elabql/internal/ir"
)

// execer is the subset of *sql.DB and *sql.Tx used by the write paths.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if err := writeRun(ctx, s.db, run); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func writeRun(ctx context.Context, db execer, run Run) error {
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.IRVersion
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, label, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Label,
		run.EngineVersion,
		run.IRVersion,
	)
	return err
}

// WriteElaboration inserts an elaboration record and returns its ID and
// whether a new record was inserted.
//
// The ID is ir.ElaborationID(RunID, SourceHash); SourceHash is computed from
// Source when empty. Uses ON CONFLICT(run_id, source_hash) DO NOTHING so that
// recording the same source twice in a run keeps the first record and
// returns inserted=false.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteElaboration(ctx context.Context, el Elaboration) (id string, inserted bool, err error) {
	id, inserted, err = writeElaboration(ctx, s.db, el)
	if err != nil {
		return "", false, fmt.Errorf("write elaboration: %w", err)
	}
	return id, inserted, nil
}

func writeElaboration(ctx context.Context, db execer, el Elaboration) (string, bool, error) {
	if el.SourceHash == "" {
		el.SourceHash = ir.SourceHash(el.Source)
	}
	el.ID = ir.ElaborationID(el.RunID, el.SourceHash)
	if err := deriveCore(&el); err != nil {
		return "", false, err
	}
	if el.Outcome == "" {
		el.Outcome = OutcomeOK
		if el.ErrorCode != "" || el.ErrorMessage != "" {
			el.Outcome = OutcomeError
		}
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO elaborations
		(id, run_id, seq, name, source, source_hash, outcome, core, core_text, core_hash, error_code, error_message, plan_sql)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		el.ID,
		el.RunID,
		el.Seq,
		el.Name,
		el.Source,
		el.SourceHash,
		string(el.Outcome),
		el.CoreJSON,
		el.CoreText,
		el.CoreHash,
		el.ErrorCode,
		el.ErrorMessage,
		el.PlanSQL,
	)
	if err != nil {
		return "", false, fmt.Errorf("insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("rows affected: %w", err)
	}
	return el.ID, rowsAffected > 0, nil
}

// WriteBatch atomically writes a run and its elaborations in a single
// transaction. Either every record is visible afterwards or none is.
//
// Returns the number of newly inserted elaborations.
func (s *Store) WriteBatch(ctx context.Context, run Run, els []Elaboration) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeRun(ctx, tx, run); err != nil {
		return 0, fmt.Errorf("write batch: write run: %w", err)
	}

	inserted := 0
	for _, el := range els {
		el.RunID = run.ID
		_, ok, err := writeElaboration(ctx, tx, el)
		if err != nil {
			return 0, fmt.Errorf("write batch: %s: %w", el.Name, err)
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write batch: commit: %w", err)
	}
	return inserted, nil
}
