package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/elabql/internal/engine"
	"github.com/roach88/elabql/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Replay bool
}

// RunHistory is the JSON payload for one recorded run.
type RunHistory struct {
	Run          store.Run           `json:"run"`
	Elaborations []store.Elaboration `json:"elaborations"`
}

// ReplayEntry is one re-elaborated record.
type ReplayEntry struct {
	Name            string `json:"name"`
	Seq             int64  `json:"seq"`
	Changed         bool   `json:"changed"`
	RecordedOutcome string `json:"recorded_outcome"`
	Outcome         string `json:"outcome"`
	RecordedHash    string `json:"recorded_hash,omitempty"`
	Hash            string `json:"hash,omitempty"`
	RecordedCode    string `json:"recorded_code,omitempty"`
	Code            string `json:"code,omitempty"`
}

// ReplayResult holds the replay of one run.
type ReplayResult struct {
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Changed       int           `json:"changed"`
	Deterministic bool          `json:"deterministic"`
	Entries       []ReplayEntry `json:"entries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Inspect the elaboration log",
		Long: `List recorded runs, or the elaborations of one run.

With --replay every source of the run is elaborated again and compared with
the record: outcome, core hash and error code must all match. A difference
means the elaborator changed behavior since the run was recorded.

Exit codes:
  0 - Listed, or replay reproduced the run
  1 - Replay differs from the recorded run
  2 - Command error (no --db, unknown run, etc.)

Examples:
  elabql history --db ./elabql.db
  elabql history --db ./elabql.db 01928c7e-...
  elabql history --db ./elabql.db 01928c7e-... --replay`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Replay, "replay", false, "re-elaborate the run and report differences")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	if opts.Database == "" {
		return NewExitError(ExitCommandError, "history requires --db (or db in the configuration)")
	}
	if opts.Replay && len(args) == 0 {
		return NewExitError(ExitCommandError, "--replay requires a run id")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, closeStore, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore()

	f := formatter(opts.RootOptions, cmd)

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return f.Success(runs)
		}
		return outputRunsText(cmd, runs)
	}

	runID := args[0]
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Replay {
		diffs, err := newEngine(opts.RootOptions, st, "").Replay(ctx, runID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay run", err)
		}
		return outputReplay(cmd, f, toReplayResult(runID, diffs))
	}

	els, err := st.ListRun(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list elaborations", err)
	}
	if opts.Format == "json" {
		return f.Success(RunHistory{Run: run, Elaborations: els})
	}
	return outputRunText(cmd, run, els)
}

func toReplayResult(runID string, diffs []engine.ReplayDiff) ReplayResult {
	result := ReplayResult{
		RunID:   runID,
		Total:   len(diffs),
		Entries: make([]ReplayEntry, 0, len(diffs)),
	}
	for _, d := range diffs {
		entry := ReplayEntry{
			Name:            d.Name,
			Seq:             d.Seq,
			Changed:         d.Changed(),
			RecordedOutcome: string(d.RecordedOutcome),
			Outcome:         string(d.Outcome),
			RecordedHash:    d.RecordedHash,
			Hash:            d.Hash,
			RecordedCode:    d.RecordedCode,
			Code:            d.Code,
		}
		if entry.Changed {
			result.Changed++
		}
		result.Entries = append(result.Entries, entry)
	}
	result.Deterministic = result.Changed == 0
	return result
}

func outputRunsText(cmd *cobra.Command, runs []store.RunSummary) error {
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		label := ""
		if r.Label != "" {
			label = fmt.Sprintf(" (%s)", r.Label)
		}
		fmt.Fprintf(w, "%s  seq=%d  %d queries, %d failed%s\n", r.ID, r.Seq, r.Total, r.Errors, label)
	}
	return nil
}

func outputRunText(cmd *cobra.Command, run store.Run, els []store.Elaboration) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s  seq=%d  engine=%s  ir=%s\n", run.ID, run.Seq, run.EngineVersion, run.IRVersion)
	fmt.Fprintln(w)
	for _, el := range els {
		if el.Outcome == store.OutcomeOK {
			fmt.Fprintf(w, "%s [%d] %s\n", okMark(), el.Seq, el.Name)
			fmt.Fprintf(w, "  %s\n", el.CoreText)
			continue
		}
		fmt.Fprintf(w, "%s [%d] %s\n", failMark(), el.Seq, el.Name)
		fmt.Fprintf(w, "  [%s] %s\n", el.ErrorCode, el.ErrorMessage)
	}
	return nil
}

func outputReplay(cmd *cobra.Command, f *OutputFormatter, result ReplayResult) error {
	msg := fmt.Sprintf("%d of %d elaborations changed", result.Changed, result.Total)

	if f.Format == "json" {
		if !result.Deterministic {
			if err := f.Failure(result, ErrCodeReplayDrift, msg); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replay Summary: run %s, %d elaboration(s)\n", result.RunID, result.Total)
	fmt.Fprintln(w)
	for _, e := range result.Entries {
		if !e.Changed {
			fmt.Fprintf(w, "%s [%d] %s\n", okMark(), e.Seq, e.Name)
			continue
		}
		fmt.Fprintf(w, "%s [%d] %s\n", failMark(), e.Seq, e.Name)
		fmt.Fprintf(w, "  recorded: %s %s%s\n", e.RecordedOutcome, e.RecordedHash, e.RecordedCode)
		fmt.Fprintf(w, "  now:      %s %s%s\n", e.Outcome, e.Hash, e.Code)
	}
	fmt.Fprintln(w)

	if !result.Deterministic {
		return NewExitError(ExitFailure, msg)
	}
	fmt.Fprintf(w, "%s Run reproduced\n", okMark())
	return nil
}
