package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/elabql/internal/engine"
	"github.com/roach88/elabql/internal/ir"
)

// ElaborateOptions holds flags for the elaborate command.
type ElaborateOptions struct {
	*RootOptions
	Exprs []string
	Label string
}

// QueryResult is the per-query output of elaborate, plan and check.
type QueryResult struct {
	Name     string          `json:"name"`
	Seq      int64           `json:"seq"`
	Outcome  string          `json:"outcome"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
	Core     json.RawMessage `json:"core,omitempty"`
	CoreText string          `json:"core_text,omitempty"`
	CoreHash string          `json:"core_hash,omitempty"`
	SQL      string          `json:"sql,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	NoPlan   string          `json:"no_plan,omitempty"`
	Drift    bool            `json:"drift,omitempty"`
}

// BatchResult is the JSON payload of a processed batch.
type BatchResult struct {
	RunID   string        `json:"run_id"`
	Total   int           `json:"total"`
	Failed  int           `json:"failed"`
	Queries []QueryResult `json:"queries"`
}

// NewElaborateCommand creates the elaborate command.
func NewElaborateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ElaborateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "elaborate [files...]",
		Short: "Elaborate queries into core IR",
		Long: `Elaborate EdgeQL queries into the core calculus.

Queries come from .edgeql files, syntax tree documents (.cue, .json) or
inline -e expressions. Directories are searched for all three. Text output
prints the compact core form; JSON output adds the canonical encoding and
its content hash.

With --db every invocation is recorded as one run in the elaboration log.

Exit codes:
  0 - All queries elaborated
  1 - One or more queries failed to elaborate
  2 - Command error (unreadable files, database error, etc.)

Examples:
  elabql elaborate -e 'select User { name } filter .name = "alice"'
  elabql elaborate ./queries --format json
  elabql elaborate --db ./elabql.db ./queries`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runElaborate(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "inline query (repeatable)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label recorded with the run")

	return cmd
}

func runElaborate(opts *ElaborateOptions, args []string, cmd *cobra.Command) error {
	batch, err := processInputs(opts.RootOptions, opts.Exprs, args, opts.Label, cmd)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return outputBatchJSON(cmd, opts.RootOptions, batch)
	}

	w := cmd.OutOrStdout()
	for _, r := range batch.Results {
		if !r.OK() {
			printFailure(w, r)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", okMark(), r.Name)
		fmt.Fprintf(w, "  %s\n", ir.Format(r.Core))
		if r.Drift {
			fmt.Fprintf(w, "  %s core differs from an earlier run\n", warnMark())
		}
	}
	return batchExit(batch)
}

// processInputs loads files and inline queries and elaborates them as one
// run. Load errors stop the command.
func processInputs(opts *RootOptions, exprs, paths []string, label string, cmd *cobra.Command) (engine.Batch, error) {
	if len(exprs) == 0 && len(paths) == 0 {
		return engine.Batch{}, NewExitError(ExitCommandError, "no queries given: pass files, directories or -e")
	}

	srcs := InlineSources(exprs)
	if len(paths) > 0 {
		loaded, errs := LoadSources(paths, LoadModeFailFast)
		if len(errs) > 0 {
			return engine.Batch{}, WrapExitError(ExitCommandError, "failed to load queries", errs[0])
		}
		srcs = append(srcs, loaded...)
	}

	f := formatter(opts, cmd)
	f.VerboseLog("Elaborating %d queries", len(srcs))
	batch, err := processSources(cmd, opts, srcs, label)
	if err != nil {
		return engine.Batch{}, err
	}
	if opts.Database != "" {
		f.VerboseLog("Recorded run %s", batch.RunID)
	}
	return batch, nil
}

// toQueryResult converts an engine result for output.
func toQueryResult(r engine.Result) (QueryResult, error) {
	q := QueryResult{
		Name:    r.Name,
		Seq:     r.Seq,
		Outcome: "ok",
	}
	if !r.OK() {
		q.Outcome = "error"
		q.Code = r.ErrorCode()
		q.Message = r.Err.Error()
		return q, nil
	}

	core, err := ir.MarshalCanonical(ir.Encode(r.Core))
	if err != nil {
		return QueryResult{}, fmt.Errorf("encode %s: %w", r.Name, err)
	}
	q.Core = core
	q.CoreText = ir.Format(r.Core)
	q.CoreHash = r.CoreHash
	q.SQL = r.PlanSQL
	q.Warnings = r.PlanWarnings
	q.NoPlan = r.PlanError
	q.Drift = r.Drift
	return q, nil
}

func toBatchResult(batch engine.Batch) (BatchResult, error) {
	out := BatchResult{
		RunID:   batch.RunID,
		Total:   len(batch.Results),
		Failed:  batch.Failed(),
		Queries: make([]QueryResult, 0, len(batch.Results)),
	}
	for _, r := range batch.Results {
		q, err := toQueryResult(r)
		if err != nil {
			return BatchResult{}, err
		}
		out.Queries = append(out.Queries, q)
	}
	return out, nil
}

// outputBatchJSON writes a batch as a CLIResponse. Failed queries make the
// status "error" with exit code 1.
func outputBatchJSON(cmd *cobra.Command, opts *RootOptions, batch engine.Batch) error {
	data, err := toBatchResult(batch)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode results", err)
	}

	f := formatter(opts, cmd)
	if data.Failed > 0 {
		if err := f.Failure(data, ErrCodeElaboration, failedMessage(data.Failed)); err != nil {
			return err
		}
		return NewExitError(ExitFailure, failedMessage(data.Failed))
	}
	return f.Success(data)
}

func batchExit(batch engine.Batch) error {
	if n := batch.Failed(); n > 0 {
		return NewExitError(ExitFailure, failedMessage(n))
	}
	return nil
}

func failedMessage(n int) string {
	if n == 1 {
		return "1 query failed to elaborate"
	}
	return fmt.Sprintf("%d queries failed to elaborate", n)
}

func printFailure(w io.Writer, r engine.Result) {
	fmt.Fprintf(w, "%s %s\n", failMark(), r.Name)
	fmt.Fprintf(w, "  [%s] %v\n", r.ErrorCode(), r.Err)
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("✗") }
func warnMark() string { return color.YellowString("!") }
