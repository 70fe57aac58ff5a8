package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/elabql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	GoldenDir string
	Update    bool
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run elaboration scenarios",
		Long: `Run YAML scenarios of queries with expected outcomes.

Each scenario elaborates its steps as one run in a fresh in-memory log and
checks the expect clauses and assertions. With --golden the trace of every
scenario is also compared with {golden}/{scenario name}.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error

Examples:
  elabql test ./scenarios
  elabql test ./scenarios --golden ./golden
  elabql test ./scenarios --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current traces")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	harnessOpts := []harness.Option{harness.WithLogger(opts.Logger().Named("harness"))}
	if opts.GoldenDir != "" {
		harnessOpts = append(harnessOpts, harness.WithGolden(opts.GoldenDir, opts.Update))
	}

	result, err := harness.RunSuite(ctx, path, harnessOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, opts.RootOptions, result)
	}
	if result.TotalScenarios == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No scenarios found in %s\n", path)
		return nil
	}
	return outputTestText(cmd, result, opts.Update)
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, opts *RootOptions, result *harness.SuiteResult) error {
	f := formatter(opts, cmd)
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if err := f.Failure(result, ErrCodeTestFailed, msg); err != nil {
			return err
		}
		// Test failures = exit code 1
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(result)
}

// outputTestText outputs the suite result as text.
func outputTestText(cmd *cobra.Command, result *harness.SuiteResult, updated bool) error {
	w := cmd.OutOrStdout()

	for _, failure := range result.Failures {
		name := failure.ScenarioName
		if name == "" {
			name = failure.ScenarioPath
		}
		fmt.Fprintf(w, "%s %s\n", failMark(), name)
		fmt.Fprintf(w, "  %s\n", failure.Error)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.TotalScenarios)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if updated {
		fmt.Fprintf(w, "%s Golden files updated\n", okMark())
		return nil
	}
	fmt.Fprintf(w, "%s All scenarios passed\n", okMark())
	return nil
}
