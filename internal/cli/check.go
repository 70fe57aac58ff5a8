package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// CheckIssue is one problem found by check.
type CheckIssue struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckResult holds check results.
type CheckResult struct {
	Valid   bool         `json:"valid"`
	Checked int          `json:"checked"`
	Issues  []CheckIssue `json:"issues,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Check that every query elaborates",
		Long: `Check query files and directories without printing core IR.

Unlike elaborate, check keeps going past unreadable files and malformed
tree documents and reports every problem found, which makes it suitable
for CI over a directory of queries.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := formatter(opts, cmd)

	srcs, loadErrs := LoadSources(paths, LoadModeCollectAll)
	result := CheckResult{}
	for _, err := range loadErrs {
		result.Issues = append(result.Issues, loadIssue(err))
	}

	if len(srcs) > 0 {
		f.VerboseLog("Checking %d queries", len(srcs))
		batch, err := processSources(cmd, opts, srcs, "check")
		if err != nil {
			return err
		}
		result.Checked = len(batch.Results)
		for _, r := range batch.Results {
			if !r.OK() {
				result.Issues = append(result.Issues, CheckIssue{
					Name:    r.Name,
					Code:    r.ErrorCode(),
					Message: r.Err.Error(),
				})
			}
		}
	}
	result.Valid = len(result.Issues) == 0

	if opts.Format == "json" {
		if !result.Valid {
			msg := fmt.Sprintf("%d problem(s) found", len(result.Issues))
			if err := f.Failure(result, ErrCodeElaboration, msg); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintf(w, "%s %d queries elaborate\n", okMark(), result.Checked)
		return nil
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "%s %s: [%s] %s\n", failMark(), issue.Name, issue.Code, issue.Message)
	}
	msg := fmt.Sprintf("%d problem(s) found in %d queries", len(result.Issues), result.Checked)
	fmt.Fprintf(w, "\n%s\n", msg)
	return NewExitError(ExitFailure, msg)
}

func loadIssue(err error) CheckIssue {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return CheckIssue{Name: loadErr.Path, Code: loadErr.Code, Message: loadErr.Message}
	}
	return CheckIssue{Code: ErrCodeGeneric, Message: err.Error()}
}
