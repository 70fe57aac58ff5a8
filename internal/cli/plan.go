package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Exprs []string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan [files...]",
		Short: "Show the SQLite plan of elaborated queries",
		Long: `Elaborate queries and print the parameterized SQLite SQL of their
storage plan.

Only a subset of core IR has a plan: filter, order, offset and limit over a
named object type with an optional shape of plain fields. Other queries are
listed with the reason they have no plan. The SQL is never executed.

Exit codes:
  0 - All queries elaborated (planned or not)
  1 - One or more queries failed to elaborate
  2 - Command error

Examples:
  elabql plan -e 'select User filter .age > 30 order by .name limit 10'
  elabql plan ./queries --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "inline query (repeatable)")

	return cmd
}

func runPlan(opts *PlanOptions, args []string, cmd *cobra.Command) error {
	batch, err := processInputs(opts.RootOptions, opts.Exprs, args, "plan", cmd)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return outputBatchJSON(cmd, opts.RootOptions, batch)
	}

	w := cmd.OutOrStdout()
	planned := 0
	for _, r := range batch.Results {
		switch {
		case !r.OK():
			printFailure(w, r)
		case r.Plan == nil:
			fmt.Fprintf(w, "- %s\n", r.Name)
			fmt.Fprintf(w, "  no plan: %s\n", r.PlanError)
		default:
			planned++
			fmt.Fprintf(w, "%s %s\n", okMark(), r.Name)
			fmt.Fprintf(w, "  %s\n", r.PlanSQL)
			for _, warning := range r.PlanWarnings {
				fmt.Fprintf(w, "  %s %s\n", warnMark(), warning)
			}
		}
	}
	fmt.Fprintf(w, "\n%d of %d queries planned\n", planned, len(batch.Results))
	return batchExit(batch)
}
