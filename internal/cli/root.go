package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/elabql/internal/config"
	"github.com/roach88/elabql/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	Concurrency int
	MaxBatch    int

	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{config.FormatText, config.FormatJSON}

// Logger returns the command logger, a no-op logger until the root command
// has configured one.
func (o *RootOptions) Logger() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

// NewRootCommand creates the root command for the elabql CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "elabql",
		Version: ir.VersionString(),
		Short: "elabql - EdgeQL surface-to-core elaborator",
		Long: `Elaborate EdgeQL queries into the de Bruijn core calculus, plan the
plannable subset as SQLite SQL, and keep a log of every elaboration run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configure(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite elaboration log")
	cmd.PersistentFlags().IntVar(&opts.Concurrency, "concurrency", 0, "queries elaborated in parallel (0 = GOMAXPROCS)")

	// Add subcommands
	cmd.AddCommand(NewElaborateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// configure merges the config file and environment under the flags, then
// builds the logger. Flags given on the command line always win.
func (o *RootOptions) configure(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if !flags.Changed("db") {
		o.Database = cfg.DB
	}
	if !flags.Changed("concurrency") {
		o.Concurrency = cfg.Concurrency
	}
	o.MaxBatch = cfg.MaxBatch

	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	logger, err := newLogger(o.Verbose, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	o.logger = logger
	return nil
}

// newLogger returns a development logger on stderr in verbose mode and a
// no-op logger otherwise.
func newLogger(verbose bool, cfg *config.Config) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Run executes the CLI with args and returns the process exit code.
//
// Command errors are reported on stderr, or as a JSON error envelope on
// stdout with --format json. Failures (exit 1) are already part of the
// command output and are not repeated.
func Run(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if opts.logger != nil {
		_ = opts.logger.Sync()
	}
	if err == nil {
		return ExitSuccess
	}

	// Cobra usage errors (unknown flags, wrong arg counts) carry no exit
	// code and are command errors.
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = WrapExitError(ExitCommandError, "invalid usage", err)
	}
	if exitErr.Code != ExitCommandError {
		return exitErr.Code
	}

	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if f.json() {
		f.Writer = stdout
	}
	_ = f.Error(ErrCodeGeneric, exitErr.Error(), nil)
	return exitErr.Code
}
