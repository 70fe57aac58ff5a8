package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/elabql/internal/engine"
	"github.com/roach88/elabql/internal/store"
)

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openStore opens the elaboration log named by --db. It returns a nil
// store when no database is configured.
func openStore(opts *RootOptions) (*store.Store, func(), error) {
	if opts.Database == "" {
		return nil, func() {}, nil
	}
	logger := opts.Logger()
	logger.Debug("opening database", zap.String("path", opts.Database))
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", zap.Error(closeErr))
		}
	}, nil
}

// newEngine builds an engine from the global options. st may be nil.
func newEngine(opts *RootOptions, st *store.Store, label string) *engine.Engine {
	engOpts := []engine.EngineOption{
		engine.WithLogger(opts.Logger().Named("engine")),
		engine.WithLabel(label),
	}
	if st != nil {
		engOpts = append(engOpts, engine.WithStore(st))
	}
	if opts.Concurrency > 0 {
		engOpts = append(engOpts, engine.WithConcurrency(opts.Concurrency))
	}
	if opts.MaxBatch > 0 {
		engOpts = append(engOpts, engine.WithMaxBatch(opts.MaxBatch))
	}
	return engine.New(engOpts...)
}

// processSources elaborates srcs as one run, recording it when --db is set.
func processSources(cmd *cobra.Command, opts *RootOptions, srcs []engine.Source, label string) (engine.Batch, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, closeStore, err := openStore(opts)
	if err != nil {
		return engine.Batch{}, err
	}
	defer closeStore()

	batch, err := newEngine(opts, st, label).ProcessAll(ctx, srcs)
	if err != nil {
		if engine.ErrorCode(err) == string(engine.ErrCodeBatchLimit) {
			return engine.Batch{}, WrapExitError(ExitCommandError, "batch too large", err)
		}
		return engine.Batch{}, WrapExitError(ExitCommandError, "elaboration run failed", err)
	}
	return batch, nil
}
