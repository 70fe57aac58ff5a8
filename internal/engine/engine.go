package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/elabql/internal/compiler"
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
	"github.com/roach88/elabql/internal/qlparse"
	"github.com/roach88/elabql/internal/queryir"
	"github.com/roach88/elabql/internal/querysql"
	"github.com/roach88/elabql/internal/store"
)

// DefaultMaxBatch is the default maximum number of sources per run.
const DefaultMaxBatch = 10000

// Source is one query to elaborate.
//
// Node, when set, is used instead of parsing Text; Text is still what the
// log records and hashes.
type Source struct {
	Name string
	Text string
	Node qlast.Node
}

// Result is the outcome of one source.
type Result struct {
	Name       string
	Source     string
	SourceHash string
	Seq        int64

	Core     ir.Expr
	CoreHash string

	// Plan is nil when the query is not plannable; PlanError says why.
	Plan         *queryir.Select
	PlanSQL      string
	PlanWarnings []string
	PlanError    string

	// Drift is set when an earlier run elaborated the same source to a
	// different core expression.
	Drift bool

	Err error
}

// OK reports whether the source elaborated successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// ErrorCode returns the recorded error code, or "" on success.
func (r Result) ErrorCode() string {
	return ErrorCode(r.Err)
}

// Batch is the outcome of one run.
type Batch struct {
	RunID   string
	Seq     int64
	Results []Result
}

// Failed returns the number of sources that did not elaborate.
func (b Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Engine runs sources through the elaboration pipeline.
//
// The store is optional; without one nothing is recorded. Elaborate is safe
// for concurrent use; ProcessAll and Replay calls must not overlap.
type Engine struct {
	store       *store.Store
	clock       *Clock
	runGen      RunIDGenerator
	logger      *zap.Logger
	elaborator  *compiler.Elaborator
	concurrency int
	maxBatch    int
	label       string

	syncMu sync.Mutex // guards synced
	synced bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithStore records every run in s.
func WithStore(s *store.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the logger for the engine and its elaborator.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRunIDGenerator sets the run ID source.
//
// Default: UUIDv7Generator
func WithRunIDGenerator(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runGen = gen
	}
}

// WithClock sets the logical clock, e.g. to resume from a known seq.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithConcurrency sets the number of sources elaborated in parallel.
//
// Default: runtime.GOMAXPROCS(0). Values below 1 mean 1.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithMaxBatch sets the maximum number of sources per run.
//
// Default: DefaultMaxBatch
func WithMaxBatch(n int) EngineOption {
	return func(e *Engine) {
		e.maxBatch = n
	}
}

// WithLabel attaches a label to every recorded run.
func WithLabel(label string) EngineOption {
	return func(e *Engine) {
		e.label = label
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:       NewClock(),
		runGen:      UUIDv7Generator{},
		logger:      zap.NewNop(),
		concurrency: runtime.GOMAXPROCS(0),
		maxBatch:    DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.elaborator = compiler.New(compiler.WithLogger(e.logger.Named("compiler")))
	return e
}

// Elaborate runs one source through the pipeline without recording it.
func (e *Engine) Elaborate(src Source) Result {
	start := time.Now()
	r := e.elaborate(src)
	e.logger.Debug("elaborated",
		zap.String("name", src.Name),
		zap.Bool("ok", r.OK()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return r
}

func (e *Engine) elaborate(src Source) Result {
	r := Result{
		Name:       src.Name,
		Source:     src.Text,
		SourceHash: ir.SourceHash(src.Text),
	}

	node := src.Node
	if node == nil {
		var err error
		if node, err = qlparse.ParseString(src.Name, src.Text); err != nil {
			r.Err = NewParseError(src.Name, err)
			return r
		}
	}

	core, err := e.elaborator.Elaborate(node)
	if err != nil {
		r.Err = err
		return r
	}
	if violations := compiler.Validate(core); len(violations) > 0 {
		r.Err = NewInvariantError(src.Name, violations)
		return r
	}

	hash, err := ir.ExprHash(core)
	if err != nil {
		r.Err = fmt.Errorf("hash %s: %w", src.Name, err)
		return r
	}
	r.Core = core
	r.CoreHash = hash

	e.plan(&r)
	return r
}

// plan lowers r.Core and compiles it. Free variables compile to
// parameters; their values are not known here, only the SQL text is kept.
func (e *Engine) plan(r *Result) {
	sel, err := queryir.Lower(r.Core)
	if err != nil {
		r.PlanError = err.Error()
		return
	}

	c := querysql.NewSQLCompiler()
	for _, name := range ir.FreeVars(r.Core) {
		c.BoundValues[name] = nil
	}
	sql, _, err := c.Compile(sel)
	if err != nil {
		r.PlanError = err.Error()
		return
	}

	r.Plan = &sel
	r.PlanSQL = sql
	r.PlanWarnings = queryir.Validate(sel).Warnings
}

// ProcessAll elaborates a batch of sources as one run and records it when a
// store is attached.
//
// Elaboration failures are part of the batch, not errors: the returned
// error is non-nil only for cancellation, an oversized batch or a store
// failure.
func (e *Engine) ProcessAll(ctx context.Context, srcs []Source) (Batch, error) {
	if e.maxBatch > 0 && len(srcs) > e.maxBatch {
		return Batch{}, NewBatchLimitError(len(srcs), e.maxBatch)
	}
	if err := e.syncClock(ctx); err != nil {
		return Batch{}, err
	}

	results := make([]Result, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Elaborate(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, fmt.Errorf("process batch: %w", err)
	}

	// Sequence numbers follow input order, not completion order.
	runSeq := e.clock.Reserve(int64(len(srcs)) + 1)
	batch := Batch{RunID: e.runGen.Generate(), Seq: runSeq, Results: results}
	for i := range batch.Results {
		batch.Results[i].Seq = runSeq + int64(i) + 1
	}

	if e.store != nil {
		if err := e.record(ctx, batch); err != nil {
			return Batch{}, err
		}
	}

	for _, r := range batch.Results {
		fields := []zap.Field{
			zap.String("run", batch.RunID),
			zap.String("name", r.Name),
			zap.Int64("seq", r.Seq),
		}
		switch {
		case !r.OK():
			e.logger.Info("elaboration failed", append(fields, zap.String("code", r.ErrorCode()), zap.Error(r.Err))...)
		case r.Drift:
			e.logger.Warn("elaboration drifted from an earlier run", append(fields, zap.String("core_hash", r.CoreHash))...)
		default:
			e.logger.Info("elaborated", append(fields, zap.String("core_hash", r.CoreHash), zap.Bool("planned", r.Plan != nil))...)
		}
	}
	return batch, nil
}

// Process elaborates a single source as its own run.
func (e *Engine) Process(ctx context.Context, src Source) (Result, error) {
	batch, err := e.ProcessAll(ctx, []Source{src})
	if err != nil {
		return Result{}, err
	}
	return batch.Results[0], nil
}

// syncClock moves the clock past the last seq in the store, once. A failed
// read is retried by the next run.
func (e *Engine) syncClock(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	if e.synced {
		return nil
	}
	last, err := e.store.MaxSeq(ctx)
	if err != nil {
		return fmt.Errorf("sync clock: %w", err)
	}
	e.clock.AdvanceTo(last)
	e.synced = true
	return nil
}

func (e *Engine) record(ctx context.Context, batch Batch) error {
	els := make([]store.Elaboration, len(batch.Results))
	for i := range batch.Results {
		r := &batch.Results[i]
		if r.OK() {
			drift, err := e.drifted(ctx, *r)
			if err != nil {
				return err
			}
			r.Drift = drift
		}
		els[i] = toRecord(*r)
	}

	run := store.Run{ID: batch.RunID, Seq: batch.Seq, Label: e.label}
	if _, err := e.store.WriteBatch(ctx, run, els); err != nil {
		return fmt.Errorf("record run %s: %w", batch.RunID, err)
	}
	return nil
}

// drifted reports whether an earlier successful elaboration of the same
// source produced a different core.
func (e *Engine) drifted(ctx context.Context, r Result) (bool, error) {
	history, err := e.store.ListBySource(ctx, r.SourceHash)
	if err != nil {
		return false, fmt.Errorf("read history of %s: %w", r.Name, err)
	}
	for _, prev := range history {
		if prev.Outcome == store.OutcomeOK && prev.CoreHash != r.CoreHash {
			return true, nil
		}
	}
	return false, nil
}

func toRecord(r Result) store.Elaboration {
	el := store.Elaboration{
		Seq:        r.Seq,
		Name:       r.Name,
		Source:     r.Source,
		SourceHash: r.SourceHash,
		Core:       r.Core,
		PlanSQL:    r.PlanSQL,
	}
	if r.OK() {
		el.Outcome = store.OutcomeOK
	} else {
		el.Outcome = store.OutcomeError
		el.ErrorCode = r.ErrorCode()
		el.ErrorMessage = r.Err.Error()
	}
	return el
}
