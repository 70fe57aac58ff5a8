package harness

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roach88/elabql/internal/engine"
	"github.com/roach88/elabql/internal/ir"
	"github.com/roach88/elabql/internal/qlast"
	"github.com/roach88/elabql/internal/store"
	"github.com/roach88/elabql/internal/testutil"
)

// Option configures a scenario run.
type Option func(*options)

type options struct {
	logger *zap.Logger

	goldenDir    string
	updateGolden bool
}

// WithLogger routes engine logs of the run to logger.
// Default: logs are discarded.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGolden makes RunSuite compare each scenario trace against
// dir/{scenario name}.golden, or rewrite those files when update is set.
// Scenarios without a golden file are checked by their assertions only.
func WithGolden(dir string, update bool) Option {
	return func(o *options) {
		o.goldenDir = dir
		o.updateGolden = update
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed run ID and a fresh logical clock, so the trace is reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load syntax tree documents referenced by steps
// 3. Elaborate every step as one run through the engine
// 4. Check expect clauses and assertions
// 5. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	srcs, err := loadSources(scenario.Steps)
	if err != nil {
		return nil, err
	}

	eng := engine.New(
		engine.WithStore(st),
		engine.WithRunIDGenerator(testutil.NewFixedRunGenerator(scenario.RunID)),
		engine.WithLogger(o.logger),
		engine.WithLabel(scenario.Name),
	)
	batch, err := eng.ProcessAll(ctx, srcs)
	if err != nil {
		return nil, fmt.Errorf("failed to run scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i, r := range batch.Results {
		ev := traceEvent(r)
		result.AddTrace(ev)
		if exp := scenario.Steps[i].Expect; exp != nil {
			for _, msg := range checkExpect(ev, r, exp) {
				result.AddError(fmt.Sprintf("step %q: %s", ev.Step, msg))
			}
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// loadSources turns steps into engine sources. Tree documents are decoded
// here so a malformed document fails the scenario, not the step.
func loadSources(steps []Step) ([]engine.Source, error) {
	srcs := make([]engine.Source, len(steps))
	for i, step := range steps {
		if step.Tree == "" {
			srcs[i] = engine.Source{Name: step.Name, Text: step.Query}
			continue
		}
		data, err := os.ReadFile(step.Tree)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		node, err := qlast.DecodeBytes(step.Tree, data)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, err)
		}
		srcs[i] = engine.Source{Name: step.Name, Text: string(data), Node: node}
	}
	return srcs, nil
}

func traceEvent(r engine.Result) TraceEvent {
	ev := TraceEvent{
		Step:  r.Name,
		Seq:   r.Seq,
		SQL:   r.PlanSQL,
		Drift: r.Drift,
	}
	if r.OK() {
		ev.Outcome = OutcomeOK
		ev.Core = ir.Format(r.Core)
	} else {
		ev.Outcome = OutcomeError
		ev.Code = r.ErrorCode()
	}
	return ev
}

// checkExpect compares one step's outcome with its expect clause and
// returns a message per mismatch.
func checkExpect(ev TraceEvent, r engine.Result, exp *ExpectClause) []string {
	var msgs []string
	if ev.Outcome != exp.Outcome {
		msg := fmt.Sprintf("expected outcome %s, got %s", exp.Outcome, ev.Outcome)
		if r.Err != nil {
			msg += fmt.Sprintf(" (%v)", r.Err)
		}
		return append(msgs, msg)
	}

	if exp.Code != "" && ev.Code != exp.Code {
		msgs = append(msgs, fmt.Sprintf("expected code %s, got %s (%v)", exp.Code, ev.Code, r.Err))
	}
	if exp.Core != "" && ev.Core != exp.Core {
		msgs = append(msgs, fmt.Sprintf("expected core\n  %s\ngot\n  %s", exp.Core, ev.Core))
	}
	if exp.SQL != "" && ev.SQL != exp.SQL {
		msgs = append(msgs, fmt.Sprintf("expected sql\n  %s\ngot\n  %s", exp.SQL, ev.SQL))
	}
	if exp.Plannable != nil && *exp.Plannable != (r.Plan != nil) {
		if *exp.Plannable {
			msgs = append(msgs, fmt.Sprintf("expected a storage plan, got: %s", r.PlanError))
		} else {
			msgs = append(msgs, fmt.Sprintf("expected no storage plan, got: %s", ev.SQL))
		}
	}
	return msgs
}
