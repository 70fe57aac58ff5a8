package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SuiteResult contains results from running every scenario in a directory.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	ScenarioName string `json:"scenario_name,omitempty"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// FindScenarios returns the scenario files (.yaml, .yml) under dir, sorted.
// A path naming a single file is returned as is.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("find scenarios: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find scenarios: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every scenario under path. Scenarios run in
// parallel, each in its own in-memory log; results are reported in path
// order.
//
// Load and execution failures are counted as failed scenarios, not
// returned as errors; the error is non-nil only when path cannot be read
// or ctx is done.
func RunSuite(ctx context.Context, path string, opts ...Option) (*SuiteResult, error) {
	paths, err := FindScenarios(path)
	if err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	outcomes := make([]*ScenarioFailure, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, scenarioPath := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = runScenarioFile(gctx, scenarioPath, o, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SuiteResult{TotalScenarios: len(paths)}
	for _, failure := range outcomes {
		if failure == nil {
			result.Passed++
			continue
		}
		result.Failed++
		result.Failures = append(result.Failures, *failure)
	}
	return result, nil
}

// runScenarioFile runs one scenario file and returns its failure, or nil
// if it passed.
func runScenarioFile(ctx context.Context, path string, o options, opts []Option) *ScenarioFailure {
	scenario, err := LoadScenario(path)
	if err != nil {
		return &ScenarioFailure{ScenarioPath: path, Error: fmt.Sprintf("failed to load scenario: %v", err)}
	}
	fail := func(msg string) *ScenarioFailure {
		return &ScenarioFailure{ScenarioName: scenario.Name, ScenarioPath: path, Error: msg}
	}

	result, err := RunContext(ctx, scenario, opts...)
	if err != nil {
		return fail(fmt.Sprintf("scenario execution failed: %v", err))
	}
	if o.goldenDir != "" {
		if err := checkGolden(o, scenario, result); err != nil {
			result.AddError(err.Error())
		}
	}
	if !result.Pass {
		return fail(strings.Join(result.Errors, "\n"))
	}
	return nil
}

// checkGolden compares or rewrites the golden file of one scenario.
func checkGolden(o options, scenario *Scenario, result *Result) error {
	if o.updateGolden {
		return UpdateGolden(o.goldenDir, scenario, result)
	}
	match, found, err := CompareGolden(o.goldenDir, scenario, result)
	if err != nil {
		return err
	}
	if found && !match {
		return fmt.Errorf("trace does not match %s (rerun with update to regenerate)", GoldenPath(o.goldenDir, scenario.Name))
	}
	return nil
}
