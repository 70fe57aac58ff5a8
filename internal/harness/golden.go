package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/elabql/internal/ir"
)

// TraceSnapshot is what a golden file holds: the scenario name, its run
// ID and the trace. Hashes and error messages are never part of it.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// canonical drops empty optional fields so snapshots stay minimal.
func (ev TraceEvent) canonical() ir.IRObject {
	obj := ir.IRObject{
		"step":    ir.IRString(ev.Step),
		"seq":     ir.IRInt(ev.Seq),
		"outcome": ir.IRString(ev.Outcome),
	}
	optional := map[string]string{"code": ev.Code, "core": ev.Core, "sql": ev.SQL}
	for k, v := range optional {
		if v != "" {
			obj[k] = ir.IRString(v)
		}
	}
	if ev.Drift {
		obj["drift"] = ir.IRBool(true)
	}
	return obj
}

func (s TraceSnapshot) canonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = ev.canonical()
	}
	obj := ir.IRObject{"scenario_name": ir.IRString(s.ScenarioName), "trace": trace}
	if s.RunID != "" {
		obj["run_id"] = ir.IRString(s.RunID)
	}
	return obj
}

// MarshalSnapshot renders the trace of a result as canonical JSON, so
// golden files are byte-stable across runs and platforms.
func MarshalSnapshot(name, runID string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(TraceSnapshot{ScenarioName: name, RunID: runID, Trace: result.Trace}.canonical())
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/{name}.golden. Regenerate with `go test -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return assertSnapshot(t, scenario.Name, scenario.RunID, result)
}

// AssertGolden compares an existing result with the scenario's golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	return assertSnapshot(t, scenarioName, "", result)
}

func assertSnapshot(t *testing.T, name, runID string, result *Result) error {
	t.Helper()
	data, err := MarshalSnapshot(name, runID, result)
	if err != nil {
		return err
	}
	goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, name, data)
	return nil
}

// GoldenPath returns the golden file of a scenario under dir.
func GoldenPath(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+".golden")
}

// UpdateGolden writes the trace of result as the scenario's golden file.
func UpdateGolden(dir string, scenario *Scenario, result *Result) error {
	data, err := MarshalSnapshot(scenario.Name, scenario.RunID, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, scenario.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the trace of result matches the scenario's
// golden file. found is false when there is no golden file.
func CompareGolden(dir string, scenario *Scenario, result *Result) (match, found bool, err error) {
	golden, err := os.ReadFile(GoldenPath(dir, scenario.Name))
	if errors.Is(err, os.ErrNotExist) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read golden file: %w", err)
	}

	current, err := MarshalSnapshot(scenario.Name, scenario.RunID, result)
	if err != nil {
		return false, true, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return bytes.Equal(golden, current), true, nil
}
