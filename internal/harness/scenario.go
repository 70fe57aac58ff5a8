package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a batch of queries
// elaborated as one run, with per-step expectations and assertions over the
// whole run and its recorded elaboration log.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are elaborated in order as a single run.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the recorded log.
	// Supported types: same_core, distinct_core, outcome_count, recorded
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "test-run-default" so golden files are stable.
	RunID string `yaml:"run_id,omitempty"`
}

// Step is one query of a scenario. Exactly one of Query and Tree is set.
type Step struct {
	// Name identifies the step in expectations, assertions and the trace.
	Name string `yaml:"name"`

	// Query is EdgeQL query text.
	Query string `yaml:"query,omitempty"`

	// Tree is the path of a syntax tree document (.cue or .json).
	// Relative paths are resolved against the scenario's base path.
	Tree string `yaml:"tree,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, no validation is performed for this step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "ok" or "error".
	Outcome string `yaml:"outcome"`

	// Code is the expected error code (e.g. "E202", "PARSE_ERROR").
	Code string `yaml:"code,omitempty"`

	// Core is the expected core expression in ir.Format notation.
	Core string `yaml:"core,omitempty"`

	// SQL is the expected plan SQL.
	SQL string `yaml:"sql,omitempty"`

	// Plannable, if set, says whether the core lowers to a storage plan.
	Plannable *bool `yaml:"plannable,omitempty"`
}

// Assertion validates the trace or the recorded log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "same_core": Steps elaborate to the same core expression
	// - "distinct_core": Steps elaborate to pairwise different cores
	// - "outcome_count": Exactly Count steps have Outcome (and Code, if set)
	// - "recorded": Query a log table and verify expected values
	Type string `yaml:"type"`

	// Steps are the step names compared (used by same_core, distinct_core).
	Steps []string `yaml:"steps,omitempty"`

	// Outcome and Code select the steps counted (used by outcome_count).
	Outcome string `yaml:"outcome,omitempty"`
	Code    string `yaml:"code,omitempty"`

	// Count is the expected number of matching steps (used by outcome_count).
	Count int `yaml:"count,omitempty"`

	// Table is the log table name, "runs" or "elaborations" (used by recorded).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by recorded).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected column values (used by recorded).
	// Subset match - only specified columns are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSameCore     = "same_core"
	AssertDistinctCore = "distinct_core"
	AssertOutcomeCount = "outcome_count"
	AssertRecorded     = "recorded"
)

// Step outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Tree paths are resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving tree paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve tree paths BEFORE validation so existence checks see real paths
	for i, step := range scenario.Steps {
		if step.Tree != "" && !filepath.IsAbs(step.Tree) && basePath != "" {
			scenario.Steps[i].Tree = filepath.Join(basePath, step.Tree)
		}
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// ValidateScenario checks that required fields are present and valid.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Steps))
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
		if names[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		names[step.Name] = true
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, names); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Name == "" {
		return fmt.Errorf("steps[%d]: name is required", index)
	}

	switch {
	case step.Query == "" && step.Tree == "":
		return fmt.Errorf("steps[%d]: one of query or tree is required", index)
	case step.Query != "" && step.Tree != "":
		return fmt.Errorf("steps[%d]: query and tree are mutually exclusive", index)
	}

	if step.Tree != "" {
		if _, err := os.Stat(step.Tree); os.IsNotExist(err) {
			return &TreeNotFoundError{Step: step.Name, Path: step.Tree}
		}
	}

	if e := step.Expect; e != nil {
		switch e.Outcome {
		case OutcomeOK:
			if e.Code != "" {
				return fmt.Errorf("steps[%d].expect: code requires outcome %q", index, OutcomeError)
			}
		case OutcomeError:
			if e.Core != "" || e.SQL != "" || e.Plannable != nil {
				return fmt.Errorf("steps[%d].expect: core, sql and plannable require outcome %q", index, OutcomeOK)
			}
		case "":
			return fmt.Errorf("steps[%d].expect: outcome is required", index)
		default:
			return fmt.Errorf("steps[%d].expect: unknown outcome %q", index, e.Outcome)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSameCore, AssertDistinctCore:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: at least two steps are required for %s", index, a.Type)
		}
		for _, name := range a.Steps {
			if !steps[name] {
				return fmt.Errorf("assertions[%d]: unknown step %q", index, name)
			}
		}
	case AssertOutcomeCount:
		if a.Outcome != OutcomeOK && a.Outcome != OutcomeError {
			return fmt.Errorf("assertions[%d]: outcome must be %q or %q for outcome_count", index, OutcomeOK, OutcomeError)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	case AssertRecorded:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for recorded", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for recorded", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// TreeNotFoundError is returned when a step references a syntax tree
// document that doesn't exist.
type TreeNotFoundError struct {
	Step string
	Path string
}

// Error implements the error interface.
func (e *TreeNotFoundError) Error() string {
	return fmt.Sprintf("step %q references syntax tree %q which does not exist", e.Step, e.Path)
}
