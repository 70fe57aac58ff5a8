package store

import "github.com/roach88/elabql/internal/ir"

// Outcome is the result kind of one elaboration.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Run is one engine pass over a batch of queries.
type Run struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Label         string `json:"label,omitempty"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// RunSummary is a run with its elaboration counts.
type RunSummary struct {
	Run
	Total  int `json:"total"`
	Errors int `json:"errors"`
}

// Elaboration is the recorded outcome of elaborating one source.
//
// On write, Core (when set) is the source of truth: CoreJSON, CoreText and
// CoreHash are derived from it. On read, Core is nil and the derived fields
// are filled from the log.
type Elaboration struct {
	ID         string  `json:"id"`
	RunID      string  `json:"run_id"`
	Seq        int64   `json:"seq"`
	Name       string  `json:"name"`
	Source     string  `json:"source"`
	SourceHash string  `json:"source_hash"`
	Outcome    Outcome `json:"outcome"`

	Core     ir.Expr `json:"-"`
	CoreJSON string  `json:"core,omitempty"`
	CoreText string  `json:"core_text,omitempty"`
	CoreHash string  `json:"core_hash,omitempty"`

	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	PlanSQL string `json:"plan_sql,omitempty"`
}
