package harness

// TraceEvent is the observable outcome of one scenario step.
// Only deterministic fields are traced: no hashes, no error messages.
type TraceEvent struct {
	Step    string `json:"step"`
	Seq     int64  `json:"seq"`
	Outcome string `json:"outcome"`         // "ok" or "error"
	Code    string `json:"code,omitempty"`  // error code when Outcome is "error"
	Core    string `json:"core,omitempty"`  // ir.Format of the core expression
	SQL     string `json:"sql,omitempty"`   // plan SQL, when plannable
	Drift   bool   `json:"drift,omitempty"` // differs from an earlier recording
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Event returns the trace event of the named step.
func (r *Result) Event(step string) (TraceEvent, bool) {
	return findEvent(r.Trace, step)
}
