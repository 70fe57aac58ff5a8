// Package engine drives query sources through the elaboration pipeline and
// records the outcomes.
//
// PIPELINE:
//
// Each source goes through the same steps:
//  1. Parse: query text → qlast tree (skipped for pre-parsed trees)
//  2. Elaborate: qlast tree → core IR
//  3. Validate: output invariants (no free head name, no dangling index)
//  4. Hash: content address of the canonical core encoding
//  5. Plan: lower to a storage plan and compile SQLite SQL, when plannable
//
// A batch is one run. ProcessAll elaborates the sources of a run
// concurrently and then records them in a single transaction.
//
// DETERMINISM:
//
// Results keep the order of the input sources regardless of which worker
// finished first. Sequence numbers come from a logical Clock and are
// assigned in input order, never in completion order. Replay re-elaborates
// a recorded run and reports every source whose outcome changed.
package engine
