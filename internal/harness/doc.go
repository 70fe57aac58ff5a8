// Package harness provides conformance testing for the elaborator.
//
// A scenario is a batch of queries elaborated as one run through the
// engine, with the expected outcome of each query and assertions over the
// run and its recorded elaboration log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run_id: fixed-run-id
//	steps:
//	  - name: all_users
//	    query: "select User"
//	    expect:
//	      outcome: ok
//	      core: 'filter_order(User, \(true), \(()))'
//	      sql: 'SELECT * FROM "User" ORDER BY "id" COLLATE BINARY ASC'
//	  - name: from_tree
//	    tree: trees/users.cue
//	  - name: duplicate_label
//	    query: "select User { name, name }"
//	    expect:
//	      outcome: error
//	      code: E202
//	assertions:
//	  - type: same_core
//	    steps: [all_users, from_tree]
//	  - type: outcome_count
//	    outcome: error
//	    count: 1
//	  - type: recorded
//	    table: elaborations
//	    where: { name: duplicate_label }
//	    expect: { outcome: error, error_code: E202 }
//
// # Assertion Types
//
//   - same_core: The listed steps elaborate to one core expression
//   - distinct_core: The listed steps elaborate to pairwise different cores
//   - outcome_count: Exactly N steps have an outcome (and error code)
//   - recorded: Queries a log table and verifies expected column values
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run ID, a fresh logical clock and a
// fresh in-memory SQLite database, so traces are identical across runs
// and can be compared against golden files (see RunWithGolden).
package harness
