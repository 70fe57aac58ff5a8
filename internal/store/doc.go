// Package store provides SQLite-backed durable storage for elaboration logs.
//
// The store is an append-only log with:
//   - Runs: one invocation of the engine over a batch of queries
//   - Elaborations: the outcome of elaborating one query source in a run
//
// # Invariants
//
// Idempotent recording
//   - UNIQUE(run_id, source_hash) with ON CONFLICT DO NOTHING
//   - Recording the same source twice in a run keeps the first record
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - Histories read back identically regardless of wall time
//
// Deterministic results
//   - Every list query ends with: ORDER BY seq ASC, id COLLATE BINARY ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Elaborations must reference a recorded run
//
// Content-addressed IDs come from internal/ir/hash.go (SHA-256 with domain
// separation); core expressions are stored as RFC 8785 canonical JSON.
package store
