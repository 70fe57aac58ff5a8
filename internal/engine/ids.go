package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator names elaboration runs.
type RunIDGenerator interface {
	Generate() string
}

// RunIDFunc adapts a plain function to RunIDGenerator.
type RunIDFunc func() string

// Generate calls f.
func (f RunIDFunc) Generate() string { return f() }

// UUIDv7Generator is the default generator. UUIDv7 leads with a
// millisecond timestamp, so `elabql history` lists runs in the order they
// were started. Safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7, falling back to a random UUID if
// the clock cannot be read.
func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// FixedGenerator hands out a fixed list of run IDs, one per run, and
// panics once the list is used up so a test that starts an unexpected run
// fails loudly.
type FixedGenerator struct {
	mu      sync.Mutex
	pending []string
	used    int
}

// NewFixedGenerator returns a generator for ids, in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{pending: ids}
}

// Generate pops the next ID.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.pending) == 0 {
		panic(fmt.Sprintf("FixedGenerator: run %d has no ID left", g.used+1))
	}
	id := g.pending[0]
	g.pending = g.pending[1:]
	g.used++
	return id
}
