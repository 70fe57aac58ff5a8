package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestClock_Reserve(t *testing.T) {
	tests := []struct {
		name      string
		start     int64
		sizes     []int64
		wantFirst []int64
		wantLast  int64
	}{
		{"fresh single", 0, []int64{1}, []int64{1}, 1},
		{"fresh run of three queries", 0, []int64{4}, []int64{1}, 4},
		{"consecutive runs", 0, []int64{3, 2}, []int64{1, 4}, 5},
		{"resumed", 10, []int64{3}, []int64{11}, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClockAt(tt.start)
			for i, n := range tt.sizes {
				assert.Equal(t, tt.wantFirst[i], c.Reserve(n))
			}
			assert.Equal(t, tt.wantLast, c.Current())
		})
	}
}

func TestClock_ReserveConcurrentBlocksDisjoint(t *testing.T) {
	c := NewClock()
	const runs = 50
	const size = 7

	firsts := make([]int64, runs)
	var g errgroup.Group
	for i := range runs {
		g.Go(func() error {
			firsts[i] = c.Reserve(size)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(firsts, func(i, j int) bool { return firsts[i] < firsts[j] })
	for i, first := range firsts {
		assert.Equal(t, int64(i*size+1), first, "block %d", i)
	}
	assert.Equal(t, int64(runs*size), c.Current())
}

func TestClock_AdvanceTo(t *testing.T) {
	c := NewClockAt(5)

	c.AdvanceTo(3)
	assert.Equal(t, int64(5), c.Current(), "never moves backwards")

	c.AdvanceTo(42)
	assert.Equal(t, int64(43), c.Reserve(1))
}
