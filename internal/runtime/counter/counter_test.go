package counter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIncrementAndCounts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Increment(ctx, "tags", "a", 1))
	require.NoError(t, m.Increment(ctx, "tags", "b", 1))
	require.NoError(t, m.Increment(ctx, "tags", "a", 1))
	require.NoError(t, m.Increment(ctx, "colors", "red", 1))

	counts, err := m.Counts(ctx, "tags")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 2, "b": 1}, counts)
	assert.Equal(t, []string{"colors", "tags"}, m.Names())

	empty, err := m.Counts(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryExactDecimalTotals(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Increment(ctx, "weights", "x", 0.1))
	}
	assert.Equal(t, "1.0", m.Total("weights", "x"))
	assert.Equal(t, "0", m.Total("weights", "y"))
}

func TestMemoryReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Increment(ctx, "colors", "red", 1))
	require.NoError(t, m.Reset(ctx, "colors"))

	counts, err := m.Counts(ctx, "colors")
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Empty(t, m.Names())
}

func TestMemoryRejectsEmptyName(t *testing.T) {
	err := NewMemory().Increment(context.Background(), "", "red", 1)
	assert.ErrorIs(t, err, ErrInvalidIncrement)
}

func TestMemoryConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = m.Increment(ctx, "c", "v", 1)
			}
		}()
	}
	wg.Wait()

	counts, err := m.Counts(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, float64(1000), counts["v"])
}

type failingWriter struct{ err error }

func (f failingWriter) Increment(context.Context, string, string, float64) error { return f.err }

func TestFanout(t *testing.T) {
	ctx := context.Background()
	a, b := NewMemory(), NewMemory()
	boom := errors.New("boom")

	fan := Fanout{a, failingWriter{err: boom}, b}
	err := fan.Increment(ctx, "colors", "red", 1)
	assert.ErrorIs(t, err, boom)

	for _, m := range []*Memory{a, b} {
		counts, err := m.Counts(ctx, "colors")
		require.NoError(t, err)
		assert.Equal(t, float64(1), counts["red"])
	}

	assert.NoError(t, Fanout{a}.Increment(ctx, "colors", "blue", 1))
}
