package counter

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Increment(ctx, "colors", "red", 1))
	require.NoError(t, p.Increment(ctx, "colors", "red", 1))
	require.NoError(t, p.Increment(ctx, "colors", "blue", 1))

	assert.Equal(t, float64(2), testutil.ToFloat64(p.Collector().WithLabelValues("colors", "red")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.Collector().WithLabelValues("colors", "blue")))
	assert.Equal(t, 2, testutil.CollectAndCount(p.Collector()))

	assert.ErrorIs(t, p.Increment(ctx, "", "x", 1), ErrInvalidIncrement)
}

func TestPrometheusReusesRegisteredVector(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheus(reg)
	require.NoError(t, err)
	second, err := NewPrometheus(reg)
	require.NoError(t, err)

	require.NoError(t, second.Increment(context.Background(), "colors", "red", 1))
	assert.Equal(t, float64(1), testutil.ToFloat64(first.Collector().WithLabelValues("colors", "red")))
}
