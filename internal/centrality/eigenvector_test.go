package centrality

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/dec-go/internal/graph"
)

func buildGraph(t *testing.T, pairs ...[2]string) *graph.WeightedGraph {
	t.Helper()
	g := graph.NewWeightedGraph()
	for _, p := range pairs {
		_, err := g.AddOrIncrement(p[0], p[1])
		require.NoError(t, err)
	}
	return g
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	opts := Options{MaxIterations: -1, Tolerance: 0, Retries: -3, RelaxFactor: 0.5}
	opts.Validate()

	assert.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	assert.Equal(t, DefaultTolerance, opts.Tolerance)
	assert.Equal(t, 0, opts.Retries)
	assert.Equal(t, DefaultRelaxFactor, opts.RelaxFactor)
	assert.Equal(t, Options{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Retries:       DefaultRetries,
		RelaxFactor:   DefaultRelaxFactor,
	}, DefaultOptions())
}

func TestCompute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("EmptyGraph", func(t *testing.T) {
		result, err := Compute(ctx, graph.NewWeightedGraph(), DefaultOptions())

		require.NoError(t, err)
		assert.Empty(t, result.Scores)
	})

	t.Run("SingleEdgeIsSymmetric", func(t *testing.T) {
		result, err := Compute(ctx, buildGraph(t, [2]string{"a", "b"}), DefaultOptions())

		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt2/2, result.Scores["a"], 1e-6)
		assert.InDelta(t, result.Scores["a"], result.Scores["b"], 1e-9)
	})

	t.Run("PathCenterDominates", func(t *testing.T) {
		g := buildGraph(t, [2]string{"a", "b"}, [2]string{"b", "c"})

		result, err := Compute(ctx, g, DefaultOptions())

		require.NoError(t, err)
		// principal eigenvector of the 3-path is (1, √2, 1)/2
		assert.InDelta(t, 0.5, result.Scores["a"], 1e-4)
		assert.InDelta(t, math.Sqrt2/2, result.Scores["b"], 1e-4)
		assert.InDelta(t, 0.5, result.Scores["c"], 1e-4)
		assert.Greater(t, result.Iterations, 0)
		assert.Equal(t, 1, result.Attempts)
	})

	t.Run("UnitNorm", func(t *testing.T) {
		g := buildGraph(t,
			[2]string{"a", "b"}, [2]string{"a", "b"}, [2]string{"b", "c"},
			[2]string{"c", "d"}, [2]string{"a", "d"}, [2]string{"d", "e"},
		)

		result, err := Compute(ctx, g, DefaultOptions())

		require.NoError(t, err)
		sum := 0.0
		for _, v := range result.Scores {
			sum += v * v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})

	t.Run("WeightShiftsCentrality", func(t *testing.T) {
		g := buildGraph(t,
			[2]string{"hub", "x"}, [2]string{"hub", "x"}, [2]string{"hub", "x"},
			[2]string{"hub", "y"},
		)

		result, err := Compute(ctx, g, DefaultOptions())

		require.NoError(t, err)
		assert.Greater(t, result.Scores["hub"], result.Scores["x"])
		assert.Greater(t, result.Scores["x"], result.Scores["y"])
	})

	t.Run("NotConverged", func(t *testing.T) {
		g := buildGraph(t, [2]string{"a", "b"}, [2]string{"b", "c"})
		opts := Options{MaxIterations: 1, Tolerance: 1e-9, Retries: 0, RelaxFactor: 10}

		result, err := Compute(ctx, g, opts)

		assert.ErrorIs(t, err, ErrNotConverged)
		assert.Nil(t, result)
	})

	t.Run("RelaxedRetryConverges", func(t *testing.T) {
		g := buildGraph(t, [2]string{"a", "b"}, [2]string{"b", "c"})
		opts := Options{MaxIterations: 1, Tolerance: 0.1, Retries: 1, RelaxFactor: 10}

		result, err := Compute(ctx, g, opts)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Attempts)
		assert.Equal(t, 2, result.Iterations)
		assert.InDelta(t, 1.0, result.Tolerance, 1e-12)
		assert.Len(t, result.Scores, 3)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Compute(cancelled, buildGraph(t, [2]string{"a", "b"}), DefaultOptions())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("TopScoresOne", func(t *testing.T) {
		scores := map[string]float64{"a": 0.5, "b": 0.25, "c": 0.125}

		assert.True(t, Normalize(scores))
		assert.Equal(t, map[string]float64{"a": 1, "b": 0.5, "c": 0.25}, scores)
	})

	t.Run("SkipsSingleNode", func(t *testing.T) {
		scores := map[string]float64{"a": 0.3}

		assert.False(t, Normalize(scores))
		assert.Equal(t, 0.3, scores["a"])
	})

	t.Run("SkipsAllZero", func(t *testing.T) {
		scores := map[string]float64{"a": 0, "b": 0}

		assert.False(t, Normalize(scores))
		assert.Equal(t, map[string]float64{"a": 0, "b": 0}, scores)
	})

	t.Run("SkipsEmpty", func(t *testing.T) {
		assert.False(t, Normalize(map[string]float64{}))
	})
}
