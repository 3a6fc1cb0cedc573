// Package centrality computes weighted eigenvector centrality over the
// keyword co-occurrence graph.
package centrality

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"
)

var tracer = otel.Tracer("centrality.eigenvector")

// ErrNotConverged is returned when power iteration does not settle within
// the iteration budget, even after relaxing the tolerance.
var ErrNotConverged = errors.New("eigenvector centrality did not converge")

// Default power iteration settings.
const (
	// DefaultMaxIterations is the iteration budget per attempt.
	DefaultMaxIterations = 100

	// DefaultTolerance is the per-node L1 convergence threshold.
	DefaultTolerance = 1e-6

	// DefaultRetries is how many relaxed attempts follow a failed one.
	DefaultRetries = 2

	// DefaultRelaxFactor multiplies the tolerance on each retry.
	DefaultRelaxFactor = 10.0
)

// Graph is the read view of a weighted undirected graph.
type Graph interface {
	Nodes() []string
	Neighbors(word string) map[string]int
}

// Options configures the power iteration.
type Options struct {
	// MaxIterations is the iteration budget per attempt. Default: 100
	MaxIterations int `yaml:"max_iterations" validate:"gte=0"`

	// Tolerance is the convergence threshold. Iteration stops when the L1
	// change of the score vector drops below nodes × Tolerance. Default: 1e-6
	Tolerance float64 `yaml:"tolerance" validate:"gte=0"`

	// Retries is the number of extra attempts with a relaxed tolerance.
	Retries int `yaml:"retries" validate:"gte=0"`

	// RelaxFactor multiplies the tolerance before each retry. Default: 10
	RelaxFactor float64 `yaml:"relax_factor" validate:"gte=0"`
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Retries:       DefaultRetries,
		RelaxFactor:   DefaultRelaxFactor,
	}
}

// Validate applies defaults for unset or invalid values.
func (o *Options) Validate() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		o.Tolerance = DefaultTolerance
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RelaxFactor <= 1 || math.IsNaN(o.RelaxFactor) {
		o.RelaxFactor = DefaultRelaxFactor
	}
}

// Result holds the output of a centrality computation.
type Result struct {
	// Scores maps keyword to centrality. The vector has unit Euclidean norm.
	Scores map[string]float64

	// Iterations is the total number of iterations over all attempts.
	Iterations int

	// Attempts is the number of tolerance levels tried.
	Attempts int

	// Tolerance is the tolerance that produced the accepted result.
	Tolerance float64
}

type neighbor struct {
	index  int
	weight float64
}

// Compute returns the weighted eigenvector centrality of every node.
//
// Power iteration runs on A + I so that bipartite components still settle.
// An empty graph yields an empty, successful result. When an attempt fails
// to converge the tolerance is multiplied by RelaxFactor and the iteration is
// restarted, up to Retries times, before ErrNotConverged is returned.
func Compute(ctx context.Context, g Graph, opts Options) (*Result, error) {
	opts.Validate()

	nodes := g.Nodes()
	_, span := tracer.Start(ctx, "centrality.Compute",
		trace.WithAttributes(attribute.Int("node_count", len(nodes))),
	)
	defer span.End()

	if len(nodes) == 0 {
		span.AddEvent("empty_graph")
		return &Result{Scores: make(map[string]float64), Tolerance: opts.Tolerance}, nil
	}

	adjacency := buildAdjacency(g, nodes)

	result := &Result{Tolerance: opts.Tolerance}
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		result.Attempts++

		scores, iterations, converged, err := iterate(ctx, adjacency, opts.MaxIterations, result.Tolerance)
		result.Iterations += iterations
		if err != nil {
			return nil, err
		}

		if converged {
			result.Scores = make(map[string]float64, len(nodes))
			for i, word := range nodes {
				result.Scores[word] = scores[i]
			}
			span.SetAttributes(
				attribute.Int("iterations", result.Iterations),
				attribute.Int("attempts", result.Attempts),
				attribute.Float64("tolerance", result.Tolerance),
			)
			return result, nil
		}

		if attempt < opts.Retries {
			span.AddEvent("relax_tolerance")
			result.Tolerance *= opts.RelaxFactor
		}
	}

	span.AddEvent("not_converged")
	return nil, fmt.Errorf("%w after %d iterations (tolerance %g)",
		ErrNotConverged, result.Iterations, result.Tolerance)
}

// buildAdjacency converts the graph into index-based neighbor lists.
func buildAdjacency(g Graph, nodes []string) [][]neighbor {
	index := make(map[string]int, len(nodes))
	for i, word := range nodes {
		index[word] = i
	}

	adjacency := make([][]neighbor, len(nodes))
	for i, word := range nodes {
		for nbr, weight := range g.Neighbors(word) {
			j, ok := index[nbr]
			if !ok {
				continue
			}
			adjacency[i] = append(adjacency[i], neighbor{index: j, weight: float64(weight)})
		}
	}
	return adjacency
}

// iterate runs one power iteration attempt starting from the uniform vector.
func iterate(ctx context.Context, adjacency [][]neighbor, maxIterations int, tolerance float64) ([]float64, int, bool, error) {
	n := len(adjacency)
	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	last := make([]float64, n)
	threshold := float64(n) * tolerance

	for it := 1; it <= maxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, it - 1, false, err
		}

		copy(last, x)
		for i, nbrs := range adjacency {
			for _, nb := range nbrs {
				x[nb.index] += last[i] * nb.weight
			}
		}

		norm := floats.Norm(x, 2)
		if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
			norm = 1
		}
		floats.Scale(1/norm, x)

		if floats.Distance(x, last, 1) < threshold {
			return x, it, true, nil
		}
	}
	return x, maxIterations, false, nil
}

// Normalize divides every score by the maximum so the top keyword scores 1.
//
// Normalization is skipped, and false returned, when there are fewer than two
// scores or the maximum is not a positive finite number.
func Normalize(scores map[string]float64) bool {
	if len(scores) < 2 {
		return false
	}

	values := make([]float64, 0, len(scores))
	for _, v := range scores {
		values = append(values, v)
	}
	maxScore := floats.Max(values)
	if !(maxScore > 0) || math.IsInf(maxScore, 0) {
		return false
	}

	for word, v := range scores {
		scores[word] = v / maxScore
	}
	return true
}
