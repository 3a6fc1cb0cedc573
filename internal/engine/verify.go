package engine

import (
	"errors"
	"fmt"
)

// ErrInconsistentState is returned by Verify when graph, buckets and windows
// disagree.
var ErrInconsistentState = errors.New("inconsistent engine state")

// Stats summarizes the engine's carried state.
type Stats struct {
	Interval    int `json:"interval"`
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	TotalWeight int `json:"total_weight"`
	Windows     int `json:"windows"`
}

// Stats returns a snapshot of the carried state sizes.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		Interval:    e.interval,
		Nodes:       e.graph.NodeCount(),
		Edges:       e.graph.EdgeCount(),
		TotalWeight: e.graph.TotalWeight(),
		Windows:     e.windows.Len(),
	}
}

// Verify checks the engine's cross-structure invariants:
//
//   - every edge weight equals the sum of its un-decayed bucket deltas
//   - every keyword with a window is a graph node
//   - every graph node has a window, unless the last interval's centrality
//     did not converge
func (e *Engine) Verify() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, edge := range e.graph.Edges() {
		if pending := e.buckets.Pending(edge.Key); pending != edge.Weight {
			return fmt.Errorf("%w: edge %s has weight %d but buckets hold %d",
				ErrInconsistentState, edge.Key, edge.Weight, pending)
		}
	}

	for i := 0; i < e.buckets.Len(); i++ {
		for key := range e.buckets.Bucket(i) {
			if !e.graph.HasEdge(key.A, key.B) {
				return fmt.Errorf("%w: bucket %d references missing edge %s",
					ErrInconsistentState, i, key)
			}
		}
	}

	for _, word := range e.windows.Words() {
		if !e.graph.HasNode(word) {
			return fmt.Errorf("%w: window for removed keyword %q", ErrInconsistentState, word)
		}
	}

	if e.converged {
		for _, word := range e.graph.Nodes() {
			if !e.windows.Has(word) {
				return fmt.Errorf("%w: keyword %q has no window", ErrInconsistentState, word)
			}
		}
	}
	return nil
}
