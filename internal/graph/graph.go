// Package graph provides the in-memory weighted co-occurrence graph for dec-go.
//
// It provides a lightweight, map-backed undirected graph over keyword nodes
// with positive integer edge weights. Adjacency is stored symmetrically so
// degree and neighbor lookups are O(1) and O(degree) respectively.
package graph

import (
	"fmt"
	"sort"
	"sync"
)

// WeightedGraph is an undirected graph of keywords weighted by how often
// each pair co-occurred in still-live intervals.
//
// A node exists only while it has at least one edge. Decrementing an edge to
// zero removes it, and removing the last edge of a node removes the node.
type WeightedGraph struct {
	mu        sync.RWMutex
	adjacency map[string]map[string]int
	edgeCount int
}

// NewWeightedGraph creates a new empty graph.
func NewWeightedGraph() *WeightedGraph {
	return &WeightedGraph{
		adjacency: make(map[string]map[string]int),
	}
}

// NodeCount returns the number of keyword nodes.
func (g *WeightedGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adjacency)
}

// EdgeCount returns the number of undirected edges.
func (g *WeightedGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

// AddOrIncrement records one co-occurrence of word1 and word2.
//
// Missing endpoints are created, a missing edge starts at weight 1 and an
// existing edge is incremented by 1. Returns the canonical edge key.
func (g *WeightedGraph) AddOrIncrement(word1, word2 string) (EdgeKey, error) {
	key := NewEdgeKey(word1, word2)
	if key.IsSelfLoop() {
		return key, fmt.Errorf("%w: %q", ErrSelfLoop, word1)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	a := g.ensureNode(key.A)
	b := g.ensureNode(key.B)

	if _, ok := a[key.B]; !ok {
		g.edgeCount++
	}
	a[key.B]++
	b[key.A] = a[key.B]

	return key, nil
}

// Decrement subtracts amount from the weight of the edge between word1 and
// word2. An edge whose weight drops to zero or below is removed, and any
// endpoint left without edges is removed too.
//
// Returns the keywords removed from the graph, in canonical endpoint order.
// Decrementing an edge that does not exist returns ErrEdgeNotFound and leaves
// the graph untouched.
func (g *WeightedGraph) Decrement(word1, word2 string, amount int) ([]string, error) {
	key := NewEdgeKey(word1, word2)

	g.mu.Lock()
	defer g.mu.Unlock()

	weight, ok := g.adjacency[key.A][key.B]
	if !ok {
		return nil, fmt.Errorf("decrementing %s: %w", key, ErrEdgeNotFound)
	}

	weight -= amount
	if weight > 0 {
		g.adjacency[key.A][key.B] = weight
		g.adjacency[key.B][key.A] = weight
		return nil, nil
	}

	delete(g.adjacency[key.A], key.B)
	delete(g.adjacency[key.B], key.A)
	g.edgeCount--

	var removed []string
	for _, word := range []string{key.A, key.B} {
		if len(g.adjacency[word]) == 0 {
			delete(g.adjacency, word)
			removed = append(removed, word)
		}
	}
	return removed, nil
}

// Weight returns the weight of the edge between word1 and word2, or 0 if the
// edge does not exist.
func (g *WeightedGraph) Weight(word1, word2 string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.adjacency[word1][word2]
}

// HasEdge reports whether word1 and word2 are connected.
func (g *WeightedGraph) HasEdge(word1, word2 string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adjacency[word1][word2]
	return ok
}

// HasNode reports whether the keyword is present in the graph.
func (g *WeightedGraph) HasNode(word string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adjacency[word]
	return ok
}

// Degree returns the number of distinct neighbors of the keyword.
func (g *WeightedGraph) Degree(word string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.adjacency[word])
}

// Nodes returns all keywords in sorted order.
func (g *WeightedGraph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]string, 0, len(g.adjacency))
	for word := range g.adjacency {
		nodes = append(nodes, word)
	}
	sort.Strings(nodes)
	return nodes
}

// Neighbors returns a copy of the neighbor->weight map for the keyword.
func (g *WeightedGraph) Neighbors(word string) map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nbrs, ok := g.adjacency[word]
	if !ok {
		return nil
	}

	result := make(map[string]int, len(nbrs))
	for nbr, weight := range nbrs {
		result[nbr] = weight
	}
	return result
}

// Edges returns every edge once, sorted by canonical key.
func (g *WeightedGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, 0, g.edgeCount)
	for a, nbrs := range g.adjacency {
		for b, weight := range nbrs {
			if a < b {
				edges = append(edges, Edge{Key: EdgeKey{A: a, B: b}, Weight: weight})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Key.A != edges[j].Key.A {
			return edges[i].Key.A < edges[j].Key.A
		}
		return edges[i].Key.B < edges[j].Key.B
	})
	return edges
}

// TotalWeight returns the sum of all edge weights.
func (g *WeightedGraph) TotalWeight() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for a, nbrs := range g.adjacency {
		for b, weight := range nbrs {
			if a < b {
				total += weight
			}
		}
	}
	return total
}

// Stats returns a summary of graph size.
func (g *WeightedGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return map[string]int{
		"nodes": len(g.adjacency),
		"edges": g.edgeCount,
	}
}

// ensureNode returns the adjacency row for word, creating it if needed.
// Must be called with the write lock held.
func (g *WeightedGraph) ensureNode(word string) map[string]int {
	row, ok := g.adjacency[word]
	if !ok {
		row = make(map[string]int)
		g.adjacency[word] = row
	}
	return row
}
