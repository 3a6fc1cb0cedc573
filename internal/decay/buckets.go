// Package decay ages co-occurrence evidence out of the keyword graph.
//
// A BucketManager holds a ring of P buckets. Each interval writes its edge
// deltas into bucket (interval mod P); when the ring comes back around to
// that bucket P intervals later, its contents are subtracted from the graph
// and the bucket is reused. The graph therefore always reflects exactly the
// last P intervals of evidence.
package decay

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Benny93/dec-go/internal/graph"
)

// ErrInvalidWindow is returned when fewer than 2 buckets are requested.
var ErrInvalidWindow = errors.New("bucket count must be at least 2")

// ErrBucketIndex is returned for a bucket index outside [0, P).
var ErrBucketIndex = errors.New("bucket index out of range")

// WindowRemover drops the centrality history of a keyword that left the graph.
type WindowRemover interface {
	Remove(word string)
}

// BucketManager owns the P per-interval delta buckets.
type BucketManager struct {
	buckets []map[graph.EdgeKey]int
}

// NewBucketManager creates p empty buckets.
func NewBucketManager(p int) (*BucketManager, error) {
	if p < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, p)
	}

	buckets := make([]map[graph.EdgeKey]int, p)
	for i := range buckets {
		buckets[i] = make(map[graph.EdgeKey]int)
	}
	return &BucketManager{buckets: buckets}, nil
}

// Len returns the number of buckets P.
func (m *BucketManager) Len() int {
	return len(m.buckets)
}

// BucketFor maps a zero-based interval index onto its bucket.
func (m *BucketManager) BucketFor(interval int) int {
	return interval % len(m.buckets)
}

// Record accumulates delta for key in the given bucket.
func (m *BucketManager) Record(key graph.EdgeKey, delta, index int) error {
	if index < 0 || index >= len(m.buckets) {
		return fmt.Errorf("%w: %d", ErrBucketIndex, index)
	}
	m.buckets[index][key] += delta
	return nil
}

// Bucket returns a copy of the bucket's contents.
func (m *BucketManager) Bucket(index int) map[graph.EdgeKey]int {
	if index < 0 || index >= len(m.buckets) {
		return nil
	}
	out := make(map[graph.EdgeKey]int, len(m.buckets[index]))
	for key, weight := range m.buckets[index] {
		out[key] = weight
	}
	return out
}

// Pending returns the total not-yet-decayed contribution recorded for key
// across all buckets.
func (m *BucketManager) Pending(key graph.EdgeKey) int {
	total := 0
	for _, bucket := range m.buckets {
		total += bucket[key]
	}
	return total
}

// DecayAndClear subtracts every delta in the bucket from g, removes the
// windows of keywords that dropped out of the graph and empties the bucket.
//
// Returns the keywords removed from the graph. Edges are processed in
// canonical key order. On a missing edge the error is returned immediately
// and the bucket is left as-is for inspection.
func (m *BucketManager) DecayAndClear(g *graph.WeightedGraph, index int, windows WindowRemover) ([]string, error) {
	if index < 0 || index >= len(m.buckets) {
		return nil, fmt.Errorf("%w: %d", ErrBucketIndex, index)
	}

	bucket := m.buckets[index]
	keys := make([]graph.EdgeKey, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	var deleted []string
	for _, key := range keys {
		removed, err := g.Decrement(key.A, key.B, bucket[key])
		if err != nil {
			return deleted, fmt.Errorf("decaying bucket %d: %w", index, err)
		}
		for _, word := range removed {
			if windows != nil {
				windows.Remove(word)
			}
			deleted = append(deleted, word)
		}
	}

	m.buckets[index] = make(map[graph.EdgeKey]int)
	return deleted, nil
}
