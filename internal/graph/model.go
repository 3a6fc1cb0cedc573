// Package graph provides the keyword co-occurrence data model for dec-go.
//
// It defines the canonical edge key that identifies an undirected pair of
// keywords, independent of the order in which the pair was observed.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// edgeSeparator joins the two endpoints of an EdgeKey in its string form.
const edgeSeparator = ","

var (
	// ErrEdgeNotFound is returned when an operation targets an edge that does
	// not exist. Decay bookkeeping never triggers it when buckets are correct.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrSelfLoop is returned when both endpoints of a pair are the same keyword.
	ErrSelfLoop = errors.New("self-loop pairs are not edges")

	// ErrInvalidEdgeKey is returned when an edge key string cannot be parsed.
	ErrInvalidEdgeKey = errors.New("invalid edge key")
)

// EdgeKey identifies an undirected co-occurrence edge.
//
// A is always the lexicographically smaller keyword, so (a,b) and (b,a)
// produce the same key.
type EdgeKey struct {
	A string
	B string
}

// NewEdgeKey canonicalizes an unordered pair of keywords.
func NewEdgeKey(word1, word2 string) EdgeKey {
	if word2 < word1 {
		word1, word2 = word2, word1
	}
	return EdgeKey{A: word1, B: word2}
}

// String renders the key as "a,b".
func (k EdgeKey) String() string {
	return k.A + edgeSeparator + k.B
}

// IsSelfLoop reports whether both endpoints are the same keyword.
func (k EdgeKey) IsSelfLoop() bool {
	return k.A == k.B
}

// Other returns the endpoint opposite to word.
func (k EdgeKey) Other(word string) string {
	if word == k.A {
		return k.B
	}
	return k.A
}

// ParseEdgeKey parses the "a,b" form produced by EdgeKey.String.
// The result is canonicalized, so "b,a" parses to the same key as "a,b".
func ParseEdgeKey(s string) (EdgeKey, error) {
	word1, word2, ok := strings.Cut(s, edgeSeparator)
	if !ok || word1 == "" || word2 == "" {
		return EdgeKey{}, fmt.Errorf("%w: %q", ErrInvalidEdgeKey, s)
	}
	return NewEdgeKey(word1, word2), nil
}

// Edge is a weighted co-occurrence edge as returned by graph iteration.
type Edge struct {
	Key    EdgeKey
	Weight int
}
