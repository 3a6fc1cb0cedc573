package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEdgeKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		word1  string
		word2  string
		expect EdgeKey
	}{
		{"AlreadyOrdered", "apple", "banana", EdgeKey{A: "apple", B: "banana"}},
		{"Reversed", "banana", "apple", EdgeKey{A: "apple", B: "banana"}},
		{"PrefixOrdersFirst", "runner", "run", EdgeKey{A: "run", B: "runner"}},
		{"SameWord", "boston", "boston", EdgeKey{A: "boston", B: "boston"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, NewEdgeKey(tt.word1, tt.word2))
		})
	}
}

func TestEdgeKey_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a,b", NewEdgeKey("b", "a").String())
}

func TestEdgeKey_Other(t *testing.T) {
	t.Parallel()

	key := NewEdgeKey("a", "b")
	assert.Equal(t, "b", key.Other("a"))
	assert.Equal(t, "a", key.Other("b"))
}

func TestEdgeKey_IsSelfLoop(t *testing.T) {
	t.Parallel()

	assert.True(t, NewEdgeKey("a", "a").IsSelfLoop())
	assert.False(t, NewEdgeKey("a", "b").IsSelfLoop())
}

func TestParseEdgeKey(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		key, err := ParseEdgeKey("boston,marathon")
		require.NoError(t, err)
		assert.Equal(t, EdgeKey{A: "boston", B: "marathon"}, key)
	})

	t.Run("Canonicalizes", func(t *testing.T) {
		key, err := ParseEdgeKey("marathon,boston")
		require.NoError(t, err)
		assert.Equal(t, EdgeKey{A: "boston", B: "marathon"}, key)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		original := NewEdgeKey("x", "y")
		parsed, err := ParseEdgeKey(original.String())
		require.NoError(t, err)
		assert.Equal(t, original, parsed)
	})

	for _, bad := range []string{"", "single", ",b", "a,"} {
		t.Run("Invalid_"+bad, func(t *testing.T) {
			_, err := ParseEdgeKey(bad)
			assert.ErrorIs(t, err, ErrInvalidEdgeKey)
		})
	}
}
