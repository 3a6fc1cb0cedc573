package mcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/dec-go/internal/engine"
	"github.com/Benny93/dec-go/internal/storage"
	"github.com/Benny93/dec-go/internal/topics"
)

// mockResults is a mock result store for testing.
type mockResults struct {
	runs      []*storage.RunInfo
	intervals map[int]*storage.IntervalRecord
	history   []storage.KeywordPoint
	err       error
}

func (m *mockResults) ListRuns(ctx context.Context) ([]*storage.RunInfo, error) {
	return m.runs, m.err
}

func (m *mockResults) GetRun(ctx context.Context, runID string) (*storage.RunInfo, error) {
	for _, run := range m.runs {
		if run.ID == runID {
			return run, m.err
		}
	}
	return nil, m.err
}

func (m *mockResults) LatestRun(ctx context.Context) (*storage.RunInfo, error) {
	if len(m.runs) == 0 {
		return nil, m.err
	}
	return m.runs[0], m.err
}

func (m *mockResults) GetInterval(ctx context.Context, runID string, interval int) (*storage.IntervalRecord, error) {
	return m.intervals[interval], m.err
}

func (m *mockResults) ListIntervals(ctx context.Context, runID string) ([]storage.IntervalSummary, error) {
	var summaries []storage.IntervalSummary
	for i := 0; i < len(m.intervals); i++ {
		if rec, ok := m.intervals[i]; ok {
			summaries = append(summaries, rec.Summary())
		}
	}
	return summaries, m.err
}

func (m *mockResults) KeywordHistory(ctx context.Context, runID, keyword string) ([]storage.KeywordPoint, error) {
	if keyword != "explosion" {
		return nil, m.err
	}
	return m.history, m.err
}

func newMockResults() *mockResults {
	return &mockResults{
		runs: []*storage.RunInfo{
			{ID: "r2", Name: "boston", Source: "intervals/", Window: 5, TopK: 2, Intervals: 2, StartedAt: time.Date(2013, 4, 16, 0, 0, 0, 0, time.UTC)},
			{ID: "r1", Name: "old", Window: 3, TopK: 5, StartedAt: time.Date(2013, 4, 15, 0, 0, 0, 0, time.UTC)},
		},
		intervals: map[int]*storage.IntervalRecord{
			0: {RunID: "r2", Interval: 0, Documents: 2, Nodes: 5, Converged: true, Keywords: []engine.KeywordScore{
				{Keyword: "boston"}, {Keyword: "marathon"},
			}},
			1: {RunID: "r2", Interval: 1, Documents: 4, Nodes: 6, Converged: true, Removed: []string{"runner"}, Keywords: []engine.KeywordScore{
				{Keyword: "explosion", DEC: 0.3416, Centrality: 1, Slope: 0.3416},
				{Keyword: "boston", DEC: 0.0464, Centrality: 0.8, Slope: 0.058},
				{Keyword: "line", DEC: -0.0238},
			}, Topics: []topics.Topic{
				{ID: 1, Label: "explosion, boston", Keywords: []string{"explosion", "boston"}, DEC: 0.388},
			}},
		},
		history: []storage.KeywordPoint{
			{Interval: 0, DEC: 0},
			{Interval: 1, DEC: 0.3416, Centrality: 1, Slope: 0.3416},
		},
	}
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	server := NewServer(newMockResults())

	assert.NotNil(t, server)
	assert.NotNil(t, server.results)
	assert.NotNil(t, server.SDKServer())
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()

	server := NewServer(newMockResults())

	t.Run("ListTools", func(t *testing.T) {
		toolNames := make(map[string]bool)
		for _, tool := range server.ListTools() {
			toolNames[tool.Name] = true
		}

		for _, expected := range []string{"dec_top_keywords", "dec_keyword_history", "dec_list_intervals", "dec_list_runs"} {
			assert.True(t, toolNames[expected], "Should have tool: %s", expected)
		}
	})

	t.Run("ToolDescriptions", func(t *testing.T) {
		for _, tool := range server.ListTools() {
			assert.NotEmpty(t, tool.Description)
			require.NotNil(t, tool.InputSchema)
			assert.Equal(t, "object", tool.InputSchema.Type)
		}
	})
}

func TestServer_HandleToolCalls(t *testing.T) {
	t.Parallel()

	server := NewServer(newMockResults())
	ctx := context.Background()

	t.Run("TopKeywordsLatestInterval", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_top_keywords", map[string]any{})

		require.NoError(t, err)
		assert.Contains(t, result, "interval 1 of boston")
		assert.Contains(t, result, "| 1 | explosion | 0.3416")
		assert.Contains(t, result, "| 2 | boston |")
		assert.NotContains(t, result, "| line |", "limit defaults to the run's top-k")
		assert.Contains(t, result, "Decayed out this interval: runner")
		assert.Contains(t, result, "- explosion, boston (DEC 0.3880)")
	})

	t.Run("TopKeywordsExplicit", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_top_keywords", map[string]any{
			"run_id":   "r2",
			"interval": float64(0),
			"limit":    float64(1),
		})

		require.NoError(t, err)
		assert.Contains(t, result, "interval 0 of boston")
		assert.Contains(t, result, "| 1 | boston |")
		assert.NotContains(t, result, "marathon")
	})

	t.Run("TopKeywordsMissingInterval", func(t *testing.T) {
		_, err := server.CallTool(ctx, "dec_top_keywords", map[string]any{"interval": float64(7)})
		assert.ErrorContains(t, err, "interval 7 not found")
	})

	t.Run("KeywordHistory", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_keyword_history", map[string]any{"keyword": " Explosion "})

		require.NoError(t, err)
		assert.Contains(t, result, "History of 'explosion'")
		assert.Contains(t, result, "Peak DEC 0.3416 at interval 1")
	})

	t.Run("KeywordHistoryUnknown", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_keyword_history", map[string]any{"keyword": "weather"})

		require.NoError(t, err)
		assert.Contains(t, result, "does not appear")
	})

	t.Run("KeywordHistoryMissingKeyword", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_keyword_history", map[string]any{})
		assert.NoError(t, err)
		assert.Contains(t, result, "No keyword provided")
	})

	t.Run("ListIntervals", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_list_intervals", map[string]any{"run_id": "latest"})

		require.NoError(t, err)
		assert.Contains(t, result, "- 1: 4 documents, 6 keywords, top 'explosion'")
	})

	t.Run("ListRuns", func(t *testing.T) {
		result, err := server.CallTool(ctx, "dec_list_runs", map[string]any{})

		require.NoError(t, err)
		assert.Contains(t, result, "**boston** (r2)")
		assert.Contains(t, result, "**old** (r1)")
	})

	t.Run("UnknownRun", func(t *testing.T) {
		_, err := server.CallTool(ctx, "dec_list_intervals", map[string]any{"run_id": "nope"})
		assert.ErrorContains(t, err, "run not found")
	})

	t.Run("UnknownTool", func(t *testing.T) {
		result, err := server.CallTool(ctx, "unknown_tool", map[string]any{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tool")
		assert.Empty(t, result)
	})
}

func TestServer_EmptyStore(t *testing.T) {
	t.Parallel()

	server := NewServer(&mockResults{})
	ctx := context.Background()

	result, err := server.CallTool(ctx, "dec_list_runs", nil)
	require.NoError(t, err)
	assert.Contains(t, result, "No runs stored yet")

	_, err = server.CallTool(ctx, "dec_top_keywords", nil)
	assert.ErrorContains(t, err, "no runs stored yet")

	overview, err := server.ReadResource(ctx, "dec://overview")
	require.NoError(t, err)
	assert.Contains(t, overview, "**Runs:** 0")
}

func TestServer_StoreErrors(t *testing.T) {
	t.Parallel()

	results := newMockResults()
	results.err = errors.New("store closed")
	server := NewServer(results)

	_, err := server.CallTool(context.Background(), "dec_list_runs", nil)
	assert.ErrorContains(t, err, "store closed")
}

func TestServer_Resources(t *testing.T) {
	t.Parallel()

	server := NewServer(newMockResults())
	ctx := context.Background()

	t.Run("ResourceMetadata", func(t *testing.T) {
		resources := server.ListResources()
		require.Len(t, resources, 2)
		for _, res := range resources {
			assert.True(t, strings.HasPrefix(res.URI, "dec://"))
			assert.NotEmpty(t, res.Name)
			assert.NotEmpty(t, res.Description)
			assert.NotEmpty(t, res.MimeType)
		}
	})

	t.Run("ReadOverview", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "dec://overview")
		require.NoError(t, err)
		assert.Contains(t, content, "**Latest run:** boston (r2)")
		assert.Contains(t, content, "explosion")
	})

	t.Run("ReadRuns", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "dec://runs")
		require.NoError(t, err)
		assert.Contains(t, content, "Stored Runs")
	})

	t.Run("ReadUnknownResource", func(t *testing.T) {
		content, err := server.ReadResource(ctx, "dec://unknown")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resource")
		assert.Empty(t, content)
	})
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	server := NewServer(newMockResults())

	t.Run("RunWithNilStreams", func(t *testing.T) {
		err := server.Run(context.Background(), nil, nil)
		assert.Error(t, err)
	})

	t.Run("ClientSession", func(t *testing.T) {
		clientIn, serverOut := io.Pipe()
		serverIn, clientOut := io.Pipe()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- server.Run(ctx, serverIn, serverOut) }()

		client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
		session, err := client.Connect(ctx, &mcp.IOTransport{Reader: clientIn, Writer: clientOut}, nil)
		require.NoError(t, err)

		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, tools.Tools, 4)

		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "dec_top_keywords",
			Arguments: map[string]any{"limit": 1},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)
		require.NotEmpty(t, result.Content)
		text := result.Content[0].(*mcp.TextContent).Text
		assert.Contains(t, text, "explosion")
		assert.NotContains(t, text, "| 2 |")

		result, err = session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "dec_top_keywords",
			Arguments: map[string]any{"interval": 7},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)

		resource, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "dec://runs"})
		require.NoError(t, err)
		require.Len(t, resource.Contents, 1)
		assert.Equal(t, "dec://runs", resource.Contents[0].URI)
		assert.Contains(t, resource.Contents[0].Text, "boston")

		_ = session.Close()
		select {
		case <-done:
		case <-ctx.Done():
			t.Fatal("server did not stop after the client disconnected")
		}
	})
}
