// Package mcp provides the MCP (Model Context Protocol) server for dec-go.
//
// The server answers questions about stored DEC runs: which keywords are
// emerging in an interval, how a keyword's score evolved, and which runs
// exist. Tools and resources are served through the MCP go-sdk.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/dec-go/internal/storage"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// defaultLimit is the keyword count used when neither the request nor the
// run specifies one.
const defaultLimit = 10

// Server represents the MCP server.
type Server struct {
	results ResultReader
	server  *mcp.Server
}

// ResultReader is the read side of a result store.
type ResultReader interface {
	ListRuns(ctx context.Context) ([]*storage.RunInfo, error)
	GetRun(ctx context.Context, runID string) (*storage.RunInfo, error)
	LatestRun(ctx context.Context) (*storage.RunInfo, error)
	GetInterval(ctx context.Context, runID string, interval int) (*storage.IntervalRecord, error)
	ListIntervals(ctx context.Context, runID string) ([]storage.IntervalSummary, error)
	KeywordHistory(ctx context.Context, runID, keyword string) ([]storage.KeywordPoint, error)
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server.
func NewServer(results ResultReader) *Server {
	s := &Server{
		results: results,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "dec-go",
		Version: Version,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

// SDKServer returns the go-sdk server with all tools and resources
// registered.
func (s *Server) SDKServer() *mcp.Server {
	return s.server
}

var runIDSchema = &jsonschema.Schema{
	Type:        "string",
	Description: "Run ID, or \"latest\" (default) for the most recent run",
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "dec_top_keywords",
			Description: "List the keywords with the highest Dynamic Eigenvector Centrality in an interval. High DEC means a keyword is both central and gaining centrality: an emerging topic.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"run_id":   runIDSchema,
					"interval": {Type: "integer", Description: "Zero-based interval index. Defaults to the last stored interval"},
					"limit":    {Type: "integer", Description: "Maximum number of keywords. Defaults to the run's top-k"},
				},
			},
		},
		{
			Name:        "dec_keyword_history",
			Description: "Show how one keyword's DEC, centrality and slope evolved across the intervals of a run.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"keyword": {Type: "string", Description: "Keyword to look up. Inflected forms match their stored stem"},
					"run_id":  runIDSchema,
				},
				Required: []string{"keyword"},
			},
		},
		{
			Name:        "dec_list_intervals",
			Description: "List the stored intervals of a run with their size and top keyword.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"run_id": runIDSchema,
				},
			},
		},
		{
			Name:        "dec_list_runs",
			Description: "List all stored DEC runs with their settings and progress.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "dec://overview",
			Name:        "DEC Overview",
			Description: "The latest run and its most recent emerging keywords",
			MimeType:    "text/plain",
		},
		{
			URI:         "dec://runs",
			Name:        "Stored Runs",
			Description: "All stored runs",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	runID, _ := args["run_id"].(string)

	switch name {
	case "dec_list_runs":
		return handleListRuns(ctx, s.results)
	case "dec_top_keywords":
		interval := -1
		if v, ok := args["interval"].(float64); ok {
			interval = int(v)
		}
		limit, _ := args["limit"].(float64)
		return handleTopKeywords(ctx, s.results, runID, interval, int(limit))
	case "dec_keyword_history":
		keyword, _ := args["keyword"].(string)
		return handleKeywordHistory(ctx, s.results, runID, keyword)
	case "dec_list_intervals":
		return handleListIntervals(ctx, s.results, runID)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "dec://overview":
		return getOverview(ctx, s.results)
	case "dec://runs":
		return handleListRuns(ctx, s.results)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run serves MCP over newline-delimited JSON-RPC on the given streams until
// the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}
	return s.server.Run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(stdin),
		Writer: nopWriteCloser{stdout},
	})
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// registerTools registers every tool with the go-sdk server, dispatching to
// CallTool.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		name := tool.Name
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}
			if req.Params != nil && len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, fmt.Errorf("decoding arguments: %w", err)
				}
			}
			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
					IsError: true,
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil
		})
	}
}

// registerResources registers every resource with the go-sdk server,
// dispatching to ReadResource.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		uri, mimeType := res.URI, res.MimeType
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, uri)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
			}, nil
		})
	}
}

// trimLines drops trailing blank lines from a rendered block.
func trimLines(sb *strings.Builder) string {
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
