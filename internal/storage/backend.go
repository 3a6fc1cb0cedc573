// Package storage persists DEC results for dec-go.
//
// It defines the ResultStore interface that all storage implementations must
// satisfy, along with the record types shared across backends. Only results
// are stored; the engine's graph, buckets and windows live in memory for the
// duration of a run.
package storage

import (
	"context"
	"time"

	"github.com/Benny93/dec-go/internal/engine"
	"github.com/Benny93/dec-go/internal/text"
	"github.com/Benny93/dec-go/internal/topics"
)

// RunInfo describes one pass of the engine over an interval sequence.
type RunInfo struct {
	// ID is the unique run identifier.
	ID string `json:"id"`

	// Name is a human readable label, usually the input folder name.
	Name string `json:"name"`

	// Source is the input folder or stream the run consumed.
	Source string `json:"source"`

	// Window is the P the engine ran with.
	Window int `json:"window"`

	// TopK is the report size the engine ran with.
	TopK int `json:"top_k"`

	// Intervals is the number of intervals stored so far.
	Intervals int `json:"intervals"`

	// StartedAt and UpdatedAt bound the run in wall time.
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntervalRecord is the persisted result of one interval.
type IntervalRecord struct {
	RunID      string                `json:"run_id"`
	Interval   int                   `json:"interval"`
	Source     string                `json:"source"`
	Documents  int                   `json:"documents"`
	Pairs      int                   `json:"pairs"`
	Nodes      int                   `json:"nodes"`
	Edges      int                   `json:"edges"`
	Converged  bool                  `json:"converged"`
	Iterations int                   `json:"iterations"`
	Removed    []string              `json:"removed,omitempty"`
	Keywords   []engine.KeywordScore `json:"keywords"`
	Topics     []topics.Topic        `json:"topics,omitempty"`
	StoredAt   time.Time             `json:"stored_at"`
}

// IntervalSummary is an IntervalRecord without its keyword list.
type IntervalSummary struct {
	Interval  int    `json:"interval"`
	Source    string `json:"source"`
	Documents int    `json:"documents"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
	Converged bool   `json:"converged"`
	Top       string `json:"top,omitempty"`
}

// KeywordPoint is one keyword's score in one interval.
type KeywordPoint struct {
	Interval   int     `json:"interval"`
	DEC        float64 `json:"dec"`
	Centrality float64 `json:"centrality"`
	Slope      float64 `json:"slope"`
}

// NewIntervalRecord converts an engine result into a storable record.
func NewIntervalRecord(runID, source string, r *engine.IntervalResult) *IntervalRecord {
	return &IntervalRecord{
		RunID:      runID,
		Interval:   r.Interval,
		Source:     source,
		Documents:  r.Documents,
		Pairs:      r.Pairs,
		Nodes:      r.Nodes,
		Edges:      r.Edges,
		Converged:  r.Converged,
		Iterations: r.Iterations,
		Removed:    r.Removed,
		Keywords:   r.Ranked,
		Topics:     r.Topics,
		StoredAt:   time.Now().UTC(),
	}
}

// Summary drops the keyword list, keeping the top keyword's name.
func (r *IntervalRecord) Summary() IntervalSummary {
	s := IntervalSummary{
		Interval:  r.Interval,
		Source:    r.Source,
		Documents: r.Documents,
		Nodes:     r.Nodes,
		Edges:     r.Edges,
		Converged: r.Converged,
	}
	if len(r.Keywords) > 0 {
		s.Top = r.Keywords[0].Keyword
	}
	return s
}

// Top returns at most limit keywords. A limit of zero or less returns all.
func (r *IntervalRecord) Top(limit int) []engine.KeywordScore {
	if limit <= 0 || limit > len(r.Keywords) {
		return r.Keywords
	}
	return r.Keywords[:limit]
}

// ResultStore defines the interface for result storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type ResultStore interface {
	// Lifecycle methods

	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// Runs

	// SaveRun creates or replaces run metadata.
	SaveRun(ctx context.Context, run *RunInfo) error

	// GetRun returns the run with the given ID, or nil if not found.
	GetRun(ctx context.Context, runID string) (*RunInfo, error)

	// ListRuns returns all runs, most recently started first.
	ListRuns(ctx context.Context) ([]*RunInfo, error)

	// LatestRun returns the most recently started run, or nil if none.
	LatestRun(ctx context.Context) (*RunInfo, error)

	// DeleteRun removes a run and all its intervals.
	// Returns the number of intervals removed.
	DeleteRun(ctx context.Context, runID string) (int, error)

	// Intervals

	// SaveInterval stores an interval result and indexes its keywords.
	SaveInterval(ctx context.Context, rec *IntervalRecord) error

	// GetInterval returns one interval result, or nil if not found.
	GetInterval(ctx context.Context, runID string, interval int) (*IntervalRecord, error)

	// ListIntervals returns interval summaries in interval order.
	ListIntervals(ctx context.Context, runID string) ([]IntervalSummary, error)

	// KeywordHistory returns a keyword's scores in interval order.
	KeywordHistory(ctx context.Context, runID, keyword string) ([]KeywordPoint, error)
}

// HistoryReader reads per-keyword score histories.
type HistoryReader interface {
	KeywordHistory(ctx context.Context, runID, keyword string) ([]KeywordPoint, error)
}

// FindKeywordHistory looks keyword up as given and, when nothing is stored
// under it, under its stem. Keywords are stored stemmed, so both "explosion"
// and "explos" find the same history. It returns the key that was used.
func FindKeywordHistory(ctx context.Context, r HistoryReader, runID, keyword string) (string, []KeywordPoint, error) {
	points, err := r.KeywordHistory(ctx, runID, keyword)
	if err != nil || len(points) > 0 {
		return keyword, points, err
	}
	stem := text.Stem(keyword)
	if stem == keyword {
		return keyword, points, nil
	}
	points, err = r.KeywordHistory(ctx, runID, stem)
	if err != nil {
		return keyword, nil, err
	}
	if len(points) == 0 {
		return keyword, points, nil
	}
	return stem, points, nil
}
