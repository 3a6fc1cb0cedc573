// Package engine drives Dynamic Eigenvector Centrality (DEC) over a stream of
// document intervals.
//
// An Engine owns the keyword co-occurrence graph, the decay buckets and the
// per-keyword centrality windows for the lifetime of a run. Each call to
// ProcessInterval runs, in order: bucket decay, document ingestion,
// eigenvector centrality, window update and DEC scoring. Intervals must be
// fed strictly in chronological order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Benny93/dec-go/internal/centrality"
	"github.com/Benny93/dec-go/internal/decay"
	"github.com/Benny93/dec-go/internal/graph"
	"github.com/Benny93/dec-go/internal/topics"
	"github.com/Benny93/dec-go/internal/trend"
)

// Default engine settings.
const (
	// DefaultWindow is the number of intervals P covered by decay and trend.
	DefaultWindow = 5

	// DefaultTopK is how many keywords are reported per interval.
	DefaultTopK = 5
)

// Config configures an Engine. Window is fixed for the lifetime of a run.
type Config struct {
	// Window is P: the decay horizon and the maximum trend window length.
	Window int

	// TopK is the number of ranked keywords exposed via IntervalResult.Top.
	TopK int

	// Centrality configures the power iteration.
	Centrality centrality.Options
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		Window:     DefaultWindow,
		TopK:       DefaultTopK,
		Centrality: centrality.DefaultOptions(),
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// KeywordScore is one keyword's standing in an interval.
type KeywordScore struct {
	Keyword    string  `json:"keyword"`
	DEC        float64 `json:"dec"`
	Centrality float64 `json:"centrality"`
	Slope      float64 `json:"slope"`
	Window     int     `json:"window"`
}

// IntervalResult is the outcome of processing one interval.
type IntervalResult struct {
	// Interval is the zero-based interval index.
	Interval int

	// Bucket is the decay bucket decayed and refilled by this interval.
	Bucket int

	// DEC maps keyword to centrality × slope.
	DEC map[string]float64

	// Centrality maps keyword to (normalized) eigenvector centrality.
	Centrality map[string]float64

	// Ranked lists every keyword by descending DEC, ties broken by keyword.
	Ranked []KeywordScore

	// Removed lists the keywords decayed out of the graph this interval.
	Removed []string

	// Topics groups the emerging keywords among the top TopK by
	// co-occurrence.
	Topics []topics.Topic

	// Documents and Pairs count the ingested documents and co-occurrences.
	Documents int
	Pairs     int

	// Nodes and Edges describe the graph after ingestion.
	Nodes int
	Edges int

	// Converged is false when centrality could not be computed; DEC is then
	// empty but graph, bucket and window state remain consistent.
	Converged bool

	// Normalized reports whether centralities were divided by their maximum.
	Normalized bool

	// Iterations is the power iteration count.
	Iterations int

	// TopK is the configured report size.
	TopK int
}

// Top returns the k best-ranked keywords. A k of zero or less uses TopK.
func (r *IntervalResult) Top(k int) []KeywordScore {
	if k <= 0 {
		k = r.TopK
	}
	if k > len(r.Ranked) {
		k = len(r.Ranked)
	}
	return r.Ranked[:k]
}

// Engine computes DEC values interval by interval.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	graph     *graph.WeightedGraph
	buckets   *decay.BucketManager
	windows   *trend.WindowTracker
	interval  int
	converged bool
	logger    *slog.Logger
	metrics   *Metrics
}

// New creates an Engine with empty state.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	cfg.Centrality.Validate()

	buckets, err := decay.NewBucketManager(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("creating decay buckets: %w", err)
	}
	windows, err := trend.NewWindowTracker(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("creating window tracker: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		graph:     graph.NewWeightedGraph(),
		buckets:   buckets,
		windows:   windows,
		converged: true,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Interval returns the zero-based index of the next interval to process.
func (e *Engine) Interval() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

// Graph exposes the live graph for read-only inspection.
func (e *Engine) Graph() *graph.WeightedGraph {
	return e.graph
}

// Window returns a copy of the keyword's centrality history.
func (e *Engine) Window(word string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows.Window(word)
}

// ProcessInterval consumes one interval of documents, each an ordered list of
// keywords, and returns the DEC values for the interval.
//
// Every distinct pair of positions i < j in a document adds one to the edge
// between the two keywords; repeated keywords therefore add weight, while a
// keyword paired with itself is skipped.
//
// A centrality failure to converge is logged and reported through
// IntervalResult.Converged with an empty DEC map; the interval still counts.
// An error is returned only for cancellation or broken decay bookkeeping.
func (e *Engine) ProcessInterval(ctx context.Context, docs [][]string) (*IntervalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	index := e.interval
	bucket := e.buckets.BucketFor(index)

	// Decay evidence recorded P intervals ago.
	removed, err := e.buckets.DecayAndClear(e.graph, bucket, e.windows)
	if err != nil {
		return nil, fmt.Errorf("interval %d: %w", index, err)
	}

	// From here on state has changed, so the interval counts whatever happens.
	defer func() { e.interval++ }()

	result := &IntervalResult{
		Interval:   index,
		Bucket:     bucket,
		DEC:        make(map[string]float64),
		Centrality: make(map[string]float64),
		Removed:    removed,
		Documents:  len(docs),
		Converged:  true,
		TopK:       e.cfg.TopK,
	}

	pairs, err := e.ingest(docs, bucket)
	if err != nil {
		return nil, fmt.Errorf("interval %d: %w", index, err)
	}
	result.Pairs = pairs
	result.Nodes = e.graph.NodeCount()
	result.Edges = e.graph.EdgeCount()

	scores, err := e.computeCentrality(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("interval %d: %w", index, err)
	}

	if result.Converged && len(scores) > 0 {
		result.Normalized = centrality.Normalize(scores)
		result.Centrality = scores
		e.score(result)
		result.Topics = e.groupTopics(result)
	}
	e.converged = result.Converged

	e.metrics.observe(result, time.Since(start).Seconds())
	e.logger.Debug("interval processed",
		slog.Int("interval", index),
		slog.Int("bucket", bucket),
		slog.Int("documents", result.Documents),
		slog.Int("pairs", result.Pairs),
		slog.Int("nodes", result.Nodes),
		slog.Int("edges", result.Edges),
		slog.Int("removed", len(removed)),
		slog.Int("iterations", result.Iterations),
	)

	return result, nil
}

// ingest adds every co-occurring pair to the graph and records it in the
// current bucket. Must be called with e.mu held.
func (e *Engine) ingest(docs [][]string, bucket int) (int, error) {
	pairs := 0
	for _, doc := range docs {
		for i := 0; i < len(doc); i++ {
			if doc[i] == "" {
				continue
			}
			for j := i + 1; j < len(doc); j++ {
				if doc[j] == "" || doc[j] == doc[i] {
					continue
				}
				key, err := e.graph.AddOrIncrement(doc[i], doc[j])
				if err != nil {
					return pairs, err
				}
				if err := e.buckets.Record(key, 1, bucket); err != nil {
					return pairs, err
				}
				pairs++
			}
		}
	}
	return pairs, nil
}

// computeCentrality runs power iteration and folds non-convergence into the
// result. Must be called with e.mu held.
func (e *Engine) computeCentrality(ctx context.Context, result *IntervalResult) (map[string]float64, error) {
	cres, err := centrality.Compute(ctx, e.graph, e.cfg.Centrality)
	if errors.Is(err, centrality.ErrNotConverged) {
		e.logger.Warn("centrality did not converge, skipping DEC for interval",
			slog.Int("interval", result.Interval),
			slog.Int("nodes", result.Nodes),
			slog.String("error", err.Error()),
		)
		result.Converged = false
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	result.Iterations = cres.Iterations
	return cres.Scores, nil
}

// score pushes centralities into the windows and derives DEC values.
// Must be called with e.mu held.
func (e *Engine) score(result *IntervalResult) {
	for word, value := range result.Centrality {
		e.windows.Push(word, value)
	}

	ranked := make([]KeywordScore, 0, len(result.Centrality))
	for word, value := range result.Centrality {
		slope := e.windows.Slope(word)
		dec := value * slope
		result.DEC[word] = dec
		ranked = append(ranked, KeywordScore{
			Keyword:    word,
			DEC:        dec,
			Centrality: value,
			Slope:      slope,
			Window:     len(e.windows.Window(word)),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DEC != ranked[j].DEC {
			return ranked[i].DEC > ranked[j].DEC
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})
	result.Ranked = ranked
}

// groupTopics clusters the top-ranked keywords with a positive DEC.
// Must be called with e.mu held.
func (e *Engine) groupTopics(result *IntervalResult) []topics.Topic {
	var emerging []string
	for _, kw := range result.Top(0) {
		if kw.DEC > 0 {
			emerging = append(emerging, kw.Keyword)
		}
	}
	return topics.Detect(e.graph, emerging, result.DEC)
}
