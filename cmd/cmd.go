// Package cmd provides CLI command implementations for dec-go.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Benny93/dec-go/internal/config"
	"github.com/Benny93/dec-go/internal/engine"
	"github.com/Benny93/dec-go/internal/ingestion"
	"github.com/Benny93/dec-go/internal/server"
	"github.com/Benny93/dec-go/internal/storage"
	"github.com/Benny93/dec-go/internal/text"
	"github.com/Benny93/dec-go/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" type:"path" help:"Config file (default: ./dec.yaml if present)"`
	Store    string `type:"path" help:"Result store folder (overrides store_path)"`
	LogLevel string `help:"Log level: debug, info, warn or error"`
	Verbose  bool   `short:"v" help:"Enable debug logging"`
	Quiet    bool   `short:"q" help:"Suppress progress and non-essential output"`
}

// load reads the config file and applies the global overrides.
func (g *Globals) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.Config != "" {
		cfg, err = config.Load(g.Config)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		cfg, err = config.LoadDefault(wd)
	}
	if err != nil {
		return nil, err
	}

	if g.Store != "" {
		cfg.StorePath = g.Store
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Verbose {
		cfg.LogLevel = "debug"
	} else if g.Quiet && cfg.LogLevel != "error" {
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}

// logger writes structured logs to stderr so stdout stays clean for
// results and the MCP stdio transport.
func (g *Globals) logger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// RunCmd processes a folder of interval files.
type RunCmd struct {
	Input    string `arg:"" optional:"" type:"path" help:"Folder of interval files (default: input_dir)"`
	Output   string `short:"o" type:"path" help:"Folder for ecentralityN.txt files (default: output_dir)"`
	Window   int    `short:"p" help:"Window length P"`
	Top      int    `short:"k" help:"Keywords reported per interval"`
	Pattern  string `help:"Interval file name pattern with one %d"`
	Name     string `help:"Run name (default: input folder name)"`
	Workers  int    `help:"Concurrent file readers (default: all CPUs)"`
	NoOutput bool   `help:"Skip ecentralityN.txt files"`
}

func (c *RunCmd) apply(cfg *config.Config) error {
	if c.Input != "" {
		cfg.InputDir = c.Input
	}
	if c.Output != "" {
		cfg.OutputDir = c.Output
	}
	if c.NoOutput {
		cfg.OutputDir = ""
	}
	if c.Window != 0 {
		cfg.Window = c.Window
	}
	if c.Top != 0 {
		cfg.TopK = c.Top
	}
	if c.Pattern != "" {
		cfg.FilePattern = c.Pattern
	}
	if c.Workers != 0 {
		cfg.Workers = c.Workers
	}
	return cfg.Validate()
}

// Run executes the run command.
func (c *RunCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if err := c.apply(cfg); err != nil {
		return err
	}
	logger := g.logger(cfg)

	inputDir, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	files, err := ingestion.ListIntervalFiles(inputDir, cfg.FilePattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no interval files matching %q in %s", cfg.FilePattern, inputDir)
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return err
	}

	reg := newRegistry()
	eng, err := engine.New(cfg.EngineConfig(),
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var store storage.ResultStore
	run := newRun(c.Name, inputDir, cfg)
	if cfg.StorePath != "" {
		db, err := openStore(cfg.StorePath, false)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		store = db
	}

	serveMetrics(ctx, cfg.MetricsAddr, reg, logger)

	if !g.Quiet {
		color.Green("Processing %d interval files from %s", len(files), inputDir)
	}

	var progress ingestion.ProgressCallback
	if !g.Quiet {
		progress = func(phase string, pct float64) {
			fmt.Fprintf(os.Stderr, "\r\033[K%s (%.0f%%)", phase, pct*100)
		}
	}

	result, err := ingestion.RunPipeline(ctx, files, eng, store, ingestion.Options{
		Tokenizer: tok,
		OutputDir: cfg.OutputDir,
		Run:       run,
		Workers:   cfg.Workers,
		Logger:    logger,
	}, progress)
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && result != nil {
			color.Yellow("Stopped after %d intervals", result.Intervals)
		}
		return fmt.Errorf("running pipeline: %w", err)
	}

	if g.Quiet {
		return nil
	}

	color.Green("\n✓ Run complete")
	if store != nil {
		fmt.Printf("  Run:            %s\n", run.ID)
	}
	fmt.Printf("  Intervals:      %d\n", result.Intervals)
	fmt.Printf("  Records:        %d\n", result.Records)
	fmt.Printf("  Documents:      %d\n", result.Documents)
	fmt.Printf("  Removed nodes:  %d\n", result.Removed)
	if result.NotConverged > 0 {
		color.Yellow("  Not converged:  %d", result.NotConverged)
	}
	fmt.Printf("  Duration:       %.2fs\n", result.Duration.Seconds())

	if result.Last != nil {
		fmt.Printf("\nTop keywords in interval %d:\n", result.Last.Interval+1)
		printKeywords(os.Stdout, result.Last.Top(0))
	}
	return nil
}

// SplitCmd breaks a raw "date,text,id" CSV into interval files.
type SplitCmd struct {
	Input   string `arg:"" help:"Chronologically sorted CSV file, or - for stdin"`
	Output  string `short:"o" type:"path" help:"Folder for interval files (default: input_dir)"`
	Minutes int    `short:"m" help:"Interval length in minutes (default: interval_minutes)"`
	Pattern string `help:"Interval file name pattern with one %d"`
}

// Run executes the split command.
func (c *SplitCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Output != "" {
		cfg.InputDir = c.Output
	}
	if c.Minutes != 0 {
		cfg.IntervalMinutes = c.Minutes
	}
	if c.Pattern != "" {
		cfg.FilePattern = c.Pattern
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if c.Input != "-" {
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", c.Input, err)
		}
		defer f.Close()
		in = f
	}

	result, err := ingestion.SplitRecords(in, cfg.InputDir, ingestion.SplitOptions{
		Interval: cfg.SplitInterval(),
		Pattern:  cfg.FilePattern,
		Logger:   g.logger(cfg),
	})
	if err != nil {
		return fmt.Errorf("splitting %s: %w", c.Input, err)
	}

	if g.Quiet {
		return nil
	}
	color.Green("✓ Wrote %d interval files to %s", len(result.Files), cfg.InputDir)
	fmt.Printf("  Records:        %d\n", result.Records)
	if result.Skipped > 0 {
		color.Yellow("  Skipped:        %d", result.Skipped)
	}
	return nil
}

// WatchCmd processes interval files as they appear.
type WatchCmd struct {
	Input    string        `arg:"" optional:"" type:"path" help:"Folder to watch (default: input_dir)"`
	Output   string        `short:"o" type:"path" help:"Folder for ecentralityN.txt files (default: output_dir)"`
	Window   int           `short:"p" help:"Window length P"`
	Top      int           `short:"k" help:"Keywords reported per interval"`
	Pattern  string        `help:"Interval file name pattern with one %d"`
	Name     string        `help:"Run name (default: input folder name)"`
	From     int           `default:"1" help:"First interval file number to process"`
	Debounce time.Duration `default:"2s" help:"Quiet period before processing new files"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	rc := RunCmd{Input: c.Input, Output: c.Output, Window: c.Window, Top: c.Top, Pattern: c.Pattern}
	if err := rc.apply(cfg); err != nil {
		return err
	}
	logger := g.logger(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	var store storage.ResultStore
	if cfg.StorePath != "" {
		db, err := openStore(cfg.StorePath, false)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		store = db
	}

	reg := newRegistry()
	serveMetrics(ctx, cfg.MetricsAddr, reg, logger)

	fmt.Println("## Watch Mode")
	fmt.Printf("Watching %s for interval files (Ctrl+C to stop)\n\n", cfg.InputDir)

	err = watchIntervals(ctx, cfg, store, reg, logger, watchParams{
		name:     c.Name,
		from:     c.From,
		debounce: c.Debounce,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

type watchParams struct {
	name     string
	from     int
	debounce time.Duration
}

// watchIntervals starts a new run and feeds it every interval file that
// appears in cfg.InputDir until ctx is cancelled.
func watchIntervals(
	ctx context.Context,
	cfg *config.Config,
	store storage.ResultStore,
	reg prometheus.Registerer,
	logger *slog.Logger,
	p watchParams,
) error {
	inputDir, err := filepath.Abs(cfg.InputDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg.EngineConfig(),
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	run := newRun(p.name, inputDir, cfg)
	if store != nil {
		if err := store.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
	}

	proc, err := ingestion.NewProcessor(eng, store, ingestion.Options{
		Tokenizer: tok,
		OutputDir: cfg.OutputDir,
		Run:       run,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	return ingestion.WatchIntervals(ctx, inputDir, ingestion.WatchOptions{
		Pattern:  cfg.FilePattern,
		Debounce: p.debounce,
		Next:     p.from,
		Logger:   logger,
	}, func(ctx context.Context, file ingestion.IntervalFile) error {
		_, err := proc.ProcessFile(ctx, file)
		return err
	})
}

// TopCmd prints the ranked keywords of one stored interval.
type TopCmd struct {
	Interval int    `arg:"" optional:"" help:"Interval number, 1-based (default: last)"`
	RunID    string `name:"run" short:"r" help:"Run ID (default: latest)"`
	Limit    int    `short:"n" help:"Maximum keywords (default: the run's top-k)"`
	JSON     bool   `help:"Print JSON"`
}

// Run executes the top command.
func (c *TopCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StorePath, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	run, err := resolveRun(ctx, store, c.RunID)
	if err != nil {
		return err
	}

	interval := c.Interval - 1
	if c.Interval <= 0 {
		if run.Intervals == 0 {
			return fmt.Errorf("run %s has no intervals yet", run.ID)
		}
		interval = run.Intervals - 1
	}

	rec, err := store.GetInterval(ctx, run.ID, interval)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("interval %d not found in run %s", interval+1, run.ID)
	}

	limit := c.Limit
	if limit == 0 {
		limit = run.TopK
	}
	top := rec.Top(limit)

	if c.JSON {
		return printJSON(top)
	}

	fmt.Printf("## Interval %d of %s (%s)\n", interval+1, run.Name, run.ID)
	fmt.Printf("Documents: %d, keywords: %d, edges: %d\n", rec.Documents, rec.Nodes, rec.Edges)
	if !rec.Converged {
		color.Yellow("Centrality did not converge after %d iterations.", rec.Iterations)
	}
	fmt.Println()
	if len(top) == 0 {
		fmt.Println("No keywords ranked in this interval.")
		return nil
	}
	printKeywords(os.Stdout, top)

	if len(rec.Topics) > 0 {
		fmt.Println("\nTopics:")
		for _, topic := range rec.Topics {
			fmt.Printf("  %d. %s (DEC %.4f)\n", topic.ID, strings.Join(topic.Keywords, ", "), topic.DEC)
		}
	}
	return nil
}

// HistoryCmd prints one keyword's scores across a run.
type HistoryCmd struct {
	Keyword string `arg:"" help:"Keyword to trace"`
	RunID   string `name:"run" short:"r" help:"Run ID (default: latest)"`
	JSON    bool   `help:"Print JSON"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(g *Globals) error {
	keyword := strings.ToLower(strings.TrimSpace(c.Keyword))
	if keyword == "" {
		return fmt.Errorf("keyword required. Usage: dec-go history <keyword>")
	}

	cfg, err := g.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StorePath, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	run, err := resolveRun(ctx, store, c.RunID)
	if err != nil {
		return err
	}

	keyword, points, err := storage.FindKeywordHistory(ctx, store, run.ID, keyword)
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(points)
	}

	if len(points) == 0 {
		fmt.Printf("Keyword '%s' was never ranked in run %s.\n", keyword, run.ID)
		return nil
	}

	fmt.Printf("## History of '%s' in %s (%s)\n\n", keyword, run.Name, run.ID)
	fmt.Printf("%-10s %12s %12s %12s\n", "Interval", "DEC", "Centrality", "Slope")
	for _, p := range points {
		fmt.Printf("%-10d %12.6f %12.6f %12.6f\n", p.Interval+1, p.DEC, p.Centrality, p.Slope)
	}
	return nil
}

// RunsCmd lists stored runs.
type RunsCmd struct{}

// Run executes the runs command.
func (c *RunsCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StorePath, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored")
		return nil
	}

	fmt.Println("Stored runs:")
	for _, run := range runs {
		fmt.Printf("\n  %s\n", run.ID)
		fmt.Printf("    Name:       %s\n", run.Name)
		fmt.Printf("    Source:     %s\n", run.Source)
		fmt.Printf("    Window:     %d\n", run.Window)
		fmt.Printf("    Intervals:  %d\n", run.Intervals)
		fmt.Printf("    Started:    %s\n", run.StartedAt.Format(time.RFC3339))
	}
	return nil
}

// ServeCmd starts the HTTP query API.
type ServeCmd struct {
	Addr  string `short:"a" help:"Listen address (default: http_addr)"`
	Watch bool   `short:"w" help:"Also process new interval files from input_dir"`
	Name  string `help:"Run name for watch mode"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.HTTPAddr = c.Addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := g.logger(cfg)

	// Watch mode writes results, so the store cannot be read-only.
	store, err := openStore(cfg.StorePath, !c.Watch)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	reg := newRegistry()

	if c.Watch {
		go func() {
			err := watchIntervals(ctx, cfg, store, reg, logger, watchParams{name: c.Name, from: 1})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watch stopped", "err", err)
			}
		}()
		fmt.Fprintln(os.Stderr, "File watching enabled")
	}

	fmt.Fprintf(os.Stderr, "Serving DEC results on http://%s\n", cfg.HTTPAddr)
	return server.ListenAndServe(ctx, cfg.HTTPAddr, server.New(store, Version, reg))
}

// MCPCmd starts the MCP server on stdio.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StorePath, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	srv := mcp.NewServer(store)

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	return srv.SDKServer().Run(ctx, &mcpsdk.StdioTransport{})
}

// CleanCmd deletes stored results.
type CleanCmd struct {
	RunID   string `arg:"" optional:"" help:"Delete only this run"`
	Outputs bool   `help:"Also delete the ecentralityN.txt folder"`
	Force   bool   `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if cfg.StorePath == "" {
		return fmt.Errorf("no store configured. Nothing to clean")
	}
	if _, err := os.Stat(cfg.StorePath); os.IsNotExist(err) {
		return fmt.Errorf("no results found at %s. Nothing to clean", cfg.StorePath)
	}

	if c.RunID != "" {
		return c.deleteRun(cfg)
	}

	targets := []string{cfg.StorePath}
	if c.Outputs && cfg.OutputDir != "" {
		targets = append(targets, cfg.OutputDir)
	}

	if !c.Force && !confirm(fmt.Sprintf("Delete %s?", strings.Join(targets, " and "))) {
		fmt.Println("Aborted")
		return nil
	}

	for _, dir := range targets {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("deleting %s: %w", dir, err)
		}
		color.Green("Deleted %s", dir)
	}
	return nil
}

func (c *CleanCmd) deleteRun(cfg *config.Config) error {
	store, err := openStore(cfg.StorePath, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	run, err := store.GetRun(ctx, c.RunID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", c.RunID)
	}

	if !c.Force && !confirm(fmt.Sprintf("Delete run %s (%s, %d intervals)?", run.ID, run.Name, run.Intervals)) {
		fmt.Println("Aborted")
		return nil
	}

	removed, err := store.DeleteRun(ctx, run.ID)
	if err != nil {
		return err
	}
	color.Green("Deleted run %s (%d intervals)", run.ID, removed)
	return nil
}

// Helper functions

// osSignalChannel returns a channel that receives OS signals for graceful shutdown.
func osSignalChannel() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := osSignalChannel()
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// openStore opens the badger result store. A read-only store must already
// exist.
func openStore(path string, readOnly bool) (*storage.BadgerBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("no store configured. Set store_path or --store")
	}
	if readOnly {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("no results found at %s. Run 'dec-go run' first", path)
		}
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store folder: %w", err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(path, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// resolveRun finds a run by ID. An empty ID or "latest" selects the most
// recent run.
func resolveRun(ctx context.Context, store storage.ResultStore, runID string) (*storage.RunInfo, error) {
	var (
		run *storage.RunInfo
		err error
	)
	if runID == "" || runID == server.LatestRunID {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}
	if run == nil {
		if runID == "" || runID == server.LatestRunID {
			return nil, fmt.Errorf("no runs stored yet. Run 'dec-go run' first")
		}
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return run, nil
}

func newTokenizer(cfg *config.Config) (*text.Tokenizer, error) {
	words := text.DefaultStopwords()
	if cfg.StopwordsPath != "" {
		var err error
		if words, err = text.LoadStopwords(cfg.StopwordsPath); err != nil {
			return nil, err
		}
	}
	return text.NewTokenizer(words, 0)
}

func newRun(name, source string, cfg *config.Config) *storage.RunInfo {
	if name == "" {
		name = filepath.Base(source)
	}
	now := time.Now().UTC()
	return &storage.RunInfo{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Window:    cfg.Window,
		TopK:      cfg.TopK,
		StartedAt: now,
		UpdatedAt: now,
	}
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// serveMetrics exposes reg on addr in the background until ctx ends.
func serveMetrics(ctx context.Context, addr string, reg prometheus.Gatherer, logger *slog.Logger) {
	if addr == "" {
		return
	}
	go func() {
		if err := server.ListenAndServe(ctx, addr, server.MetricsHandler(reg)); err != nil {
			logger.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
}

func printKeywords(w io.Writer, kws []engine.KeywordScore) {
	fmt.Fprintf(w, "%-4s %-24s %12s %12s %12s\n", "#", "Keyword", "DEC", "Centrality", "Slope")
	for i, kw := range kws {
		fmt.Fprintf(w, "%-4d %-24s %12.6f %12.6f %12.6f\n", i+1, kw.Keyword, kw.DEC, kw.Centrality, kw.Slope)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var response string
	_, _ = fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// CLI is the root command.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Run     RunCmd     `cmd:"" help:"Process a folder of interval files"`
	Split   SplitCmd   `cmd:"" help:"Split a raw CSV stream into interval files"`
	Watch   WatchCmd   `cmd:"" help:"Process interval files as they appear"`
	Top     TopCmd     `cmd:"" help:"Show the top emerging keywords of an interval"`
	History HistoryCmd `cmd:"" help:"Show a keyword's scores across a run"`
	Runs    RunsCmd    `cmd:"" help:"List stored runs"`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP query API"`
	MCP     MCPCmd     `cmd:"" help:"Start MCP server (stdio transport)"`
	Clean   CleanCmd   `cmd:"" help:"Delete stored results"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("dec-go"),
		kong.Description("Emerging keyword detection over interval streams"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
		kong.Bind(&c.Globals),
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run()
}
