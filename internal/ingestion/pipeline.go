package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Benny93/dec-go/internal/engine"
	"github.com/Benny93/dec-go/internal/storage"
	"github.com/Benny93/dec-go/internal/text"
)

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Options configures interval processing.
type Options struct {
	// Tokenizer extracts keywords. Defaults to one using the built-in
	// stopword list.
	Tokenizer *text.Tokenizer

	// OutputDir receives one ranked ecentralityN.txt per interval. Empty
	// disables text output.
	OutputDir string

	// Run is updated after every stored interval. It is required when a
	// store is given.
	Run *storage.RunInfo

	// Workers bounds concurrent file tokenization. Defaults to GOMAXPROCS.
	Workers int

	// MaxPending bounds how many files may be read ahead of the engine,
	// counting files still being read. Defaults to twice Workers.
	MaxPending int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() (Options, error) {
	if o.Tokenizer == nil {
		tok, err := text.NewTokenizer(text.DefaultStopwords(), 0)
		if err != nil {
			return o, err
		}
		o.Tokenizer = tok
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.MaxPending <= 0 {
		o.MaxPending = 2 * o.Workers
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o, nil
}

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	Intervals    int
	Records      int
	Documents    int
	Removed      int
	NotConverged int
	Duration     time.Duration

	// PeakPending is the largest number of tokenized files that waited for
	// the engine at once.
	PeakPending int

	// Last is the result of the final interval, if any.
	Last *engine.IntervalResult
}

// Processor pushes tokenized intervals through an engine and records the
// results. It is shared by batch and watch mode.
type Processor struct {
	eng   *engine.Engine
	store storage.ResultStore
	opts  Options
}

// NewProcessor creates a processor. The store may be nil.
func NewProcessor(eng *engine.Engine, store storage.ResultStore, opts Options) (*Processor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("configuring processor: %w", err)
	}
	if store != nil && opts.Run == nil {
		return nil, errors.New("a run is required to store results")
	}
	return &Processor{eng: eng, store: store, opts: opts}, nil
}

// Tokenizer returns the tokenizer used for reading files.
func (p *Processor) Tokenizer() *text.Tokenizer {
	return p.opts.Tokenizer
}

// ProcessFile reads and processes one interval file.
func (p *Processor) ProcessFile(ctx context.Context, file IntervalFile) (*engine.IntervalResult, error) {
	data, err := ReadIntervalFile(file, p.opts.Tokenizer)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, data)
}

// Process feeds one interval to the engine, writes its ranked output file,
// stores the result and logs the top keywords.
func (p *Processor) Process(ctx context.Context, data *IntervalData) (*engine.IntervalResult, error) {
	res, err := p.eng.ProcessInterval(ctx, data.Docs)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", filepath.Base(data.File.Path), err)
	}

	if p.opts.OutputDir != "" {
		path := filepath.Join(p.opts.OutputDir, storage.DECFileName(res.Interval))
		if _, err := storage.WriteDECFile(path, res.Ranked); err != nil {
			return res, err
		}
	}

	if p.store != nil {
		rec := storage.NewIntervalRecord(p.opts.Run.ID, data.File.Path, res)
		if err := p.store.SaveInterval(ctx, rec); err != nil {
			return res, fmt.Errorf("storing interval %d: %w", res.Interval, err)
		}
		p.opts.Run.Intervals = res.Interval + 1
		p.opts.Run.UpdatedAt = time.Now().UTC()
		if err := p.store.SaveRun(ctx, p.opts.Run); err != nil {
			return res, fmt.Errorf("updating run: %w", err)
		}
	}

	p.opts.Logger.Info("interval processed",
		"interval", res.Interval+1,
		"file", filepath.Base(data.File.Path),
		"documents", res.Documents,
		"keywords", res.Nodes,
		"converged", res.Converged,
		"top", formatTop(res.Top(0)),
	)
	return res, nil
}

// RunPipeline processes interval files in order. Files are read and
// tokenized concurrently, but the engine sees them strictly in sequence.
func RunPipeline(
	ctx context.Context,
	files []IntervalFile,
	eng *engine.Engine,
	store storage.ResultStore,
	opts Options,
	progress ProgressCallback,
) (*PipelineResult, error) {
	start := time.Now()

	proc, err := NewProcessor(eng, store, opts)
	if err != nil {
		return nil, err
	}
	opts = proc.opts

	if gaps := Gaps(files); len(gaps) > 0 {
		opts.Logger.Warn("interval files missing", "numbers", gaps)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(opts.Workers)

	loaded := make([]*IntervalData, len(files))
	ready := make([]chan struct{}, len(files))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	// A slot is taken before a file is read and given back once the engine
	// has processed it.
	slots := make(chan struct{}, opts.MaxPending)
	var pending, peak atomic.Int64

	// The producer must finish issuing g.Go before g.Wait is called.
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		for i, file := range files {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				defer close(ready[i])
				data, err := ReadIntervalFile(file, opts.Tokenizer)
				if err != nil {
					return err
				}
				loaded[i] = data
				n := pending.Add(1)
				for {
					cur := peak.Load()
					if n <= cur || peak.CompareAndSwap(cur, n) {
						break
					}
				}
				return nil
			})
		}
	}()

	result := &PipelineResult{}
	var procErr error

feed:
	for i := range files {
		select {
		case <-ready[i]:
		case <-gctx.Done():
			break feed
		}
		data := loaded[i]
		if data == nil {
			break
		}
		loaded[i] = nil

		res, err := proc.Process(ctx, data)
		pending.Add(-1)
		<-slots
		if err != nil {
			procErr = err
			break
		}

		result.Intervals++
		result.Records += data.Records
		result.Documents += res.Documents
		result.Removed += len(res.Removed)
		if !res.Converged {
			result.NotConverged++
		}
		result.Last = res

		if progress != nil {
			progress(fmt.Sprintf("Interval %d", res.Interval+1), float64(i+1)/float64(len(files)))
		}
	}

	cancel()
	<-producerDone
	readErr := g.Wait()

	result.Duration = time.Since(start)
	result.PeakPending = int(peak.Load())

	switch {
	case procErr != nil:
		return result, procErr
	case readErr != nil && !errors.Is(readErr, context.Canceled):
		return result, readErr
	case ctx.Err() != nil:
		return result, ctx.Err()
	}
	return result, nil
}

func formatTop(top []engine.KeywordScore) string {
	parts := make([]string, len(top))
	for i, kw := range top {
		parts[i] = fmt.Sprintf("%s=%.4f", kw.Keyword, kw.DEC)
	}
	return strings.Join(parts, " ")
}
