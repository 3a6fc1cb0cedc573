package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before processing, so that files still being written are not read early.
const DefaultDebounce = 2 * time.Second

// IntervalHandler processes one interval file.
type IntervalHandler func(ctx context.Context, file IntervalFile) error

// WatchOptions configures WatchIntervals.
type WatchOptions struct {
	// Pattern names interval files. Defaults to DefaultFilePattern.
	Pattern string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Next is the first interval number to process. Defaults to 1.
	Next int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// intervalQueue releases interval files strictly in numeric order.
type intervalQueue struct {
	next    int
	pending map[int]IntervalFile
}

func newIntervalQueue(next int) *intervalQueue {
	return &intervalQueue{next: next, pending: make(map[int]IntervalFile)}
}

// add buffers a file. Files already released are ignored.
func (q *intervalQueue) add(file IntervalFile) bool {
	if file.Number < q.next {
		return false
	}
	q.pending[file.Number] = file
	return true
}

// ready removes and returns the contiguous run of files starting at next.
func (q *intervalQueue) ready() []IntervalFile {
	var files []IntervalFile
	for {
		file, ok := q.pending[q.next]
		if !ok {
			return files
		}
		delete(q.pending, q.next)
		files = append(files, file)
		q.next++
	}
}

// waiting returns the number of buffered out-of-order files.
func (q *intervalQueue) waiting() int {
	return len(q.pending)
}

// WatchIntervals processes interval files in dir as they appear, strictly in
// numeric order. Files already present are processed first. A file that
// arrives ahead of its predecessors is buffered until the gap is filled.
// Blocks until the context is cancelled or the handler fails.
func WatchIntervals(ctx context.Context, dir string, opts WatchOptions, handler IntervalHandler) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Next <= 0 {
		opts.Next = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Watch before listing so that no file slips in between.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	queue := newIntervalQueue(opts.Next)

	existing, err := ListIntervalFiles(dir, opts.Pattern)
	if err != nil {
		return err
	}
	for _, file := range existing {
		queue.add(file)
	}

	drain := func() error {
		for _, file := range queue.ready() {
			if err := handler(ctx, file); err != nil {
				return fmt.Errorf("handling %s: %w", filepath.Base(file.Path), err)
			}
		}
		if n := queue.waiting(); n > 0 {
			logger.Info("waiting for missing interval", "next", queue.next, "buffered", n)
		}
		return nil
	}

	if err := drain(); err != nil {
		return err
	}

	batchTimer := time.NewTimer(opts.Debounce)
	batchTimer.Stop()
	defer batchTimer.Stop()

	logger.Info("watching for interval files", "dir", dir, "next", queue.next)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			n, ok := ParseIntervalNumber(filepath.Base(event.Name), opts.Pattern)
			if !ok {
				continue
			}
			if queue.add(IntervalFile{Path: event.Name, Number: n}) {
				batchTimer.Reset(opts.Debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-batchTimer.C:
			if err := drain(); err != nil {
				return err
			}
		}
	}
}
