// Package storage provides the storage backend for dec-go.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for different data types
const (
	prefixRun      = "run:" // run metadata
	prefixInterval = "iv:"  // interval records
	prefixKeyword  = "kw:"  // keyword history index
)

// ErrNotInitialized is returned when the store is used before Initialize.
var ErrNotInitialized = errors.New("store not initialized")

// BadgerBackend is a BadgerDB-backed result store.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	mu          sync.RWMutex
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
// An empty path opens a purely in-memory database.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithNumMemtables(5).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if path == "" {
		opts = opts.WithInMemory(true)
	} else if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	return nil
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// SaveRun creates or replaces run metadata.
func (b *BadgerBackend) SaveRun(ctx context.Context, run *RunInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(run.ID), data)
	})
}

// GetRun returns the run with the given ID, or nil if not found.
func (b *BadgerBackend) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var run *RunInfo
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		run = &RunInfo{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, run)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, most recently started first.
func (b *BadgerBackend) ListRuns(ctx context.Context) ([]*RunInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var runs []*RunInfo
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var run RunInfo
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				continue
			}
			runs = append(runs, &run)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	sortRuns(runs)
	return runs, nil
}

// LatestRun returns the most recently started run, or nil if none.
func (b *BadgerBackend) LatestRun(ctx context.Context) (*RunInfo, error) {
	runs, err := b.ListRuns(ctx)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// DeleteRun removes a run, its intervals and its keyword index.
func (b *BadgerBackend) DeleteRun(ctx context.Context, runID string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return 0, ErrNotInitialized
	}

	keys := [][]byte{runKey(runID)}
	intervals := 0
	err := b.db.View(func(txn *badger.Txn) error {
		for i, prefix := range [][]byte{intervalPrefix(runID), keywordRunPrefix(runID)} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
				if i == 0 {
					intervals++
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning run %s: %w", runID, err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("deleting run %s: %w", runID, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("deleting run %s: %w", runID, err)
	}
	return intervals, nil
}

// SaveInterval stores an interval record and one keyword index entry per
// ranked keyword, in a single write batch.
func (b *BadgerBackend) SaveInterval(ctx context.Context, rec *IntervalRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling interval: %w", err)
	}
	if err := wb.Set(intervalKey(rec.RunID, rec.Interval), data); err != nil {
		return fmt.Errorf("setting interval: %w", err)
	}

	for _, kw := range rec.Keywords {
		point, err := json.Marshal(KeywordPoint{
			Interval:   rec.Interval,
			DEC:        kw.DEC,
			Centrality: kw.Centrality,
			Slope:      kw.Slope,
		})
		if err != nil {
			return fmt.Errorf("marshaling keyword point: %w", err)
		}
		if err := wb.Set(keywordKey(rec.RunID, kw.Keyword, rec.Interval), point); err != nil {
			return fmt.Errorf("setting keyword point: %w", err)
		}
	}

	return wb.Flush()
}

// GetInterval returns one interval record, or nil if not found.
func (b *BadgerBackend) GetInterval(ctx context.Context, runID string, interval int) (*IntervalRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var rec *IntervalRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(intervalKey(runID, interval))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		rec = &IntervalRecord{}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("getting interval %d of run %s: %w", interval, runID, err)
	}
	return rec, nil
}

// ListIntervals returns interval summaries in interval order.
func (b *BadgerBackend) ListIntervals(ctx context.Context, runID string) ([]IntervalSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var summaries []IntervalSummary
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = intervalPrefix(runID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec IntervalRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			summaries = append(summaries, rec.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing intervals of run %s: %w", runID, err)
	}
	return summaries, nil
}

// KeywordHistory returns a keyword's scores in interval order.
func (b *BadgerBackend) KeywordHistory(ctx context.Context, runID, keyword string) ([]KeywordPoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var points []KeywordPoint
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keywordPrefix(runID, keyword)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var point KeywordPoint
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &point)
			}); err != nil {
				return err
			}
			points = append(points, point)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history of %q: %w", keyword, err)
	}
	return points, nil
}

// Key helpers. Interval numbers are zero-padded so that badger's
// lexicographic key order matches interval order.

func runKey(runID string) []byte {
	return []byte(prefixRun + runID)
}

func intervalPrefix(runID string) []byte {
	return []byte(prefixInterval + runID + ":")
}

func intervalKey(runID string, interval int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", prefixInterval, runID, interval))
}

func keywordRunPrefix(runID string) []byte {
	return []byte(prefixKeyword + runID + ":")
}

// keywordPrefix terminates the keyword with a NUL byte so that one keyword
// is never a prefix of another.
func keywordPrefix(runID, keyword string) []byte {
	return []byte(prefixKeyword + runID + ":" + keyword + "\x00")
}

func keywordKey(runID, keyword string, interval int) []byte {
	return []byte(fmt.Sprintf("%s%010d", keywordPrefix(runID, keyword), interval))
}

// sortRuns orders runs by start time, newest first, then by ID.
func sortRuns(runs []*RunInfo) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
