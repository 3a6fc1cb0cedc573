package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend is an in-memory implementation of ResultStore for tests and
// one-shot runs that do not need persistence.
type MemoryBackend struct {
	mu        sync.RWMutex
	runs      map[string]*RunInfo
	intervals map[string]map[int]*IntervalRecord
	ready     bool
}

// NewMemoryBackend creates a new in-memory result store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		runs:      make(map[string]*RunInfo),
		intervals: make(map[string]map[int]*IntervalRecord),
	}
}

// Initialize implements ResultStore. The path is ignored.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]*RunInfo)
		m.intervals = make(map[string]map[int]*IntervalRecord)
	}
	m.ready = true
	return nil
}

// Close implements ResultStore.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = nil
	m.intervals = nil
	m.ready = false
	return nil
}

// IsReady reports whether the store has been initialized and not closed.
func (m *MemoryBackend) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// SaveRun implements ResultStore.
func (m *MemoryBackend) SaveRun(ctx context.Context, run *RunInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

// GetRun implements ResultStore.
func (m *MemoryBackend) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

// ListRuns implements ResultStore.
func (m *MemoryBackend) ListRuns(ctx context.Context) ([]*RunInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	runs := make([]*RunInfo, 0, len(m.runs))
	for _, run := range m.runs {
		cp := *run
		runs = append(runs, &cp)
	}
	sortRuns(runs)
	return runs, nil
}

// LatestRun implements ResultStore.
func (m *MemoryBackend) LatestRun(ctx context.Context) (*RunInfo, error) {
	runs, err := m.ListRuns(ctx)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// DeleteRun implements ResultStore.
func (m *MemoryBackend) DeleteRun(ctx context.Context, runID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, ErrNotInitialized
	}
	removed := len(m.intervals[runID])
	delete(m.runs, runID)
	delete(m.intervals, runID)
	return removed, nil
}

// SaveInterval implements ResultStore.
func (m *MemoryBackend) SaveInterval(ctx context.Context, rec *IntervalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return ErrNotInitialized
	}
	byInterval, ok := m.intervals[rec.RunID]
	if !ok {
		byInterval = make(map[int]*IntervalRecord)
		m.intervals[rec.RunID] = byInterval
	}
	cp := *rec
	byInterval[rec.Interval] = &cp
	return nil
}

// GetInterval implements ResultStore.
func (m *MemoryBackend) GetInterval(ctx context.Context, runID string, interval int) (*IntervalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	rec, ok := m.intervals[runID][interval]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// ListIntervals implements ResultStore.
func (m *MemoryBackend) ListIntervals(ctx context.Context, runID string) ([]IntervalSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	var summaries []IntervalSummary
	for _, rec := range m.sortedIntervals(runID) {
		summaries = append(summaries, rec.Summary())
	}
	return summaries, nil
}

// KeywordHistory implements ResultStore.
func (m *MemoryBackend) KeywordHistory(ctx context.Context, runID, keyword string) ([]KeywordPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, ErrNotInitialized
	}
	var points []KeywordPoint
	for _, rec := range m.sortedIntervals(runID) {
		for _, kw := range rec.Keywords {
			if kw.Keyword != keyword {
				continue
			}
			points = append(points, KeywordPoint{
				Interval:   rec.Interval,
				DEC:        kw.DEC,
				Centrality: kw.Centrality,
				Slope:      kw.Slope,
			})
			break
		}
	}
	return points, nil
}

// sortedIntervals must be called with the lock held.
func (m *MemoryBackend) sortedIntervals(runID string) []*IntervalRecord {
	byInterval := m.intervals[runID]
	recs := make([]*IntervalRecord, 0, len(byInterval))
	for _, rec := range byInterval {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Interval < recs[j].Interval })
	return recs
}

var (
	_ ResultStore = (*MemoryBackend)(nil)
	_ ResultStore = (*BadgerBackend)(nil)
)
