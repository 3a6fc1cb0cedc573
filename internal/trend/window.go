// Package trend tracks bounded per-keyword histories of centrality values and
// extracts their linear trend.
package trend

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidWindow is returned when a window length below 2 is requested.
var ErrInvalidWindow = errors.New("window length must be at least 2")

// WindowTracker keeps, per keyword, the last P centrality values in arrival
// order. It is not safe for concurrent use; the engine owns it exclusively.
type WindowTracker struct {
	capacity int
	windows  map[string][]float64
}

// NewWindowTracker creates a tracker whose windows hold at most p values.
func NewWindowTracker(p int) (*WindowTracker, error) {
	if p < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, p)
	}
	return &WindowTracker{
		capacity: p,
		windows:  make(map[string][]float64),
	}, nil
}

// Capacity returns the maximum window length P.
func (w *WindowTracker) Capacity() int {
	return w.capacity
}

// Push appends value to the keyword's window, creating the window on first
// use. When the window is already full the oldest value is evicted first.
// Returns the window after the push; callers must not modify it.
func (w *WindowTracker) Push(word string, value float64) []float64 {
	window := w.windows[word]
	if len(window) >= w.capacity {
		// shift in place so the backing array never grows past capacity
		copy(window, window[1:])
		window = window[:len(window)-1]
	}
	window = append(window, value)
	w.windows[word] = window
	return window
}

// Remove drops the keyword's window entirely.
func (w *WindowTracker) Remove(word string) {
	delete(w.windows, word)
}

// Has reports whether the keyword has a window.
func (w *WindowTracker) Has(word string) bool {
	_, ok := w.windows[word]
	return ok
}

// Window returns a copy of the keyword's window, or nil if it has none.
func (w *WindowTracker) Window(word string) []float64 {
	window, ok := w.windows[word]
	if !ok {
		return nil
	}
	out := make([]float64, len(window))
	copy(out, window)
	return out
}

// Len returns the number of tracked keywords.
func (w *WindowTracker) Len() int {
	return len(w.windows)
}

// Words returns the tracked keywords in sorted order.
func (w *WindowTracker) Words() []string {
	words := make([]string, 0, len(w.windows))
	for word := range w.windows {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}

// Slope returns the trend of the keyword's window, or 0 if it has none.
func (w *WindowTracker) Slope(word string) float64 {
	return Slope(w.windows[word])
}
