package loop

import (
	"sync"
	"time"

	"github.com/refetch-dev/refetch/pkg/resource"
)

// Budget rate-limits fetch starts across all resources bound to a loop.
// It protects against revalidation storms where effects cascade into more
// fetches, potentially causing runaway load. Implements
// resource.BudgetChecker.
type Budget struct {
	window *slidingWindow
}

// NewBudget creates a budget allowing at most maxFetchStarts within each
// window. maxFetchStarts of zero means no limit.
func NewBudget(maxFetchStarts int, window time.Duration) *Budget {
	if window == 0 {
		window = time.Second
	}
	return &Budget{
		window: newSlidingWindow(window, maxFetchStarts),
	}
}

// CheckFetch returns nil if another fetch may start, or
// resource.ErrBudgetExceeded when the window is full.
func (b *Budget) CheckFetch() error {
	if b == nil || b.window.maxEvents == 0 {
		return nil
	}
	if !b.window.tryAdd() {
		return resource.ErrBudgetExceeded
	}
	return nil
}

// InWindow returns the number of fetch starts inside the current window.
func (b *Budget) InWindow() int {
	if b == nil {
		return 0
	}
	return b.window.count()
}

// slidingWindow tracks events within a time window for rate limiting.
type slidingWindow struct {
	events     []time.Time
	windowSize time.Duration
	maxEvents  int
	mu         sync.Mutex
}

func newSlidingWindow(windowSize time.Duration, maxEvents int) *slidingWindow {
	return &slidingWindow{
		windowSize: windowSize,
		maxEvents:  maxEvents,
	}
}

// tryAdd attempts to add an event to the window.
// Returns true if allowed (under limit), false if rate limited.
func (w *slidingWindow) tryAdd() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.windowSize)

	// Remove old events outside the window
	validIdx := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			w.events[validIdx] = t
			validIdx++
		}
	}
	w.events = w.events[:validIdx]

	if len(w.events) >= w.maxEvents {
		return false
	}

	w.events = append(w.events, now)
	return true
}

// count returns the current number of events in the window.
func (w *slidingWindow) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.windowSize)

	count := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}
