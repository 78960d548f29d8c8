package feed

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Window keeps the newest maxSize bars in time order, evicting the oldest
// on overflow. A bar whose open time is already present replaces it.
type Window struct {
	maxSize int
	bars    []types.Bar
	mu      sync.RWMutex
}

func NewWindow(maxSize int) *Window {
	if maxSize < 0 {
		maxSize = 0
	}

	return &Window{
		maxSize: maxSize,
		bars:    make([]types.Bar, 0, maxSize),
		mu:      sync.RWMutex{},
	}
}

// Add inserts bar, returning true when it was not already present.
func (w *Window) Add(bar types.Bar) bool {
	if w.maxSize == 0 {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	return w.add(bar)
}

// AddAll inserts every bar and returns how many were new.
func (w *Window) AddAll(bars []types.Bar) int {
	if w.maxSize == 0 {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	added := 0

	for _, bar := range bars {
		if w.add(bar) {
			added++
		}
	}

	return added
}

func (w *Window) add(bar types.Bar) bool {
	n := len(w.bars)

	// chronological append
	if n == 0 || bar.Time.After(w.bars[n-1].Time) {
		w.bars = append(w.bars, bar)
		w.evict()

		return true
	}

	if bar.Time.Equal(w.bars[n-1].Time) {
		w.bars[n-1] = bar

		return false
	}

	idx := sort.Search(n, func(i int) bool {
		return !w.bars[i].Time.Before(bar.Time)
	})

	if idx < n && w.bars[idx].Time.Equal(bar.Time) {
		w.bars[idx] = bar

		return false
	}

	// older than everything in a full window
	if idx == 0 && n >= w.maxSize {
		return false
	}

	w.bars = append(w.bars, types.Bar{}) //nolint:exhaustruct // placeholder for slice expansion
	copy(w.bars[idx+1:], w.bars[idx:])
	w.bars[idx] = bar
	w.evict()

	return true
}

func (w *Window) evict() {
	if len(w.bars) > w.maxSize {
		w.bars = w.bars[len(w.bars)-w.maxSize:]
	}
}

// Bars returns a copy of the window, oldest first.
func (w *Window) Bars() []types.Bar {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]types.Bar, len(w.bars))
	copy(out, w.bars)

	return out
}

// Last returns the newest bar.
func (w *Window) Last() (types.Bar, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.bars) == 0 {
		return types.Bar{}, false //nolint:exhaustruct // zero value for not found
	}

	return w.bars[len(w.bars)-1], true
}

func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.bars)
}

func (w *Window) MaxSize() int {
	return w.maxSize
}

func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.bars = make([]types.Bar, 0, w.maxSize)
}
