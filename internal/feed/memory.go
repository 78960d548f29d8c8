package feed

import (
	"context"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// MemoryFeed is a BarFeed fed by the caller. It backs replays and tests.
type MemoryFeed struct {
	window *Window
	// RefreshErr, when set, is returned by every Refresh.
	RefreshErr error
}

func NewMemoryFeed(size int, bars ...types.Bar) *MemoryFeed {
	f := &MemoryFeed{window: NewWindow(size), RefreshErr: nil}
	f.window.AddAll(bars)

	return f
}

// Push appends bars to the window.
func (f *MemoryFeed) Push(bars ...types.Bar) int {
	return f.window.AddAll(bars)
}

func (f *MemoryFeed) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return f.RefreshErr
}

func (f *MemoryFeed) Bars() []types.Bar {
	return f.window.Bars()
}

func (f *MemoryFeed) Window() *Window {
	return f.window
}
