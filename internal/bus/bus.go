// Package bus is the single slot shared by the production and consumption loops.
//
// Publish replaces the slot with the latest snapshot; Latest reads whatever
// is there. Readers never block and never wait for a fresh value, so a
// reader may see the same snapshot twice or miss one entirely.
package bus

import (
	"sync/atomic"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

type Bus struct {
	slot    atomic.Pointer[types.Recommendation]
	version atomic.Uint64
}

func New() *Bus {
	return &Bus{}
}

// Publish stores a private copy of rec and stamps it with the next sequence
// number, which it returns.
func (b *Bus) Publish(rec *types.Recommendation) uint64 {
	if rec == nil {
		return b.version.Load()
	}

	snapshot := rec.Clone()
	snapshot.Seq = b.version.Add(1)
	b.slot.Store(snapshot)

	return snapshot.Seq
}

// Latest returns a copy of the newest snapshot, or false if nothing was published.
func (b *Bus) Latest() (*types.Recommendation, bool) {
	snapshot := b.slot.Load()
	if snapshot == nil {
		return nil, false
	}

	return snapshot.Clone(), true
}

// Version is the sequence number of the last publish, zero before the first.
func (b *Bus) Version() uint64 {
	return b.version.Load()
}
