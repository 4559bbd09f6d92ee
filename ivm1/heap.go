package ivm1

import (
	"sync/atomic"

	"hovm.run/hovm/spec"
)

// Heap is a flat array of 64-bit cells with a bump allocator.  Cell 0 is
// reserved for the root slot so that val=0 never names a live node.
//
// Concurrent readers and writers coordinate only through the substitution
// sentinel: SetSub publishes a full cell with a single atomic store, and
// Get loads the full cell with a single atomic load, so a reader observes
// either the old cell or the complete substitution, never a torn mix.
type Heap struct {
	cells []uint64
	next  atomic.Uint32

	refcounts []int32
}

// NewHeap allocates a heap of capacity cells.
func NewHeap(capacity uint32) *Heap {
	h := &Heap{cells: make([]uint64, capacity)}
	h.next.Store(1)
	return h
}

// Cap returns the heap capacity in cells.
func (h *Heap) Cap() uint32 { return uint32(len(h.cells)) }

// Len returns the index of the next free cell.
func (h *Heap) Len() uint32 { return h.next.Load() }

// Alloc reserves n contiguous cells and returns the index of the first.
// A request that does not fit hands its reservation back, so later
// requests that fit still succeed.
func (h *Heap) Alloc(n uint32) (uint32, error) {
	loc := h.next.Add(n) - n
	if uint64(loc)+uint64(n) > uint64(len(h.cells)) {
		h.next.Add(^(n - 1))
		return 0, ErrHeapExhausted
	}
	return loc, nil
}

// Get loads the cell at i.
func (h *Heap) Get(i uint32) Term {
	return Term(atomic.LoadUint64(&h.cells[i]))
}

// Set stores a term into the cell at i.  The cell must be owned by the
// caller, either freshly allocated or a node field it is rewriting.
func (h *Heap) Set(i uint32, t Term) {
	atomic.StoreUint64(&h.cells[i], uint64(t))
}

// SetSub publishes t as the substitution for slot i.  The sentinel and
// the payload land in one atomic store.
func (h *Heap) SetSub(i uint32, t Term) {
	atomic.StoreUint64(&h.cells[i], uint64(t.WithSub()))
}

// CasClaim atomically replaces the cell at i with want only if it still
// holds old.  It is how parallel workers claim a redex.
func (h *Heap) CasClaim(i uint32, old, want Term) bool {
	return atomic.CompareAndSwapUint64(&h.cells[i], uint64(old), uint64(want))
}

// Deref follows substitution chains starting from t until it reaches a
// term whose binder slot has not been substituted.  A projection's slot
// is the matching result cell of its duplication node.
func (h *Heap) Deref(t Term) Term {
	for {
		var slot uint32
		switch t.Tag() {
		case spec.VAR, spec.CO0:
			slot = t.Val()
		case spec.CO1:
			slot = t.Val() + 1
		default:
			return t
		}
		got := h.Get(slot)
		if !got.IsSub() {
			return t
		}
		t = got.ClearSub()
	}
}

// Reset rewinds the allocator.  Live terms from before the reset must
// not be used afterwards.
func (h *Heap) Reset() {
	n := h.next.Load()
	clear(h.cells[:n])
	h.next.Store(1)
	if h.refcounts != nil {
		clear(h.refcounts[:min(uint32(len(h.refcounts)), n)])
	}
}

// TrackRefcounts enables the per-cell reference counters used by heap
// telemetry.  They do not affect evaluation.
func (h *Heap) TrackRefcounts() {
	if h.refcounts == nil {
		h.refcounts = make([]int32, len(h.cells))
	}
}

func (h *Heap) incRef(i uint32) {
	if h.refcounts != nil {
		atomic.AddInt32(&h.refcounts[i], 1)
	}
}

func (h *Heap) decRef(i uint32) {
	if h.refcounts != nil {
		atomic.AddInt32(&h.refcounts[i], -1)
	}
}

// Refcount returns the tracked reference count for cell i, or 0 when
// tracking is disabled.
func (h *Heap) Refcount(i uint32) int32 {
	if h.refcounts == nil {
		return 0
	}
	return atomic.LoadInt32(&h.refcounts[i])
}
