package hosted

import (
	"fmt"
	"sync"
	"unsafe"

	"calm/src/joy"
	"calm/src/lib/trust"
	"calm/src/lib/upbeat"
)

// PageSize is the unit the stack heap hands out.
const PageSize = 1024

// StackHeap carves task stacks out of one arena, a page at a time, and keeps
// a bitset of the pages in use.  Release is the kernel's Reclaimer, so the
// pages of a deleted task come back when the idle loop drains the deferred
// queues.
type StackHeap struct {
	mu    sync.Mutex
	arena []byte
	inUse *upbeat.BitSet
}

func NewStackHeap(pages uint32) *StackHeap {
	if pages == 0 {
		panic("stack heap needs at least one page")
	}
	return &StackHeap{
		arena: make([]byte, int(pages)*PageSize),
		inUse: upbeat.NewBitSet(pages),
	}
}

// Alloc returns a zeroed stack of at least size bytes.  Its capacity is the
// whole run of pages and must not be changed by the caller.
func (h *StackHeap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("stack heap: bad size %d", size)
	}
	n := upbeat.BitIndex((size + PageSize - 1) / PageSize)
	h.mu.Lock()
	defer h.mu.Unlock()

	start := h.inUse.NextClear(0)
	for start != upbeat.NoBit && uint32(start+n) <= h.inUse.Size() {
		used := h.inUse.NextSet(start)
		if used == upbeat.NoBit || used >= start+n {
			for i := start; i < start+n; i++ {
				h.inUse.Set(i)
			}
			lo, hi := int(start)*PageSize, int(start+n)*PageSize
			b := h.arena[lo:hi:hi]
			clear(b)
			return b, nil
		}
		start = h.inUse.NextClear(used)
	}
	return nil, fmt.Errorf("stack heap: no run of %d free pages", n)
}

// Release gives a stack back.  Blocks that did not come from this heap are
// ignored.
func (h *StackHeap) Release(heap joy.Heap, b joy.Block) {
	if cap(b) == 0 {
		return
	}
	base := uintptr(unsafe.Pointer(&h.arena[0]))
	p := uintptr(unsafe.Pointer(&b[:1][0]))
	if p < base || p >= base+uintptr(len(h.arena)) || (p-base)%PageSize != 0 {
		trust.Warnf("stack heap: released block is not ours")
		return
	}
	first := upbeat.BitIndex((p - base) / PageSize)
	n := upbeat.BitIndex(cap(b) / PageSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := first; i < first+n; i++ {
		if !h.inUse.On(i) {
			trust.Errorf("stack heap: page %d released twice", i)
			return
		}
	}
	for i := first; i < first+n; i++ {
		h.inUse.Clear(i)
	}
	trust.Debugf("stack heap: %d pages back from heap %d", n, heap)
}

// Free is the number of free pages.
func (h *StackHeap) Free() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.inUse.Size()) - h.inUse.Count()
}
