// This file was automatically generated by genny.
// Any changes will be lost if this file is regenerated.
// see https://github.com/cheekybits/genny

package joy

import (
	"unsafe"

	"calm/src/lib/upbeat"
)

// TCBManagedPool hands out elements of a fixed backing array.  Elements
// are zeroed when they are handed out.  It is not concurrent safe.
type TCBManagedPool struct {
	elements []TCB
	inUse    *upbeat.BitSet
	hint     upbeat.BitIndex
}

// NewTCBManagedPool returns a pool of numElements elements, all free.
func NewTCBManagedPool(numElements uint32) *TCBManagedPool {
	if numElements == 0 {
		panic("requested size is not valid for a pool")
	}
	return &TCBManagedPool{
		elements: make([]TCB, numElements),
		inUse:    upbeat.NewBitSet(numElements),
	}
}

// Alloc returns a pointer to an element in the pool.  It returns nil
// if the pool is exhausted.  Note that a pool may go from exhausted
// to working if Dealloc() is called.  Slots are handed out round robin
// so a freed element is not immediately reused.
func (g *TCBManagedPool) Alloc() *TCB {
	i := g.inUse.NextClear(g.hint)
	if i == upbeat.NoBit {
		// ugly search
		i = g.inUse.NextClear(0)
	}
	if i == upbeat.NoBit {
		return nil
	}
	g.inUse.Set(i)
	g.hint = i + 1
	if uint32(g.hint) >= g.inUse.Size() {
		g.hint = 0
	}
	var zero TCB
	g.elements[i] = zero
	return &g.elements[i]
}

// Dealloc returns an element to the pool.  It panics if ptr did not come
// from this pool or is already free.
func (g *TCBManagedPool) Dealloc(ptr *TCB) {
	i := g.indexOf(ptr)
	if !g.inUse.On(i) {
		panic("pointer passed to dealloc() that is already free")
	}
	g.inUse.Clear(i)
}

// InUse is the number of allocated elements.
func (g *TCBManagedPool) InUse() int {
	return g.inUse.Count()
}

// Available is the number of elements that Alloc can still hand out.
func (g *TCBManagedPool) Available() int {
	return len(g.elements) - g.inUse.Count()
}

func (g *TCBManagedPool) indexOf(ptr *TCB) upbeat.BitIndex {
	base := uintptr(unsafe.Pointer(&g.elements[0]))
	size := unsafe.Sizeof(g.elements[0])
	p := uintptr(unsafe.Pointer(ptr))
	if p < base || (p-base)%size != 0 || (p-base)/size >= uintptr(len(g.elements)) {
		panic("pointer passed to dealloc() that is not from pool")
	}
	return upbeat.BitIndex((p - base) / size)
}
