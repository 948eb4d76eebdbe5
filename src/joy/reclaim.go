package joy

import (
	"iter"
	"sync"
)

// Block is memory that was released somewhere it could not be freed, for
// example in an interrupt handler.
type Block []byte

// Heap says which allocator a Block goes back to.
type Heap int

const (
	HeapUser Heap = iota
	HeapKernel
)

// Reclaimer gives drained blocks back to their allocator.
type Reclaimer func(heap Heap, b Block)

type deferredNode struct {
	block Block
	next  *deferredNode
}

// DeferredQueue is a singly linked FIFO of blocks waiting to be freed.
// Defer is safe to call from any context and never frees anything; a single
// consumer takes everything with Drain.
type DeferredQueue struct {
	mu    sync.Mutex
	head  *deferredNode
	tail  *deferredNode
	count int
}

// Defer appends b at the tail.
func (q *DeferredQueue) Defer(b Block) {
	n := &deferredNode{block: b}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.count++
}

func (q *DeferredQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Drain takes the whole queue, leaving it empty, and returns the blocks in
// arrival order.  The sequence can be ranged over once; blocks that have
// been yielded are not yielded again.
func (q *DeferredQueue) Drain() iter.Seq[Block] {
	q.mu.Lock()
	head := q.head
	q.head, q.tail, q.count = nil, nil, 0
	q.mu.Unlock()

	return func(yield func(Block) bool) {
		for head != nil {
			n := head
			head = n.next
			n.next = nil
			if !yield(n.block) {
				return
			}
		}
	}
}

func (k *Kernel) deferredQueue(heap Heap) *DeferredQueue {
	if heap == HeapKernel && k.delayedKernel != nil {
		return k.delayedKernel
	}
	return k.delayedUser
}

// DeferRelease queues b to be freed later.  Without a separate kernel heap
// everything goes on the user queue.
func (k *Kernel) DeferRelease(heap Heap, b Block) {
	k.deferredQueue(heap).Defer(b)
}

// Drain hands the deferred blocks for heap to the caller.
func (k *Kernel) Drain(heap Heap) iter.Seq[Block] {
	return k.deferredQueue(heap).Drain()
}

// SetReclaimer installs the function the idle loop gives deferred blocks to.
func (k *Kernel) SetReclaimer(r Reclaimer) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	k.reclaimer = r
}

// reclaim empties the deferred queues into the reclaimer.  Blocks drained
// with no reclaimer installed are left to the garbage collector.
func (k *Kernel) reclaim() int {
	flags := k.enterCritical()
	r := k.reclaimer
	k.leaveCritical(flags)

	n := 0
	for _, heap := range []Heap{HeapUser, HeapKernel} {
		q := k.deferredQueue(heap)
		if heap == HeapKernel && q == k.delayedUser {
			continue
		}
		for b := range q.Drain() {
			if r != nil {
				r(heap, b)
			}
			n++
		}
	}
	return n
}
