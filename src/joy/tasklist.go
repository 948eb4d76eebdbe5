package joy

import (
	"fmt"

	"calm/src/lib/upbeat"
)

// taskList is one of the per-state lists.  Prioritized lists also remember
// the last TCB of every priority band so that an insert lands at the tail of
// its band without walking the list.
type taskList struct {
	name    string
	dl      TCBDoublyLinkedList
	bands   []*TCBNodeDL   // nil for lists that are not prioritized
	present *upbeat.BitSet // bands that are not empty
}

func newTaskList(name string, prioritized bool) *taskList {
	l := &taskList{name: name, dl: NewTCBDoublyLinkedList()}
	if prioritized {
		l.bands = make([]*TCBNodeDL, NumPriorities)
		l.present = upbeat.NewBitSet(NumPriorities)
	}
	return l
}

func (l *taskList) head() *TCB {
	if n := l.dl.First(); n != nil {
		return n.Value()
	}
	return nil
}

func (l *taskList) length() int {
	return l.dl.Length()
}

func (l *taskList) contains(t *TCB) bool {
	return l.dl.Contains(&t.link)
}

// append puts t at the tail.
func (l *taskList) append(t *TCB) {
	l.dl.AppendNode(&t.link)
	if l.bands != nil {
		// only legal when the tail's band is not lower than t's
		l.noteTail(t)
	}
}

// insertOrdered puts t after every task with the same or higher priority,
// so equal priorities keep their arrival order.
func (l *taskList) insertOrdered(t *TCB) {
	if l.bands == nil {
		panic("ordered insert into unordered list " + l.name)
	}
	p := t.priority
	node := &t.link
	if tail := l.bands[p]; tail != nil {
		l.dl.InsertAfter(tail, node)
	} else if above := l.present.NextSet(upbeat.BitIndex(p) + 1); above != upbeat.NoBit {
		// lowest band that outranks p
		l.dl.InsertAfter(l.bands[above], node)
	} else {
		l.dl.PushNode(node)
	}
	l.bands[p] = node
	l.present.Set(upbeat.BitIndex(p))
}

// pushHead puts t at the front regardless of priority.  Only the idle task
// gets here, at boot, when there is nothing else on the list.
func (l *taskList) pushHead(t *TCB) {
	if !l.dl.Empty() {
		panic("pushHead on non-empty list " + l.name)
	}
	l.dl.PushNode(&t.link)
	if l.bands != nil {
		l.noteTail(t)
	}
}

func (l *taskList) noteTail(t *TCB) {
	p := t.priority
	if l.bands[p] == nil || l.bands[p] == t.link.prev {
		l.bands[p] = &t.link
		l.present.Set(upbeat.BitIndex(p))
	}
}

func (l *taskList) remove(t *TCB) {
	node := &t.link
	if l.bands != nil && l.bands[t.priority] == node {
		prev := node.Prev()
		if prev != nil && prev.Value().priority == t.priority {
			l.bands[t.priority] = prev
		} else {
			l.bands[t.priority] = nil
			l.present.Clear(upbeat.BitIndex(t.priority))
		}
	}
	l.dl.Remove(node)
}

func (l *taskList) each(fn func(t *TCB)) {
	_ = l.dl.TraverseTCB(func(t *TCB) error {
		fn(t)
		return nil
	})
}

// check verifies ordering and band bookkeeping of a prioritized list.
func (l *taskList) check() error {
	if l.bands == nil {
		return nil
	}
	var prev *TCB
	tails := make(map[Priority]*TCB)
	err := l.dl.TraverseTCB(func(t *TCB) error {
		if prev != nil && prev.priority < t.priority {
			return fmt.Errorf("list %s: pid %d (prio %d) ahead of pid %d (prio %d)",
				l.name, prev.pid, prev.priority, t.pid, t.priority)
		}
		tails[t.priority] = t
		prev = t
		return nil
	})
	if err != nil {
		return err
	}
	for p := 0; p < NumPriorities; p++ {
		want := tails[Priority(p)]
		got := l.bands[p]
		if (want == nil) != (got == nil) || (want != nil && got.Value() != want) {
			return fmt.Errorf("list %s: band %d tail is wrong", l.name, p)
		}
		if l.present.On(upbeat.BitIndex(p)) != (want != nil) {
			return fmt.Errorf("list %s: band %d presence bit is wrong", l.name, p)
		}
	}
	return nil
}
