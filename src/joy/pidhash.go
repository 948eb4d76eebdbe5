package joy

import (
	"calm/src/lib/trust"
)

type pidHashEntry struct {
	pid Pid
	tcb *TCB
}

// PIDTable serves two purposes: it makes finding a new unique pid quick and
// it maps a pid to its TCB in O(1).  Its capacity is the maximum number of
// live tasks.  It is not concurrent safe; the Kernel calls it inside a
// critical section.
type PIDTable struct {
	entries []pidHashEntry
	lastPid Pid
	maxPid  Pid
	used    int
}

// NewPIDTable returns an empty table with room for capacity tasks handing out
// pids in [1, maxPid].  Pid 0 is never handed out, it belongs to the idle task.
func NewPIDTable(capacity int, maxPid Pid) *PIDTable {
	if capacity <= 0 || int(maxPid) < capacity {
		panic("pid table needs a positive capacity and maxPid >= capacity")
	}
	p := &PIDTable{
		entries: make([]pidHashEntry, capacity),
		maxPid:  maxPid,
	}
	p.Clear()
	return p
}

// Clear empties every slot and resets the last assigned pid.
func (p *PIDTable) Clear() {
	for i := range p.entries {
		p.entries[i] = pidHashEntry{pid: InvalidPid}
	}
	p.lastPid = IdlePid
	p.used = 0
}

func (p *PIDTable) home(pid Pid) int {
	return int(pid) % len(p.entries)
}

func (p *PIDTable) Capacity() int {
	return len(p.entries)
}

// Count is the number of occupied slots.
func (p *PIDTable) Count() int {
	return p.used
}

// Allocate picks the next unused pid after the last one handed out whose
// home slot is free, wrapping from maxPid back to 1.  The pid is not reserved
// until it is registered.
func (p *PIDTable) Allocate() (Pid, error) {
	if p.used == len(p.entries) {
		return InvalidPid, MakeError(ErrNoMorePIDs, InvalidPid)
	}
	next := p.lastPid
	for tries := Pid(0); tries < p.maxPid; tries++ {
		next++
		if next > p.maxPid {
			next = 1
		}
		// a pid pushed off its home slot by Register is still taken
		if p.entries[p.home(next)].tcb == nil && p.find(next) < 0 {
			p.lastPid = next
			return next, nil
		}
	}
	return InvalidPid, MakeError(ErrNoMorePIDs, InvalidPid)
}

// Register records tcb under pid, at its home slot or the next free one.
// Registering a pid twice is a programming error and panics.
func (p *PIDTable) Register(pid Pid, tcb *TCB) error {
	if pid < 0 || tcb == nil {
		panic("pid table: register of invalid pid or nil tcb")
	}
	if p.find(pid) >= 0 {
		trust.Errorf("pid table: pid %d registered twice", pid)
		panic("pid table: pid registered twice")
	}
	if p.used == len(p.entries) {
		return MakeError(ErrNoMorePIDs, pid)
	}
	h := p.home(pid)
	for i := 0; i < len(p.entries); i++ {
		slot := (h + i) % len(p.entries)
		if p.entries[slot].tcb == nil {
			p.entries[slot] = pidHashEntry{pid: pid, tcb: tcb}
			p.used++
			return nil
		}
	}
	return MakeError(ErrNoMorePIDs, pid)
}

// assign is Allocate followed by Register.
func (p *PIDTable) assign(tcb *TCB) (Pid, error) {
	pid, err := p.Allocate()
	if err != nil {
		return InvalidPid, err
	}
	return pid, p.Register(pid, tcb)
}

// Lookup returns the TCB registered under pid, or nil.
func (p *PIDTable) Lookup(pid Pid) *TCB {
	if i := p.find(pid); i >= 0 {
		return p.entries[i].tcb
	}
	return nil
}

// Unregister frees the slot holding pid.
func (p *PIDTable) Unregister(pid Pid) error {
	i := p.find(pid)
	if i < 0 {
		return MakeError(ErrPidNotFound, pid)
	}
	p.entries[i] = pidHashEntry{pid: InvalidPid}
	p.used--
	return nil
}

// find probes from the home slot.  Allocated pids sit in their home slot so
// the first probe hits; a miss looks at every slot because freed slots leave
// no tombstone.
func (p *PIDTable) find(pid Pid) int {
	if pid < 0 {
		return -1
	}
	h := p.home(pid)
	for i := 0; i < len(p.entries); i++ {
		slot := (h + i) % len(p.entries)
		if p.entries[slot].tcb != nil && p.entries[slot].pid == pid {
			return slot
		}
	}
	return -1
}

func (p *PIDTable) each(fn func(pid Pid, tcb *TCB)) {
	for _, e := range p.entries {
		if e.tcb != nil {
			fn(e.pid, e.tcb)
		}
	}
}
