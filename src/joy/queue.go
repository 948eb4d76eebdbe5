package joy

import (
	"calm/src/lib/trust"
)

// Transition is the only way a task changes state: it leaves the list of its
// current state and joins the list of the new one.  Prioritized lists put it
// at the tail of its priority band, the others at the tail.
func (k *Kernel) Transition(t *TCB, state TaskState) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	rtcb := k.readyToRun.head()
	k.transition(t, state)
	k.headChanged(rtcb)
	k.verify()
}

func (k *Kernel) transition(t *TCB, state TaskState) {
	k.assertf(t != nil, "transition of nil tcb")
	if state == StateRunning {
		// running is the head of the ready list, never a stored state
		state = StateReadyToRun
	}
	k.assertf(state < NumTaskStates, "transition of pid %d into unknown state %d", t.pid, state)
	to := k.registry[state]
	k.assertf(to.list != nil, "transition of pid %d into %s, which has no task list",
		t.pid, state)
	k.assertf(!t.IsIdle() || state == StateReadyToRun,
		"the idle task cannot leave the ready list")

	k.removeFromList(t)
	t.state = state
	if to.ordered {
		to.list.insertOrdered(t)
	} else {
		to.list.append(t)
	}
	trust.Debugf("pid %d -> %s", t.pid, state)
}

// removeFromList takes t off whatever list its state names and leaves it in
// StateInvalid.
func (k *Kernel) removeFromList(t *TCB) {
	if t.state == StateInvalid {
		k.assertf(t.link.Owner() == nil, "pid %d is invalid but still on a list", t.pid)
		return
	}
	from := k.registry[t.state].list
	k.assertf(from != nil && from.contains(t), "pid %d is %s but not on that list",
		t.pid, t.state)
	from.remove(t)
	t.state = StateInvalid
}

// HighestReady is the task that should be running now: the head of the
// ready list.  After boot this is never nil.
func (k *Kernel) HighestReady() *TCB {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	return k.readyToRun.head()
}

// ReadyList returns the pids on the ready list in order.
func (k *Kernel) ReadyList() []Pid {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	var pids []Pid
	k.readyToRun.each(func(t *TCB) { pids = append(pids, t.pid) })
	return pids
}

// addReadyToRun makes t runnable.  If the running task has locked the
// scheduler and t would preempt it, t waits on the pending list instead.
// Reports whether the head of the ready list changed.
func (k *Kernel) addReadyToRun(t *TCB) bool {
	rtcb := k.readyToRun.head()
	if rtcb != nil && rtcb.lockCount > 0 && t.priority > rtcb.priority {
		k.transition(t, StatePending)
		return false
	}
	k.transition(t, StateReadyToRun)
	return k.readyToRun.head() != rtcb
}

// Lock stops the running task from being preempted until the matching
// Unlock.  Locks nest.
func (k *Kernel) Lock() {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	rtcb := k.readyToRun.head()
	rtcb.lockCount++
}

// Unlock undoes one Lock.  When the count reaches zero the pending list is
// merged into the ready list.  Reports whether the head of the ready list
// changed.
func (k *Kernel) Unlock() bool {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	rtcb := k.readyToRun.head()
	k.assertf(rtcb.lockCount > 0, "unlock of pid %d which holds no lock", rtcb.pid)
	return k.unlock(rtcb)
}

// TryUnlock is Unlock for callers that cannot know whether the running task
// holds the lock.  It returns ErrNotLocked instead of stopping the kernel.
func (k *Kernel) TryUnlock() (bool, error) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	rtcb := k.readyToRun.head()
	if rtcb.lockCount == 0 {
		return false, MakeError(ErrNotLocked, rtcb.pid)
	}
	return k.unlock(rtcb), nil
}

func (k *Kernel) unlock(rtcb *TCB) bool {
	rtcb.lockCount--
	if rtcb.lockCount > 0 {
		return false
	}
	k.mergePending()
	k.verify()
	return k.readyToRun.head() != rtcb
}

// headChanged merges the pending list when the task that held the lock is
// no longer at the head of the ready list and the new head holds none.
// prev is the head before the change.
func (k *Kernel) headChanged(prev *TCB) {
	rtcb := k.readyToRun.head()
	if rtcb != prev && rtcb.lockCount == 0 {
		k.mergePending()
	}
}

func (k *Kernel) mergePending() {
	for {
		t := k.pending.head()
		if t == nil {
			return
		}
		k.transition(t, StateReadyToRun)
	}
}

// SetPriority changes t's priority and repositions it on its list.
func (k *Kernel) SetPriority(t *TCB, prio Priority) error {
	if t.IsIdle() {
		return MakeError(ErrIdleTask, t.pid)
	}
	if prio < k.cfg.minPriority() || prio > k.cfg.maxPriority() {
		return MakeError(ErrBadPriority, t.pid)
	}
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	rtcb := k.readyToRun.head()
	state := t.state
	k.removeFromList(t)
	t.priority = prio
	if state != StateInvalid {
		k.transition(t, state)
	}
	k.headChanged(rtcb)
	k.verify()
	return nil
}

func isWaitState(s TaskState) bool {
	return s >= StateWaitSemaphore && s <= StateWaitPageFill
}

// Block moves a ready, running or pending task onto the list of wait state
// state.  Unlike Transition it reports misuse as an error, so it is the call
// for code driven by user input.
func (k *Kernel) Block(t *TCB, state TaskState) error {
	if t.IsIdle() {
		return MakeError(ErrIdleTask, t.pid)
	}
	if !isWaitState(state) || !k.Supports(state) {
		return MakeError(ErrBadState, t.pid)
	}
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	if t.state != StateReadyToRun && t.state != StatePending {
		return MakeError(ErrBadState, t.pid)
	}
	rtcb := k.readyToRun.head()
	k.transition(t, state)
	k.headChanged(rtcb)
	k.verify()
	return nil
}

// Unblock makes a waiting task runnable again, going through the pending
// list if the scheduler is locked.  Reports whether the head of the ready
// list changed.
func (k *Kernel) Unblock(t *TCB) (bool, error) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	if !isWaitState(t.state) {
		return false, MakeError(ErrBadState, t.pid)
	}
	changed := k.addReadyToRun(t)
	k.verify()
	return changed, nil
}
