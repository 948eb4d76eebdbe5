package joy

import (
	"calm/src/lib/trust"
)

// TaskInit builds a user task and leaves it inactive.  It fails without
// changing anything if the priority, stack or entry point is bad or if
// MaxTasks tasks are already alive.
func (k *Kernel) TaskInit(name string, prio Priority, stack []byte, entry EntryPoint,
	argv []string) (*TCB, error) {
	return k.taskInit(TaskTypeUser, name, prio, stack, entry, argv)
}

// KThreadInit is TaskInit for kernel threads.
func (k *Kernel) KThreadInit(name string, prio Priority, stack []byte, entry EntryPoint,
	argv []string) (*TCB, error) {
	return k.taskInit(TaskTypeKernel, name, prio, stack, entry, argv)
}

func (k *Kernel) taskInit(ttype TaskType, name string, prio Priority, stack []byte,
	entry EntryPoint, argv []string) (*TCB, error) {
	if prio < k.cfg.minPriority() || prio > k.cfg.maxPriority() {
		return nil, MakeError(ErrBadPriority, InvalidPid)
	}
	if len(stack) < k.cfg.MinStackSize {
		return nil, MakeError(ErrBadStack, InvalidPid)
	}
	if entry == nil {
		return nil, MakeError(ErrBadEntry, InvalidPid)
	}

	flags := k.enterCritical()
	defer k.leaveCritical(flags)

	if k.alive >= k.cfg.MaxTasks {
		trust.Warnf("task %q not created: %d tasks alive", name, k.alive)
		return nil, MakeError(ErrTooManyTasks, InvalidPid)
	}
	t := k.pool.Alloc()
	if t == nil {
		return nil, MakeError(ErrTooManyTasks, InvalidPid)
	}
	pid, err := k.pids.assign(t)
	if err != nil {
		k.pool.Dealloc(t)
		return nil, err
	}
	t.init(pid, name, prio, ttype, entry, argv, stack)
	k.arch.InitialState(t)
	k.transition(t, StateInactive)
	k.alive++
	k.verify()
	trust.Debugf("task %q initialized as pid %d (prio %d, %s)", name, pid, prio, ttype)
	return t, nil
}

// TaskActivate moves an inactive task onto the ready list, or the pending
// list if the running task holds the scheduler lock and t would preempt it.
func (k *Kernel) TaskActivate(t *TCB) error {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	if t.state != StateInactive {
		return MakeError(ErrBadState, t.pid)
	}
	if k.addReadyToRun(t) {
		trust.Debugf("pid %d now highest ready", t.pid)
	}
	k.verify()
	return nil
}

// TaskCreate is TaskInit followed by TaskActivate.
func (k *Kernel) TaskCreate(name string, prio Priority, stack []byte, entry EntryPoint,
	argv []string) (*TCB, error) {
	t, err := k.TaskInit(name, prio, stack, entry, argv)
	if err != nil {
		return nil, err
	}
	if err := k.TaskActivate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskDelete destroys a task in any state.  Its pid is freed, its stack goes
// onto a deferred queue and its TCB goes back to the pool, so t must not be
// used afterwards.
func (k *Kernel) TaskDelete(t *TCB) error {
	if t.IsIdle() {
		return MakeError(ErrIdleTask, t.pid)
	}
	pid := t.pid
	heap, stack, err := k.taskDelete(t)
	if err != nil {
		return err
	}
	if stack != nil {
		k.DeferRelease(heap, Block(stack))
	}
	trust.Debugf("pid %d deleted", pid)
	return nil
}

func (k *Kernel) taskDelete(t *TCB) (Heap, []byte, error) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)

	pid := t.pid
	if k.pids.Lookup(pid) != t {
		return HeapUser, nil, MakeError(ErrPidNotFound, pid)
	}
	rtcb := k.readyToRun.head()
	k.removeFromList(t)
	k.headChanged(rtcb)
	if err := k.pids.Unregister(pid); err != nil {
		k.assertf(false, "pid %d vanished from the pid table: %v", pid, err)
	}
	k.alive--
	heap := HeapUser
	if t.Type() == TaskTypeKernel {
		heap = HeapKernel
	}
	stack := t.stack
	t.stack = nil
	k.pool.Dealloc(t)
	k.verify()
	return heap, stack, nil
}
