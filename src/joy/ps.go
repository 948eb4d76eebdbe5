package joy

// TaskInfo is a copy of the parts of a TCB that ps shows.
type TaskInfo struct {
	Pid       Pid
	Name      string
	Priority  Priority
	State     TaskState
	Type      TaskType
	StackSize int
	LockCount int
}

// Snapshot copies every task on every list, ready list first, each list in
// its own order.  The copy is taken in one critical section so it is
// consistent.
func (k *Kernel) Snapshot() []TaskInfo {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	result := make([]TaskInfo, 0, k.alive)
	for _, l := range k.lists() {
		l.each(func(t *TCB) {
			result = append(result, t.info())
		})
	}
	return result
}

// Info returns the TaskInfo for pid.
func (k *Kernel) Info(pid Pid) (TaskInfo, error) {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	t := k.pids.Lookup(pid)
	if t == nil {
		return TaskInfo{}, MakeError(ErrPidNotFound, pid)
	}
	return t.info(), nil
}
