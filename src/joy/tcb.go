package joy

// Pid is a process identifier.  Pid 0 always belongs to the idle task.
type Pid int32

const (
	InvalidPid Pid = -1
	IdlePid    Pid = 0
)

// Priority orders tasks on the prioritized lists: bigger numbers run first.
type Priority uint8

const (
	IdlePriority  Priority = 0
	NumPriorities          = 256
)

// TaskType is stored in the low bits of the TCB flags.
type TaskType uint8

const (
	TaskTypeUser TaskType = iota
	TaskTypeKernel
)

func (t TaskType) String() string {
	if t == TaskTypeKernel {
		return "kernel"
	}
	return "user"
}

// tcbFlags are just markers on the TCB for internal use.
type tcbFlags uint32

const (
	tcbFlagTTypeMask   tcbFlags = 0x3
	tcbFlagTTypeUser   tcbFlags = tcbFlags(TaskTypeUser)
	tcbFlagTTypeKernel tcbFlags = tcbFlags(TaskTypeKernel)
	tcbFlagIdle        tcbFlags = 1 << 4
)

// EntryPoint is where a task starts running.  The returned value is the
// task's exit status.
type EntryPoint func(argv []string) int

// TCB is where we store all of the data structures that are per task.
// A TCB is on exactly one task list at a time, the one that the task state
// registry names for its state.
type TCB struct {
	link      TCBNodeDL
	pid       Pid
	name      string
	priority  Priority
	state     TaskState
	flags     tcbFlags
	lockCount int
	entry     EntryPoint
	argv      []string
	stack     []byte

	// SavedState belongs to the Arch.  It is seeded by Arch.InitialState.
	SavedState interface{}
}

func (t *TCB) init(pid Pid, name string, prio Priority, ttype TaskType,
	entry EntryPoint, args []string, stack []byte) {
	t.link.Bind(t)
	t.pid = pid
	t.name = name
	t.priority = prio
	t.state = StateInvalid
	t.flags = tcbFlags(ttype) & tcbFlagTTypeMask
	t.entry = entry
	t.argv = append([]string{name}, args...)
	t.stack = stack
}

func (t *TCB) Pid() Pid           { return t.pid }
func (t *TCB) Name() string       { return t.name }
func (t *TCB) Priority() Priority { return t.priority }
func (t *TCB) Entry() EntryPoint  { return t.entry }
func (t *TCB) StackSize() int     { return len(t.stack) }
func (t *TCB) LockCount() int     { return t.lockCount }
func (t *TCB) IsIdle() bool       { return t.flags&tcbFlagIdle != 0 }
func (t *TCB) Type() TaskType     { return TaskType(t.flags & tcbFlagTTypeMask) }
func (t *TCB) Argv() []string     { return append([]string(nil), t.argv...) }

// State reports the task's scheduling state.  StateRunning is not stored,
// it is what a ready task at the head of the ready list reports.  The result
// is only stable inside the kernel or for a TCB that no interrupt can move.
func (t *TCB) State() TaskState {
	if t.state == StateReadyToRun && t.link.owner != nil && t.link.prev == nil {
		return StateRunning
	}
	return t.state
}

func (t *TCB) info() TaskInfo {
	return TaskInfo{
		Pid:       t.pid,
		Name:      t.name,
		Priority:  t.priority,
		State:     t.State(),
		Type:      t.Type(),
		StackSize: len(t.stack),
		LockCount: t.lockCount,
	}
}
