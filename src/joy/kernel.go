package joy

import (
	"fmt"

	"github.com/google/uuid"

	"calm/src/lib/trust"
)

// Kernel holds all the scheduler state that a C kernel would keep in
// globals.  It is created by Boot and lives until the process exits.
type Kernel struct {
	cfg    Config
	arch   Arch
	bootID uuid.UUID

	// task lists; nil when the matching feature is off
	readyToRun     *taskList
	pending        *taskList
	inactive       *taskList
	waitSem        *taskList
	waitSig        *taskList
	waitMQNotEmpty *taskList
	waitMQNotFull  *taskList
	waitFill       *taskList

	registry [NumTaskStates]registryEntry

	pids  *PIDTable
	alive int
	pool  *TCBManagedPool
	idle  TCB

	delayedUser   *DeferredQueue
	delayedKernel *DeferredQueue // only with Features.KernelHeap
	reclaimer     Reclaimer
}

func (k *Kernel) Config() Config {
	return k.cfg
}

func (k *Kernel) BootID() uuid.UUID {
	return k.bootID
}

// Idle returns the idle task's TCB.
func (k *Kernel) Idle() *TCB {
	return &k.idle
}

// enterCritical and leaveCritical bracket every change to the task lists,
// the pid table and the alive count.  They do not nest.
func (k *Kernel) enterCritical() IRQState {
	return k.arch.DisableIRQs()
}

func (k *Kernel) leaveCritical(flags IRQState) {
	k.arch.RestoreIRQs(flags)
}

// assertf stops the kernel on a programming error.  Continuing with a
// corrupt list is worse than stopping.
func (k *Kernel) assertf(cond bool, format string, params ...interface{}) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, params...)
	trust.Errorf("assertion failed: %s", msg)
	panic("joy: " + msg)
}

// verify runs the invariant checks when the config asks for them.  Must be
// called inside a critical section.
func (k *Kernel) verify() {
	if !k.cfg.Debug.CheckInvariants {
		return
	}
	if err := k.checkInvariants(); err != nil {
		k.assertf(false, "invariant violated: %v", err)
	}
}

// AliveCount is the number of live tasks, the idle task included.
func (k *Kernel) AliveCount() int {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	return k.alive
}

// Lookup maps a pid to its TCB, or nil.
func (k *Kernel) Lookup(pid Pid) *TCB {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	return k.pids.Lookup(pid)
}
