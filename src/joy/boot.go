package joy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"calm/src/lib/trust"
)

const idleName = "Idle Task"

// FirstTask is the task boot creates once everything else is up.  A nil
// FirstTask, or one with no Entry, boots to the idle loop alone.
type FirstTask struct {
	Name      string
	Priority  Priority
	StackSize int
	Entry     EntryPoint
	Argv      []string
}

// FirstTaskFromConfig fills a FirstTask from the config's first_task keys.
func FirstTaskFromConfig(cfg Config, entry EntryPoint, argv ...string) *FirstTask {
	return &FirstTask{
		Name:      cfg.FirstTask.Name,
		Priority:  Priority(cfg.FirstTask.Priority),
		StackSize: cfg.FirstTask.StackSize,
		Entry:     entry,
		Argv:      argv,
	}
}

// idleEntry stands in for the boot code itself.  The idle task never starts
// at its entry point, it is already running the idle loop.
func idleEntry(argv []string) int {
	panic("joy: idle task entry point called")
}

// buildIdle fills in the idle TCB.  The idle task is never built by
// TaskInit: it has no stack of its own and is registered by hand.
func (k *Kernel) buildIdle() *TCB {
	t := &k.idle
	*t = TCB{}
	t.link.Bind(t)
	t.pid = IdlePid
	t.name = idleName
	t.priority = IdlePriority
	t.state = StateReadyToRun
	t.flags = tcbFlagTTypeKernel | tcbFlagIdle
	t.entry = idleEntry
	t.argv = []string{idleName}

	k.assertf(t.IsIdle() && t.Type() == TaskTypeKernel, "idle tcb flags are wrong")
	k.assertf(t.link.Owner() == nil, "idle tcb is already on a list")
	k.assertf(t.priority < k.cfg.minPriority(), "idle priority must be below every task")
	return t
}

// Boot brings a kernel from nothing to an idle task on the ready list and,
// if first is given, one more task activated.  An error from any step before
// the first task means there is no usable kernel.  Failing to create the
// first task is only logged.
func Boot(cfg Config, arch Arch, subsys Subsystems, first *FirstTask) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("boot: bad config: %w", err)
	}
	if arch == nil {
		return nil, fmt.Errorf("boot: no arch")
	}
	k := &Kernel{
		cfg:    cfg,
		arch:   arch,
		bootID: uuid.New(),
	}
	trust.Infof("booting %s: max tasks %d, max pid %d", k.bootID, cfg.MaxTasks, cfg.MaxPID)

	if err := k.bootIdle(); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		init Initializer
	}{
		{"semaphores", subsys.Semaphores},
		{"watchdogs", subsys.Watchdogs},
		{"clock", subsys.Clock},
		{"arch", arch},
	}
	for _, s := range steps {
		if s.init == nil {
			continue
		}
		if err := s.init.Initialize(); err != nil {
			return nil, fmt.Errorf("boot: initializing %s: %w", s.name, err)
		}
		trust.Debugf("boot: %s up", s.name)
	}

	if first != nil && first.Entry != nil {
		t, err := k.TaskCreate(first.Name, first.Priority, make([]byte, first.StackSize),
			first.Entry, first.Argv)
		if err != nil {
			trust.Errorf("boot: first task %q not started: %v", first.Name, err)
		} else {
			trust.Infof("boot: first task %q is pid %d", first.Name, t.Pid())
		}
	}
	return k, nil
}

// bootIdle is steps one to six: empty lists and pid table, then the idle
// task built by hand, registered as pid 0 and put at the head of the ready
// list.
func (k *Kernel) bootIdle() error {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	k.bootLists()
	k.bootPids()
	idle := k.buildIdle()
	if err := k.pids.Register(IdlePid, idle); err != nil {
		return fmt.Errorf("boot: registering idle task: %w", err)
	}
	k.alive = 1
	k.readyToRun.pushHead(idle)
	k.arch.InitialState(idle)
	k.verify()
	return nil
}

// bootLists is step one: empty task lists and deferred queues.
func (k *Kernel) bootLists() {
	k.initLists()
	k.delayedUser = &DeferredQueue{}
	if k.cfg.Features.KernelHeap {
		k.delayedKernel = &DeferredQueue{}
	}
}

// bootPids is step two: a cleared pid table and the tcb pool.  The pool
// holds one less than MaxTasks since the idle tcb lives in the Kernel.
func (k *Kernel) bootPids() {
	k.pids = NewPIDTable(k.cfg.MaxTasks, Pid(k.cfg.MaxPID))
	k.pids.Clear()
	k.pool = NewTCBManagedPool(uint32(k.cfg.MaxTasks - 1))
}

// IdleLoop is what the idle task does: reclaim deferred memory and let the
// Arch idle.  On hardware ctx is never done and this does not return.
func (k *Kernel) IdleLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			trust.Infof("idle loop stopped: %v", ctx.Err())
			return
		default:
		}
		if k.cfg.IdleReclaim {
			if n := k.reclaim(); n > 0 {
				trust.Statsf("reclaim", "idle loop reclaimed %d blocks", n)
			}
		}
		k.arch.Idle()
	}
}

// Start boots and falls into the idle loop.  A boot failure is fatal.
func Start(ctx context.Context, cfg Config, arch Arch, subsys Subsystems, first *FirstTask) {
	k, err := Boot(cfg, arch, subsys, first)
	if err != nil {
		trust.Fatalf(1, "%v", err)
		return
	}
	k.IdleLoop(ctx)
}
