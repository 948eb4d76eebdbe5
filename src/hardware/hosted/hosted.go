// Package hosted runs the kernel as an ordinary process.  Interrupt masking
// becomes a mutex and idling becomes a short sleep.
package hosted

import (
	"sync"
	"sync/atomic"
	"time"

	"calm/src/joy"
	"calm/src/lib/trust"
)

// DefaultTick is how long Idle sleeps.
const DefaultTick = 10 * time.Millisecond

// SavedState is what InitialState leaves in TCB.SavedState: where the task
// would start and the top of its stack.
type SavedState struct {
	Entry    joy.EntryPoint
	StackTop int
	Argv     []string
}

// Arch implements joy.Arch on the host.  The zero value is not usable; call
// New.
type Arch struct {
	irq  sync.Mutex
	tick time.Duration

	idles       atomic.Uint64
	initialized atomic.Bool

	// InitializeHook, if set, runs during Initialize and its error fails
	// boot.
	InitializeHook func() error
}

func New(tick time.Duration) *Arch {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Arch{tick: tick}
}

// DisableIRQs takes the kernel lock.  Calls do not nest.
func (a *Arch) DisableIRQs() joy.IRQState {
	a.irq.Lock()
	return 1
}

func (a *Arch) RestoreIRQs(state joy.IRQState) {
	if state != 0 {
		a.irq.Unlock()
	}
}

func (a *Arch) InitialState(t *joy.TCB) {
	t.SavedState = &SavedState{
		Entry:    t.Entry(),
		StackTop: t.StackSize(),
		Argv:     t.Argv(),
	}
}

func (a *Arch) Initialize() error {
	if a.InitializeHook != nil {
		if err := a.InitializeHook(); err != nil {
			return err
		}
	}
	a.initialized.Store(true)
	trust.Debugf("hosted: tick is %v", a.tick)
	return nil
}

func (a *Arch) Idle() {
	a.idles.Add(1)
	time.Sleep(a.tick)
}

// Initialized is true once Initialize has succeeded.
func (a *Arch) Initialized() bool {
	return a.initialized.Load()
}

// IdleCount is the number of times Idle has been called.
func (a *Arch) IdleCount() uint64 {
	return a.idles.Load()
}

// Clock is the time of day subsystem.  It remembers when it was
// initialized and reports uptime from there.
type Clock struct {
	mu   sync.Mutex
	boot time.Time
	now  func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boot = c.now()
	trust.Infof("clock: boot time %s", c.boot.Format(time.RFC3339))
	return nil
}

// BootTime is the zero time until Initialize runs.
func (c *Clock) BootTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boot
}

func (c *Clock) Uptime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.boot.IsZero() {
		return 0
	}
	return c.now().Sub(c.boot)
}

// Subsystems returns what a hosted boot brings up: only the clock has any
// state on the host.
func Subsystems(clock *Clock) joy.Subsystems {
	return joy.Subsystems{
		Semaphores: joy.InitFunc(func() error {
			trust.Debugf("hosted: semaphores ready")
			return nil
		}),
		Watchdogs: joy.InitFunc(func() error {
			trust.Debugf("hosted: watchdogs ready")
			return nil
		}),
		Clock: clock,
	}
}
