package joy

// IRQState is whatever the Arch needs to put the interrupt mask back the way
// it was found.
type IRQState uint64

// Arch is the processor specific part of the kernel.  The scheduler core
// never switches context itself, it only asks the Arch to seed a task's
// saved state and to idle.
type Arch interface {
	// InitialState seeds the saved execution state of a new task from its
	// entry point and stack.  Called with interrupts disabled.
	InitialState(t *TCB)
	// Initialize brings up interrupt controllers and the system tick.
	Initialize() error
	// Idle does whatever low power waiting the processor supports.
	Idle()
	DisableIRQs() IRQState
	RestoreIRQs(IRQState)
}

// Initializer is a kernel facility brought up once during boot.
type Initializer interface {
	Initialize() error
}

// InitFunc lets an ordinary function serve as an Initializer.
type InitFunc func() error

func (f InitFunc) Initialize() error {
	return f()
}

// Subsystems are the facilities boot brings up, in this order, before the
// Arch.  A nil entry is skipped.
type Subsystems struct {
	Semaphores Initializer
	Watchdogs  Initializer
	Clock      Initializer
}
