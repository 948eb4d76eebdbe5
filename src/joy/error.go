package joy

import "fmt"

const subsystemMask = 0x00ff_0000_0000_0000
const pidMask = 0x0000_ffff_0000_0000
const errorNumberMask = 0x0000_0000_0000_ffff

// Task Errors
const TaskSubsystem = 1
const TaskTooMany = 1
const TaskBadPriority = 2
const TaskBadStack = 3
const TaskBadEntry = 4
const TaskBadState = 5
const TaskIsIdle = 6
const TaskNotLocked = 7

var ErrTooManyTasks = errorValue(TaskSubsystem, TaskTooMany)
var ErrBadPriority = errorValue(TaskSubsystem, TaskBadPriority)
var ErrBadStack = errorValue(TaskSubsystem, TaskBadStack)
var ErrBadEntry = errorValue(TaskSubsystem, TaskBadEntry)
var ErrBadState = errorValue(TaskSubsystem, TaskBadState)
var ErrIdleTask = errorValue(TaskSubsystem, TaskIsIdle)
var ErrNotLocked = errorValue(TaskSubsystem, TaskNotLocked)

// Pid Errors
const PidSubsystem = 2
const PidNoMorePids = 1
const PidNotFound = 2

var ErrNoMorePIDs = errorValue(PidSubsystem, PidNoMorePids)
var ErrPidNotFound = errorValue(PidSubsystem, PidNotFound)

// JoyError is a RawJoyError with the pid of the task involved packed in.
type JoyError uint64
type RawJoyError uint64 // error with just the constant part of the value filled in

var errorMap = map[uint64]string{
	uint64(ErrTooManyTasks): "too many tasks alive",
	uint64(ErrBadPriority):  "priority out of range",
	uint64(ErrBadStack):     "stack missing or too small",
	uint64(ErrBadEntry):     "no entry point",
	uint64(ErrBadState):     "task is in the wrong state for this operation",
	uint64(ErrIdleTask):     "operation not permitted on the idle task",
	uint64(ErrNotLocked):    "scheduler is not locked",
	uint64(ErrNoMorePIDs):   "no process ids available",
	uint64(ErrPidNotFound):  "no such process id",
}

func errorText(raw uint64) string {
	t, ok := errorMap[raw&^pidMask]
	if !ok {
		return "unknown error code"
	}
	return t
}

func errorValue(subsys byte, errorNumber uint16) RawJoyError {
	ss := subsystemMask & (uint64(subsys) << 48)
	en := errorNumberMask & (uint64(errorNumber) << 0)
	return RawJoyError(ss | en)
}

func (r RawJoyError) Error() string {
	return errorText(uint64(r))
}

// MakeError adds the dynamic fields (the pid involved) to the error value.
// Pass InvalidPid when no task is involved.
func MakeError(rawError RawJoyError, pid Pid) JoyError {
	raw := uint64(rawError)
	p := (uint64(uint16(pid)) << 32) & pidMask
	return JoyError(raw | p)
}

// Pid returns the pid packed into the error, or InvalidPid.
func (j JoyError) Pid() Pid {
	p := uint16((uint64(j) & pidMask) >> 32)
	if p == 0xffff {
		return InvalidPid
	}
	return Pid(p)
}

// Raw strips the dynamic fields.
func (j JoyError) Raw() RawJoyError {
	return RawJoyError(uint64(j) &^ pidMask)
}

func (j JoyError) Error() string {
	if j.Pid() == InvalidPid {
		return errorText(uint64(j))
	}
	return fmt.Sprintf("pid %d: %s", j.Pid(), errorText(uint64(j)))
}

// Is lets errors.Is match a JoyError against the RawJoyError it was made from.
func (j JoyError) Is(target error) bool {
	switch t := target.(type) {
	case RawJoyError:
		return j.Raw() == t
	case JoyError:
		return j == t
	}
	return false
}
