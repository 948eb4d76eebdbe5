package joy

import "strings"

// TaskState is info about a given task contained in the TCB.
type TaskState uint8

const (
	StateInvalid TaskState = iota
	StatePending
	StateReadyToRun
	StateRunning
	StateInactive
	StateWaitSemaphore
	StateWaitSignal
	StateWaitMQNotEmpty
	StateWaitMQNotFull
	StateWaitPageFill
	NumTaskStates
)

var stateNames = [NumTaskStates]string{
	StateInvalid:        "Invalid",
	StatePending:        "Pending",
	StateReadyToRun:     "Ready",
	StateRunning:        "Running",
	StateInactive:       "Inactive",
	StateWaitSemaphore:  "Waiting(sem)",
	StateWaitSignal:     "Waiting(sig)",
	StateWaitMQNotEmpty: "Waiting(mqnotempty)",
	StateWaitMQNotFull:  "Waiting(mqnotfull)",
	StateWaitPageFill:   "Waiting(fill)",
}

func (s TaskState) String() string {
	if s >= NumTaskStates {
		return "Unknown"
	}
	return stateNames[s]
}

var stateAliases = map[string]TaskState{
	"pending":    StatePending,
	"ready":      StateReadyToRun,
	"running":    StateRunning,
	"inactive":   StateInactive,
	"sem":        StateWaitSemaphore,
	"sig":        StateWaitSignal,
	"mqnotempty": StateWaitMQNotEmpty,
	"mqnotfull":  StateWaitMQNotFull,
	"fill":       StateWaitPageFill,
}

// ParseTaskState accepts the short names the console uses ("sem", "ready",
// ...) as well as the String() form.
func ParseTaskState(s string) (TaskState, bool) {
	if st, ok := stateAliases[strings.ToLower(s)]; ok {
		return st, true
	}
	for i, n := range stateNames {
		if strings.EqualFold(n, s) && TaskState(i) != StateInvalid {
			return TaskState(i), true
		}
	}
	return StateInvalid, false
}

// Features picks the optional wait states.  A state whose feature is off has
// no task list and no task can enter it.
type Features struct {
	Signals    bool `mapstructure:"signals"`
	MQueue     bool `mapstructure:"mqueue"`
	Paging     bool `mapstructure:"paging"`
	KernelHeap bool `mapstructure:"kernel_heap"`
}

// registryEntry is one row of the task state registry: the list that holds
// tasks in a state and whether that list is kept in priority order.
type registryEntry struct {
	list    *taskList
	ordered bool
}

// initLists builds every task list and the registry that maps states onto
// them.  The registry is not modified after this.
func (k *Kernel) initLists() {
	k.readyToRun = newTaskList("ready", true)
	k.pending = newTaskList("pending", true)
	k.inactive = newTaskList("inactive", false)
	k.waitSem = newTaskList("waitsem", true)

	k.registry = [NumTaskStates]registryEntry{}
	k.registry[StatePending] = registryEntry{k.pending, true}
	k.registry[StateReadyToRun] = registryEntry{k.readyToRun, true}
	k.registry[StateRunning] = registryEntry{k.readyToRun, true}
	k.registry[StateInactive] = registryEntry{k.inactive, false}
	k.registry[StateWaitSemaphore] = registryEntry{k.waitSem, true}

	if k.cfg.Features.Signals {
		k.waitSig = newTaskList("waitsig", false)
		k.registry[StateWaitSignal] = registryEntry{k.waitSig, false}
	}
	if k.cfg.Features.MQueue {
		k.waitMQNotEmpty = newTaskList("waitmqnotempty", true)
		k.waitMQNotFull = newTaskList("waitmqnotfull", true)
		k.registry[StateWaitMQNotEmpty] = registryEntry{k.waitMQNotEmpty, true}
		k.registry[StateWaitMQNotFull] = registryEntry{k.waitMQNotFull, true}
	}
	if k.cfg.Features.Paging {
		k.waitFill = newTaskList("waitfill", true)
		k.registry[StateWaitPageFill] = registryEntry{k.waitFill, true}
	}
}

// Supports is true if tasks can be placed in state s with this configuration.
func (k *Kernel) Supports(s TaskState) bool {
	return s < NumTaskStates && k.registry[s].list != nil
}

// lists returns each distinct task list once, ready first.
func (k *Kernel) lists() []*taskList {
	var result []*taskList
	seen := map[*taskList]bool{}
	for _, s := range []TaskState{StateReadyToRun, StatePending, StateInactive,
		StateWaitSemaphore, StateWaitSignal, StateWaitMQNotEmpty,
		StateWaitMQNotFull, StateWaitPageFill} {
		l := k.registry[s].list
		if l != nil && !seen[l] {
			seen[l] = true
			result = append(result, l)
		}
	}
	return result
}
