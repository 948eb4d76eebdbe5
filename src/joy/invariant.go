package joy

import (
	"errors"
	"fmt"
)

// CheckInvariants walks every list and the pid table and reports everything
// that is inconsistent.  A nil result means the bookkeeping agrees with
// itself.
func (k *Kernel) CheckInvariants() error {
	flags := k.enterCritical()
	defer k.leaveCritical(flags)
	return k.checkInvariants()
}

func (k *Kernel) checkInvariants() error {
	var errs []error
	seen := make(map[*TCB]*taskList)

	for _, l := range k.lists() {
		l.each(func(t *TCB) {
			if other, ok := seen[t]; ok {
				errs = append(errs, fmt.Errorf("pid %d is on both %s and %s",
					t.pid, other.name, l.name))
				return
			}
			seen[t] = l
			if t.state == StateInvalid || t.state >= NumTaskStates ||
				k.registry[t.state].list != l {
				errs = append(errs, fmt.Errorf("pid %d is %s but on list %s",
					t.pid, t.state, l.name))
			}
			if t.link.Owner() != &l.dl {
				errs = append(errs, fmt.Errorf("pid %d link owner is not list %s",
					t.pid, l.name))
			}
		})
		if err := l.check(); err != nil {
			errs = append(errs, err)
		}
	}

	if k.readyToRun.length() == 0 {
		errs = append(errs, errors.New("ready list is empty"))
	} else if last := k.readyToRun.dl.Last(); last.Value() != &k.idle {
		errs = append(errs, fmt.Errorf("ready list ends with pid %d, not the idle task",
			last.Value().pid))
	}

	pids := make(map[Pid]bool)
	k.pids.each(func(pid Pid, t *TCB) {
		if pids[pid] {
			errs = append(errs, fmt.Errorf("pid %d is in the pid table twice", pid))
		}
		pids[pid] = true
		if t.pid != pid {
			errs = append(errs, fmt.Errorf("pid table maps %d to a tcb with pid %d", pid, t.pid))
		}
		if _, listed := seen[t]; !listed {
			errs = append(errs, fmt.Errorf("pid %d is registered but on no list", pid))
		}
	})
	if k.pids.Lookup(IdlePid) != &k.idle {
		errs = append(errs, errors.New("pid 0 is not the idle task"))
	}
	if k.alive != k.pids.Count() {
		errs = append(errs, fmt.Errorf("alive count %d but %d pids registered",
			k.alive, k.pids.Count()))
	}
	if len(seen) != k.alive {
		errs = append(errs, fmt.Errorf("%d tasks on lists but alive count is %d",
			len(seen), k.alive))
	}
	return errors.Join(errs...)
}
