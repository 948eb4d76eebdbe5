package joy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enduranceOps = 5000

// TestEndurance throws random operations at a kernel and checks all the
// bookkeeping after every one.
func TestEndurance(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTasks = 16
	cfg.MaxPID = 40
	cfg.Features = Features{Signals: true, MQueue: true, Paging: true}
	k, _ := boot(t, cfg)
	rng := rand.New(rand.NewSource(2))

	waits := []TaskState{StatePending, StateInactive, StateWaitSemaphore, StateWaitSignal,
		StateWaitMQNotEmpty, StateWaitMQNotFull, StateWaitPageFill, StateReadyToRun,
		StateRunning}
	live := map[Pid]*TCB{}
	pick := func() *TCB {
		n := rng.Intn(len(live))
		for _, tcb := range live {
			if n == 0 {
				return tcb
			}
			n--
		}
		return nil
	}
	created, deleted, refused := 0, 0, 0

	for op := 0; op < enduranceOps; op++ {
		n := rng.Intn(10)
		switch {
		case n < 3 || len(live) == 0:
			prio := Priority(1 + rng.Intn(255))
			tcb, err := k.TaskCreate("endurance", prio, make([]byte, cfg.MinStackSize), nop, nil)
			if len(live) == cfg.MaxTasks-1 {
				require.ErrorIs(t, err, ErrTooManyTasks, "op %d", op)
				refused++
				break
			}
			require.NoError(t, err, "op %d", op)
			_, dup := live[tcb.Pid()]
			require.False(t, dup, "op %d: pid %d handed out twice", op, tcb.Pid())
			live[tcb.Pid()] = tcb
			created++
		case n < 5:
			tcb := pick()
			pid := tcb.Pid()
			require.NoError(t, k.TaskDelete(tcb), "op %d", op)
			delete(live, pid)
			require.Nil(t, k.Lookup(pid))
			deleted++
		case n < 6:
			tcb := pick()
			require.NoError(t, k.SetPriority(tcb, Priority(1+rng.Intn(255))), "op %d", op)
		default:
			tcb := pick()
			k.Transition(tcb, waits[rng.Intn(len(waits))])
		}

		require.NoError(t, k.CheckInvariants(), "op %d", op)
		require.Equal(t, len(live)+1, k.AliveCount(), "op %d", op)
		top := k.HighestReady()
		require.NotNil(t, top)
		for _, tcb := range live {
			if tcb.state == StateReadyToRun {
				require.GreaterOrEqual(t, top.Priority(), tcb.Priority(), "op %d", op)
			}
		}
	}
	assert.Len(t, k.Snapshot(), len(live)+1)
	assert.Positive(t, created)
	assert.Positive(t, deleted)
	t.Logf("created %d, deleted %d, refused %d", created, deleted, refused)

	for _, tcb := range live {
		require.NoError(t, k.TaskDelete(tcb))
	}
	assert.Equal(t, 1, k.AliveCount())
	assert.Equal(t, []Pid{IdlePid}, k.ReadyList())
	assert.Equal(t, cfg.MaxTasks-1, k.pool.Available())
}
