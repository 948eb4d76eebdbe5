package joy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvariantsCatchStateMismatch(t *testing.T) {
	k, _ := boot(t, testConfig())
	a := spawn(t, k, "a", 50)
	require.NoError(t, k.CheckInvariants())

	a.state = StateWaitSemaphore
	err := k.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "but on list ready")
	a.state = StateReadyToRun
	assert.NoError(t, k.CheckInvariants())
}

func TestInvariantsCatchCountDrift(t *testing.T) {
	k, _ := boot(t, testConfig())
	spawn(t, k, "a", 50)
	k.alive++
	err := k.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alive count")
}

func TestInvariantsCatchBadOrder(t *testing.T) {
	k, _ := boot(t, testConfig())
	a := spawn(t, k, "a", 50)
	spawn(t, k, "b", 40)
	// sneak a's priority down without repositioning it
	a.priority = 10
	err := k.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ahead of")
}

func TestVerifyPanics(t *testing.T) {
	k, _ := boot(t, testConfig())
	a := spawn(t, k, "a", 50)
	k.alive = 5
	assert.Panics(t, func() { k.Transition(a, StateWaitSemaphore) })

	cfg := testConfig()
	cfg.Debug.CheckInvariants = false
	k2, _ := boot(t, cfg)
	b := spawn(t, k2, "b", 50)
	k2.alive = 5
	assert.NotPanics(t, func() { k2.Transition(b, StateWaitSemaphore) })
}
