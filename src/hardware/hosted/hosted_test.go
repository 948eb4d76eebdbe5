package hosted

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calm/src/joy"
)

func testConfig() joy.Config {
	cfg := joy.DefaultConfig()
	cfg.MaxTasks = 4
	cfg.Debug.CheckInvariants = true
	return cfg
}

func TestBootOnHost(t *testing.T) {
	arch := New(time.Millisecond)
	clock := NewClock()
	first := &joy.FirstTask{
		Name:      "init",
		Priority:  10,
		StackSize: 1024,
		Entry:     func(argv []string) int { return 0 },
		Argv:      []string{"-v"},
	}
	k, err := joy.Boot(testConfig(), arch, Subsystems(clock), first)
	require.NoError(t, err)

	assert.True(t, arch.Initialized())
	assert.False(t, clock.BootTime().IsZero())

	top := k.HighestReady()
	require.NotNil(t, top)
	assert.Equal(t, "init", top.Name())
	saved, ok := top.SavedState.(*SavedState)
	require.True(t, ok)
	assert.Equal(t, 1024, saved.StackTop)
	assert.Equal(t, []string{"init", "-v"}, saved.Argv)

	idle, ok := k.Idle().SavedState.(*SavedState)
	require.True(t, ok)
	assert.Equal(t, []string{"Idle Task"}, idle.Argv)
}

func TestInitializeHookFailsBoot(t *testing.T) {
	arch := New(time.Millisecond)
	boom := errors.New("no interrupt controller")
	arch.InitializeHook = func() error { return boom }
	_, err := joy.Boot(testConfig(), arch, Subsystems(NewClock()), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, arch.Initialized())
}

func TestIdleCounts(t *testing.T) {
	arch := New(time.Microsecond)
	arch.Idle()
	arch.Idle()
	assert.Equal(t, uint64(2), arch.IdleCount())
}

func TestClockUptime(t *testing.T) {
	c := NewClock()
	assert.Zero(t, c.Uptime())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }
	require.NoError(t, c.Initialize())
	now = base.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Uptime())
	assert.Equal(t, base, c.BootTime())
}
