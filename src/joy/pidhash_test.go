package joy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillTable(t *testing.T, p *PIDTable, n int) []Pid {
	t.Helper()
	var pids []Pid
	for i := 0; i < n; i++ {
		pid, err := p.Allocate()
		require.NoError(t, err)
		require.NoError(t, p.Register(pid, &TCB{pid: pid}))
		pids = append(pids, pid)
	}
	return pids
}

func TestPIDTableFull(t *testing.T) {
	p := NewPIDTable(4, 100)
	pids := fillTable(t, p, 4)
	assert.Equal(t, []Pid{1, 2, 3, 4}, pids)
	assert.Equal(t, 4, p.Count())

	_, err := p.Allocate()
	assert.ErrorIs(t, err, ErrNoMorePIDs)

	require.NoError(t, p.Unregister(2))
	pid, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, p.home(2), p.home(pid), "new pid reuses the freed slot")
	assert.Equal(t, Pid(6), pid)
	require.NoError(t, p.Register(pid, &TCB{pid: pid}))
	assert.Equal(t, pid, p.Lookup(pid).pid)
}

func TestPIDAllocateDoesNotReserve(t *testing.T) {
	p := NewPIDTable(4, 100)
	pid, err := p.Allocate()
	require.NoError(t, err)
	assert.Nil(t, p.Lookup(pid))
	assert.Equal(t, 0, p.Count())
}

func TestPIDWrap(t *testing.T) {
	p := NewPIDTable(4, 6)
	pids := fillTable(t, p, 4)
	require.Equal(t, []Pid{1, 2, 3, 4}, pids)
	require.NoError(t, p.Unregister(3))

	// 5 and 6 hash onto occupied slots, so allocation wraps round to 3
	pid, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, Pid(3), pid)
	require.NoError(t, p.Register(pid, &TCB{pid: pid}))

	_, err = p.Allocate()
	assert.ErrorIs(t, err, ErrNoMorePIDs)
}

func TestPIDCollisionsProbe(t *testing.T) {
	p := NewPIDTable(4, 100)
	a, b := &TCB{pid: 0}, &TCB{pid: 4}
	require.NoError(t, p.Register(0, a))
	require.NoError(t, p.Register(4, b))
	assert.Same(t, a, p.Lookup(0))
	assert.Same(t, b, p.Lookup(4))

	require.NoError(t, p.Unregister(0))
	assert.Nil(t, p.Lookup(0))
	assert.Same(t, b, p.Lookup(4), "probe chain survives a removal")
	assert.ErrorIs(t, p.Unregister(0), ErrPidNotFound)
}

func TestPIDProgrammingErrors(t *testing.T) {
	p := NewPIDTable(4, 100)
	require.NoError(t, p.Register(7, &TCB{pid: 7}))
	assert.Panics(t, func() { _ = p.Register(7, &TCB{pid: 7}) })
	assert.Panics(t, func() { _ = p.Register(8, nil) })
	assert.Panics(t, func() { NewPIDTable(0, 10) })
	assert.Panics(t, func() { NewPIDTable(8, 4) })
}

func TestPIDClear(t *testing.T) {
	p := NewPIDTable(4, 100)
	fillTable(t, p, 3)
	p.Clear()
	assert.Equal(t, 0, p.Count())
	assert.Nil(t, p.Lookup(1))
	pid, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, Pid(1), pid)
}

func TestPIDAllocateSkipsProbedPid(t *testing.T) {
	p := NewPIDTable(4, 8)
	require.NoError(t, p.Register(1, &TCB{pid: 1}))
	// 5 collides with 1 and lands in slot 2
	require.NoError(t, p.Register(5, &TCB{pid: 5}))

	pid, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, Pid(3), pid)
	pid, err = p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, Pid(4), pid)

	require.NoError(t, p.Unregister(1))
	pid, err = p.Allocate()
	require.NoError(t, err)
	assert.NotEqual(t, Pid(5), pid)
	assert.Nil(t, p.Lookup(pid))
	assert.NoError(t, p.Register(pid, &TCB{pid: pid}))
}
