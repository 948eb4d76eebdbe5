package joy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCarriesPid(t *testing.T) {
	err := MakeError(ErrBadState, 7)
	assert.Equal(t, Pid(7), err.Pid())
	assert.Equal(t, ErrBadState, err.Raw())
	assert.Equal(t, "pid 7: task is in the wrong state for this operation", err.Error())
	assert.True(t, errors.Is(err, ErrBadState))
	assert.False(t, errors.Is(err, ErrBadStack))
}

func TestErrorWithoutPid(t *testing.T) {
	err := MakeError(ErrTooManyTasks, InvalidPid)
	assert.Equal(t, InvalidPid, err.Pid())
	assert.Equal(t, "too many tasks alive", err.Error())

	wrapped := fmt.Errorf("spawning: %w", err)
	assert.ErrorIs(t, wrapped, ErrTooManyTasks)
	var je JoyError
	assert.True(t, errors.As(wrapped, &je))
	assert.Equal(t, err, je)
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []RawJoyError{ErrTooManyTasks, ErrBadPriority, ErrBadStack, ErrBadEntry,
		ErrBadState, ErrIdleTask, ErrNotLocked, ErrNoMorePIDs, ErrPidNotFound}
	seen := map[RawJoyError]bool{}
	for _, e := range all {
		assert.False(t, seen[e], "duplicate error value %x", uint64(e))
		seen[e] = true
		assert.NotEqual(t, "unknown error code", e.Error())
	}
	assert.Equal(t, "unknown error code", RawJoyError(0).Error())
}
