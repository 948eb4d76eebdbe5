package trust

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, format)
	prev := SetLevel(DefaultMask)
	t.Cleanup(func() {
		SetOutput(os.Stderr, "text")
		SetLevel(prev)
	})
	return &buf
}

func TestInfofText(t *testing.T) {
	buf := capture(t, "text")
	Infof("task %d created", 7)
	assert.Contains(t, buf.String(), "task 7 created")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestDebugMasked(t *testing.T) {
	buf := capture(t, "text")
	Debugf("should not see %s", "this")
	assert.Empty(t, buf.String())

	SetLevel(DefaultMask | DebugMask)
	Debugf("now you see %s", "this")
	assert.Contains(t, buf.String(), "now you see this")
}

func TestStatsfCategory(t *testing.T) {
	buf := capture(t, "json")
	Statsf("sched", "alive=%d", 3)
	assert.Contains(t, buf.String(), `"stats":"sched"`)
	assert.Contains(t, buf.String(), `"msg":"alive=3"`)
}

func TestWithAddsAttribute(t *testing.T) {
	buf := capture(t, "text")
	With("boot", "abc")
	Warnf("hello")
	assert.Contains(t, buf.String(), "boot=abc")
}

func TestFatalfUsesExit(t *testing.T) {
	buf := capture(t, "text")
	code := -1
	prev := SetExit(func(c int) { code = c })
	defer SetExit(prev)

	SetLevel(Nothing)
	Fatalf(3, "boot failed: %s", "clock")
	assert.Equal(t, 3, code)
	assert.Contains(t, buf.String(), "boot failed: clock")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, DefaultMask|DebugMask, ParseLevel("DEBUG"))
	require.Equal(t, ErrorMask, ParseLevel("error"))
	require.Equal(t, DefaultMask, ParseLevel("bogus"))

	capture(t, "text")
	SetLevel(ParseLevel("warn"))
	assert.Equal(t, "error warn stats", LevelToString())
}
