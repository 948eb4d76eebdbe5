package joy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 32, cfg.MaxTasks)
	assert.True(t, cfg.Features.Signals)
	assert.False(t, cfg.Features.Paging)
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"one task":        func(c *Config) { c.MaxTasks = 1 },
		"pid below cap":   func(c *Config) { c.MaxPID = c.MaxTasks - 1 },
		"pid too big":     func(c *Config) { c.MaxPID = 70000 },
		"zero min prio":   func(c *Config) { c.MinPriority = 0 },
		"inverted":        func(c *Config) { c.MinPriority, c.MaxPriority = 200, 100 },
		"prio too big":    func(c *Config) { c.MaxPriority = 256 },
		"no stack":        func(c *Config) { c.MinStackSize = 0 },
		"first prio high": func(c *Config) { c.FirstTask.Priority = 356 },
		"first prio neg":  func(c *Config) { c.FirstTask.Priority = -1 },
		"first below min": func(c *Config) { c.MinPriority, c.FirstTask.Priority = 50, 10 },
		"first stack":     func(c *Config) { c.FirstTask.StackSize = c.MinStackSize - 1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joy.yaml")
	yaml := `
max_tasks: 8
min_stack_size: 128
features:
  paging: true
  signals: false
first_task:
  name: shell
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("JOY_MAX_PID", "500")
	t.Setenv("JOY_FIRST_TASK_PRIORITY", "42")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxTasks)
	assert.Equal(t, 500, cfg.MaxPID)
	assert.Equal(t, 128, cfg.MinStackSize)
	assert.True(t, cfg.Features.Paging)
	assert.False(t, cfg.Features.Signals)
	assert.True(t, cfg.Features.MQueue, "unset keys keep their defaults")
	assert.Equal(t, "shell", cfg.FirstTask.Name)
	assert.Equal(t, 42, cfg.FirstTask.Priority)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tasks: 1\n"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
