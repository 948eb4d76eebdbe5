package joy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type FirstTaskConfig struct {
	Name      string `mapstructure:"name"`
	Priority  int    `mapstructure:"priority"`
	StackSize int    `mapstructure:"stack_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type DebugConfig struct {
	CheckInvariants bool `mapstructure:"check_invariants"`
}

// Config is everything that a C kernel would fix at build time.
type Config struct {
	MaxTasks     int             `mapstructure:"max_tasks"`
	MaxPID       int             `mapstructure:"max_pid"`
	MinPriority  int             `mapstructure:"min_priority"`
	MaxPriority  int             `mapstructure:"max_priority"`
	MinStackSize int             `mapstructure:"min_stack_size"`
	IdleReclaim  bool            `mapstructure:"idle_reclaim"`
	Features     Features        `mapstructure:"features"`
	FirstTask    FirstTaskConfig `mapstructure:"first_task"`
	Log          LogConfig       `mapstructure:"log"`
	Debug        DebugConfig     `mapstructure:"debug"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTasks:     32,
		MaxPID:       32767,
		MinPriority:  1,
		MaxPriority:  255,
		MinStackSize: 256,
		IdleReclaim:  true,
		Features: Features{
			Signals: true,
			MQueue:  true,
		},
		FirstTask: FirstTaskConfig{
			Name:      "init",
			Priority:  100,
			StackSize: 4096,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c Config) minPriority() Priority { return Priority(c.MinPriority) }
func (c Config) maxPriority() Priority { return Priority(c.MaxPriority) }

// Validate rejects configurations the kernel cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MaxTasks < 2 {
		errs = append(errs, fmt.Errorf("max_tasks must be at least 2, got %d", c.MaxTasks))
	}
	if c.MaxPID < c.MaxTasks || c.MaxPID > 0x7fff {
		errs = append(errs, fmt.Errorf("max_pid must be in [max_tasks, 32767], got %d", c.MaxPID))
	}
	if c.MinPriority < 1 || c.MaxPriority > 255 || c.MinPriority > c.MaxPriority {
		errs = append(errs, fmt.Errorf("priorities must satisfy 1 <= min <= max <= 255, got %d..%d",
			c.MinPriority, c.MaxPriority))
	}
	if c.MinStackSize < 1 {
		errs = append(errs, fmt.Errorf("min_stack_size must be positive, got %d", c.MinStackSize))
	}
	if c.FirstTask.Priority < c.MinPriority || c.FirstTask.Priority > c.MaxPriority {
		errs = append(errs, fmt.Errorf("first_task.priority must be in [%d, %d], got %d",
			c.MinPriority, c.MaxPriority, c.FirstTask.Priority))
	}
	if c.FirstTask.StackSize < c.MinStackSize {
		errs = append(errs, fmt.Errorf("first_task.stack_size must be at least %d, got %d",
			c.MinStackSize, c.FirstTask.StackSize))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("max_tasks", d.MaxTasks)
	v.SetDefault("max_pid", d.MaxPID)
	v.SetDefault("min_priority", d.MinPriority)
	v.SetDefault("max_priority", d.MaxPriority)
	v.SetDefault("min_stack_size", d.MinStackSize)
	v.SetDefault("idle_reclaim", d.IdleReclaim)
	v.SetDefault("features.signals", d.Features.Signals)
	v.SetDefault("features.mqueue", d.Features.MQueue)
	v.SetDefault("features.paging", d.Features.Paging)
	v.SetDefault("features.kernel_heap", d.Features.KernelHeap)
	v.SetDefault("first_task.name", d.FirstTask.Name)
	v.SetDefault("first_task.priority", d.FirstTask.Priority)
	v.SetDefault("first_task.stack_size", d.FirstTask.StackSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("debug.check_invariants", d.Debug.CheckInvariants)
}

// LoadConfig reads a yaml config.  With an empty path it looks for joy.yaml
// in the usual places and falls back to the defaults if there is none.
// Environment variables prefixed JOY_ (JOY_MAX_TASKS, JOY_LOG_LEVEL, ...)
// override the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("joy")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.joy")
		v.AddConfigPath("/etc/joy")
	}
	v.SetEnvPrefix("JOY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
