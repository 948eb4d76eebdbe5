package trust

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	StatsMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80
)

// DefaultMask is everything but debug output.
const DefaultMask = ErrorMask | WarnMask | InfoMask | StatsMask

var (
	mu     sync.RWMutex
	level  = fatalMask | DefaultMask
	logger = slog.New(newHandler(os.Stderr, "text"))
	exit   = os.Exit
)

func newHandler(w io.Writer, format string) slog.Handler {
	// trust does its own masking, the handler sees everything
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetOutput sends log messages to w using either the "text" or "json" format.
// Attributes added with With are dropped.
func SetOutput(w io.Writer, format string) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(newHandler(w, format))
}

// With adds a key/value pair to every message logged from now on.
func With(key string, value interface{}) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.With(key, value)
}

// SetExit replaces the function Fatalf uses to stop the program and returns
// the previous one.  Tests use this to turn Fatalf into a panic.
func SetExit(fn func(int)) func(int) {
	mu.Lock()
	defer mu.Unlock()
	prev := exit
	exit = fn
	return prev
}

// SetLevel lets you set an error mask directly. You can pass in something like
// ErrorMask | DebugMask to control exactly what gets printed.  It returns the
// previous mask.
func SetLevel(mask MaskLevel) MaskLevel {
	if mask&0x1f == 0 {
		Warnf("trust.SetLevel is turning off log messages")
	}
	mu.Lock()
	defer mu.Unlock()
	r := level & 0x1f
	level = (mask & 0x1f) | fatalMask
	return r
}

func Level() MaskLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// ParseLevel turns a level name from a config file into a mask that includes
// that level and everything more severe.  Unknown names give DefaultMask.
func ParseLevel(s string) MaskLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DefaultMask | DebugMask
	case "info":
		return DefaultMask
	case "warn", "warning":
		return ErrorMask | WarnMask | StatsMask
	case "error":
		return ErrorMask
	case "none", "off":
		return Nothing
	}
	return DefaultMask
}

func LevelToString() string {
	l := Level()
	var names []string
	for _, m := range []struct {
		mask MaskLevel
		name string
	}{{ErrorMask, "error"}, {WarnMask, "warn"}, {InfoMask, "info"},
		{DebugMask, "debug"}, {StatsMask, "stats"}} {
		if l&m.mask > 0 {
			names = append(names, m.name)
		}
	}
	return strings.Join(names, " ")
}

func logf(l MaskLevel, format string, params ...interface{}) {
	mu.RLock()
	enabled := level&l != 0
	lg := logger
	mu.RUnlock()
	if !enabled {
		return
	}
	switch {
	case l&(ErrorMask|fatalMask) > 0:
		lg.Error(strings.TrimSuffix(fmt.Sprintf(format, params...), "\n"))
	case l&WarnMask > 0:
		lg.Warn(strings.TrimSuffix(fmt.Sprintf(format, params...), "\n"))
	case l&InfoMask > 0:
		lg.Info(strings.TrimSuffix(fmt.Sprintf(format, params...), "\n"))
	case l&DebugMask > 0:
		lg.Debug(strings.TrimSuffix(fmt.Sprintf(format, params...), "\n"))
	case l&StatsMask > 0:
		s, ok := params[0].(string)
		if !ok {
			s = "unknown"
		}
		lg.Info(strings.TrimSuffix(fmt.Sprintf(format, params[1:]...), "\n"), "stats", s)
	}
}

// Fatalf logs the given message (format + params) and then exits with the
// exitCode provided.  Fatalf is not maskable.
func Fatalf(exitCode int, format string, params ...interface{}) {
	logf(fatalMask, format, params...)
	mu.RLock()
	fn := exit
	mu.RUnlock()
	fn(exitCode)
}

// Errorf prints the given log message (format + params) using the ErrorMask level.
func Errorf(format string, params ...interface{}) {
	logf(ErrorMask, format, params...)
}

// Warnf prints the given log message (format + params) using the WarnMask level.
func Warnf(format string, params ...interface{}) {
	logf(WarnMask, format, params...)
}

// Infof prints the given log message (format + params) using the InfoMask level.
func Infof(format string, params ...interface{}) {
	logf(InfoMask, format, params...)
}

// Debugf prints the given log message (format + params) using the DebugMask level.
func Debugf(format string, params ...interface{}) {
	logf(DebugMask, format, params...)
}

// Statsf prints the given log message (format + params) using the StatsMask level and
// takes an extra parameter that will be visible in the log message as the category
// of stats that is reported.
func Statsf(category string, format string, params ...interface{}) {
	logf(StatsMask, format, append([]interface{}{category}, params...)...)
}
