// Package log provides leveled, structured logging for the driver,
// mirroring the teacher's log.Setup(level) call site in main.go but backed
// by go.uber.org/zap instead of a hand-rolled writer.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls verbosity. Quiet is the default: only warnings and errors.
type Level int

const (
	LevelQuiet Level = iota
	LevelInfo
	LevelVerbose
)

var (
	mu     sync.Mutex
	logger *zap.Logger = zap.NewNop()
)

// Setup configures the package-level logger for the given level. Safe to
// call once at process startup (e.g. from a cobra PersistentPreRun, as the
// teacher does for --verbose).
func Setup(level Level) {
	mu.Lock()
	defer mu.Unlock()

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "" // terse, single-process CLI output
	switch level {
	case LevelVerbose:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case LevelInfo:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		// Logging setup must never be fatal to the CLI.
		return
	}
	logger = l
}

// L returns the process-wide logger. Returns a no-op logger before Setup
// is called, so packages may log unconditionally during early init.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	_ = L().Sync()
}

// ParseLevel maps the --log-level CLI flag value to a Level.
func ParseLevel(s string) Level {
	switch s {
	case "verbose", "debug":
		return LevelVerbose
	case "info":
		return LevelInfo
	default:
		return LevelQuiet
	}
}
