// Package log provides console and per-rank file logging for replicasync
// components. All components log through *zap.Logger, this package only
// builds and configures the loggers.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// mainLoggerName is a name of the global logger.
const mainLoggerName = "defaultLogger"

var (
	// where logs go by default.
	logWriter io.Writer = os.Stdout

	encoderMu   sync.RWMutex
	jsonEncoder bool
)

var (
	mu     sync.RWMutex
	appLog *zap.Logger
)

func init() {
	SetupGlobal(NewWithLevel(mainLoggerName, zap.NewAtomicLevelAt(zapcore.InfoLevel)))
}

// GetLogger returns the process wide logger.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return appLog
}

// SetupGlobal overwrites the process wide logger.
func SetupGlobal(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	appLog = logger
}

// JSONLog turns JSON format on or off for loggers created afterwards.
func JSONLog(b bool) {
	encoderMu.Lock()
	defer encoderMu.Unlock()
	jsonEncoder = b
}

// Encoder returns the encoder selected with JSONLog.
func Encoder() zapcore.Encoder {
	encoderMu.RLock()
	defer encoderMu.RUnlock()
	if jsonEncoder {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
}

// NewNop creates a silent logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// NewWithLevel creates a logger with a fixed level and with a set of (optional) hooks.
func NewWithLevel(module string, level zap.AtomicLevel, hooks ...func(zapcore.Entry) error) *zap.Logger {
	core := zapcore.NewCore(Encoder(), zapcore.AddSync(logWriter), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

// ParseLevel decodes a textual level into an atomic level.
// An empty string yields the fallback level.
func ParseLevel(text string, fallback zapcore.Level) (zap.AtomicLevel, error) {
	lvl := zap.NewAtomicLevelAt(fallback)
	if text == "" {
		return lvl, nil
	}
	if err := lvl.UnmarshalText([]byte(text)); err != nil {
		return lvl, fmt.Errorf("parse log level %q: %w", text, err)
	}
	return lvl, nil
}

// RankFileName is the name of the per-rank training log inside a run directory.
func RankFileName(rank int) string {
	return fmt.Sprintf("train_log_rank%d.txt", rank)
}

// TeeToFile returns a logger that writes every entry of logger to the file
// at path as well. The returned closer must be called when the logger is no
// longer used.
func TeeToFile(logger *zap.Logger, path string, level zapcore.LevelEnabler) (*zap.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	fcore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(f),
		level,
	)
	tee := logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fcore)
	}))
	return tee, f, nil
}
