package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the console level and an optional debug log file.
type LogConfig struct {
	Level string
	File  string
}

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
	close func() error
}

// NewLogger creates a Logger writing INFO and above to stderr.
func NewLogger() *Logger {
	l, _ := NewLoggerWithConfig(LogConfig{Level: "info"})
	return l
}

// NewLoggerWithConfig builds a console logger on stderr at cfg.Level. When
// cfg.File is set every DEBUG and higher entry is also appended there as JSON.
func NewLoggerWithConfig(cfg LogConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("logger: parse level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}
	closeFn := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("logger: open %q: %w", cfg.File, err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel))
		closeFn = f.Close
	}

	return newLogger(zap.New(zapcore.NewTee(cores...)), closeFn), nil
}

// WrapZap adapts an existing zap logger, e.g. one from zaptest.
func WrapZap(z *zap.Logger) *Logger {
	return newLogger(z, func() error { return nil })
}

func newLogger(z *zap.Logger, closeFn func() error) *Logger {
	return &Logger{zap: z, sugar: z.Sugar(), close: closeFn}
}

// Zap exposes the structured logger for callers that log with typed fields.
func (l *Logger) Zap() *zap.Logger { return l.zap }

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Close flushes buffered entries and releases the log file, if any.
func (l *Logger) Close() error {
	_ = l.zap.Sync()
	return l.close()
}
