package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var zapLevels = map[LogLevel]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a LogLevel, defaulting to INFO
func ParseLevel(level string) LogLevel {
	switch level {
	case "DEBUG":
		return DEBUG
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger provides structured JSON logging with timestamp, PID and caller
type Logger struct {
	level zap.AtomicLevel
	zl    *zap.Logger
}

// NewLogger creates a logger writing JSON lines; ERROR goes to stderr, the rest to stdout
func NewLogger(minLevel LogLevel) *Logger {
	level := zap.NewAtomicLevelAt(zapLevels[minLevel])

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	belowError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.ErrorLevel
	})
	atLeastError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), belowError),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), atLeastError),
	)
	return newLogger(core, level)
}

// NewLoggerWithCore builds a logger over an arbitrary zap core (tests use an observer)
func NewLoggerWithCore(core zapcore.Core, minLevel LogLevel) *Logger {
	level := zap.NewAtomicLevelAt(zapLevels[minLevel])
	filtered := zap.LevelEnablerFunc(level.Enabled)
	return newLogger(&levelCore{Core: core, enabler: filtered}, level)
}

func newLogger(core zapcore.Core, level zap.AtomicLevel) *Logger {
	// Skip: log -> Debug/Info/Warn/Error -> actual caller
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(zap.Int("pid", os.Getpid()))
	return &Logger{level: level, zl: zl}
}

// levelCore applies the logger's atomic level on top of a wrapped core
type levelCore struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.enabler.Enabled(l) && c.Core.Enabled(l)
}

func (c *levelCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return checked
	}
	return c.Core.Check(entry, checked)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), enabler: c.enabler}
}

// Default logger instance (INFO level)
var defaultLogger = NewLogger(INFO)

// fields converts the context map into zap fields in a stable key order
func fields(context []map[string]interface{}) []zap.Field {
	if len(context) == 0 || len(context[0]) == 0 {
		return nil
	}
	keys := make([]string, 0, len(context[0]))
	for k := range context[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, context[0][k]))
	}
	return out
}

func (l *Logger) log(level LogLevel, message string, context []map[string]interface{}) {
	if ce := l.zl.Check(zapLevels[level], message); ce != nil {
		ce.Write(fields(context)...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.log(DEBUG, message, context)
}

// Info logs an info message
func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.log(INFO, message, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.log(WARN, message, context)
}

// Error logs an error message
func (l *Logger) Error(message string, context ...map[string]interface{}) {
	l.log(ERROR, message, context)
}

// SetMinLevel changes the minimum level at runtime
func (l *Logger) SetMinLevel(level LogLevel) {
	l.level.SetLevel(zapLevels[level])
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Package-level convenience functions using default logger

// Debug logs a debug message using the default logger
func Debug(message string, context ...map[string]interface{}) {
	defaultLogger.log(DEBUG, message, context)
}

// Info logs an info message using the default logger
func Info(message string, context ...map[string]interface{}) {
	defaultLogger.log(INFO, message, context)
}

// Warn logs a warning message using the default logger
func Warn(message string, context ...map[string]interface{}) {
	defaultLogger.log(WARN, message, context)
}

// Error logs an error message using the default logger
func Error(message string, context ...map[string]interface{}) {
	defaultLogger.log(ERROR, message, context)
}

// SetMinLevel sets the minimum log level for the default logger
func SetMinLevel(level LogLevel) {
	defaultLogger.SetMinLevel(level)
}

// SetDefault replaces the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Sync flushes the default logger
func Sync() error {
	return defaultLogger.Sync()
}
