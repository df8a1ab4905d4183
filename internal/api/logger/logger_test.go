package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(minLevel LogLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLoggerWithCore(core, minLevel), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("INFO"))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestContextBecomesFields(t *testing.T) {
	l, logs := newObserved(DEBUG)

	l.Info("Order placed", map[string]interface{}{
		"order_id":  "abc",
		"completed": 2,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Order placed", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx["order_id"])
	assert.EqualValues(t, 2, ctx["completed"])
	assert.Contains(t, ctx, "pid")
}

func TestMinLevelFilters(t *testing.T) {
	l, logs := newObserved(WARN)

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)
	assert.Equal(t, "error", logs.All()[1].Message)

	l.SetMinLevel(DEBUG)
	l.Debug("now visible")
	assert.Equal(t, 3, logs.Len())
}

func TestCallerIsTheLoggingSite(t *testing.T) {
	l, logs := newObserved(DEBUG)

	l.Info("from test")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.True(t, entries[0].Caller.Defined)
	assert.Contains(t, entries[0].Caller.File, "logger_test.go")
}

func TestPackageFunctionsUseDefault(t *testing.T) {
	previous := defaultLogger
	defer SetDefault(previous)

	l, logs := newObserved(INFO)
	SetDefault(l)

	Debug("hidden")
	Info("shown", map[string]interface{}{"k": "v"})
	Error("also shown")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "v", logs.All()[0].ContextMap()["k"])
	assert.Contains(t, logs.All()[0].Caller.File, "logger_test.go")
}
