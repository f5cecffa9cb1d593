package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := defaultLogger
	t.Cleanup(func() { defaultLogger = old })

	defaultLogger = nil
	var buf bytes.Buffer
	SetOutput(&buf)
	return &buf
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "FATAL", LevelFatal.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, parseLevel("debug"))
	assert.Equal(t, LevelWarn, parseLevel("warning"))
	assert.Equal(t, LevelInfo, parseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	defaultLogger.level = LevelWarn

	Debug("dropped debug")
	Info("dropped info")
	Warn("kept warn")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept warn")
}

func TestPackageLevelFunctionsNoOpUninitialized(t *testing.T) {
	old := defaultLogger
	defer func() { defaultLogger = old }()
	defaultLogger = nil

	require.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})
}

func TestComponentLoggerPrefixesEveryLine(t *testing.T) {
	buf := captureOutput(t)

	log := Component("bridge")
	log.Debug("dropping frame %d", 7)
	log.Warn("no handler for %s", "mystery")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] [bridge] dropping frame 7")
	assert.Contains(t, out, "[WARN] [bridge] no handler for mystery")
}

func TestComponentLoggerSafeBeforeInit(t *testing.T) {
	old := defaultLogger
	defer func() { defaultLogger = old }()
	defaultLogger = nil

	require.NotPanics(t, func() {
		Component("canvas").Info("host session ready")
	})
}
