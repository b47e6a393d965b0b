package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesKeyValueFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).Component("discovery")

	logger.Info("candidates selected", "source", "basket", "count", 3)
	logger.Error("scrape failed", "error", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "discovery", first["component"])
	assert.Equal(t, "basket", first["source"])
	assert.EqualValues(t, 3, first["count"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
}

func TestLoggerOddArgsAndNil(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	logger.Info("dangling", "key")
	logger.Debug("filtered out")

	require.Len(t, logs.All(), 1)
	_, ok := logs.All()[0].ContextMap()["key"]
	assert.True(t, ok)

	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Info("no logger") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
