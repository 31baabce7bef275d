package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestStructuredLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("pack").
		With("asset", "app.js").
		Error(context.Background(), errors.New("boom"), "Packing failed", "inputs", 2)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Packing failed", record["msg"])
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "pack", record["component"])
	assert.Equal(t, "app.js", record["asset"])
	assert.Equal(t, "boom", record["error"])
	assert.EqualValues(t, 2, record["inputs"])
}

func TestStructuredLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, nil, "warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Output: &buf})
	_ = parent.With("asset", "child.js")

	parent.Info(context.Background(), "parent message")
	assert.NotContains(t, buf.String(), "child.js")
}

func TestMultiLogger(t *testing.T) {
	var first, second bytes.Buffer
	multi := NewMultiLogger(
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &first}),
		NewLogger(&LoggerConfig{Level: LevelInfo, Output: &second}),
	)

	multi.WithComponent("server").With("path", "/a.js").Info(context.Background(), "served")

	for _, out := range []string{first.String(), second.String()} {
		assert.Contains(t, out, "served")
		assert.Contains(t, out, "component=server")
		assert.Contains(t, out, "path=/a.js")
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "assetpack.log")
	logger, err := NewFileLogger(&LoggerConfig{Level: LevelInfo, Format: "text"}, path, DefaultRotation())
	require.NoError(t, err)

	logger.Info(context.Background(), "written to disk", "asset", "site.css")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to disk"))
	assert.Equal(t, path, logger.Path())
}

func TestOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Output: &buf})

	op := StartOperation(logger, "pack")
	duration := op.End(context.Background(), "asset", "app.js")
	assert.GreaterOrEqual(t, duration.Nanoseconds(), int64(0))
	assert.Contains(t, buf.String(), "operation=pack")
	assert.Contains(t, buf.String(), "duration_ms=")
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), errors.New("x"), "discarded")
	})
}
