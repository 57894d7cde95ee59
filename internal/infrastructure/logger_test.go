package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"mmmcli/internal/config"
	"mmmcli/pkg/contracts"
)

// decodeLines parses every JSON record in buf.
func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestInitializeLoggerFileOutput(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	logFile := filepath.Join(t.TempDir(), "logs", "trainer.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Debug("dropped")
	logger.Info("fit finished", "model", "ols", "iterations", 300)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeLines(t, content)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "fit finished", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "ols", entry["model"])
	assert.Equal(t, float64(300), entry["iterations"])
	assert.Equal(t, config.AppName, entry["service"])
	assert.Equal(t, contracts.Version, entry["version"])
}

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestInitializeLoggerBadPath(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: filepath.Join(blocker, "trainer.log"),
	})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestContextCorrelation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", false)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "unit")
	defer span.End()

	ctx = WithTraceID(ctx, "trace-123")
	ctx = WithRunID(ctx, "run-7")
	logger.InfoContext(ctx, "unit finished")
	logger.Info("no context")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)

	assert.Equal(t, "trace-123", entries[0]["trace_id"])
	assert.Equal(t, "run-7", entries[0]["run_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[0]["span_id"])

	for _, key := range []string{"trace_id", "run_id", "span_id"} {
		assert.NotContains(t, entries[1], key)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithTraceID(context.Background(), GenerateTraceID())
	traceID := GetTraceID(ctx)
	require.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)), "existing trace ID kept")
	assert.NotEmpty(t, GetTraceID(EnsureTraceID(context.Background())))
	assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())

	assert.Empty(t, GetRunID(context.Background()))
	assert.Equal(t, "r1", GetRunID(WithRunID(context.Background(), "r1")))
}

func TestLoggerHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithComponent(logger, "trainer").Info("component message")
	WithError(logger, os.ErrNotExist).Info("error message")
	WithError(logger, nil).Info("no error")

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 3)
	assert.Equal(t, "trainer", entries[0]["component"])
	assert.Equal(t, os.ErrNotExist.Error(), entries[1]["error"])
	assert.NotContains(t, entries[2], "error")
}
