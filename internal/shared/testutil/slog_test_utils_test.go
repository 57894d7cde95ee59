package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		AssertLogContains(t, handler, slog.LevelError, "error message")
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		tagged := logger.With("component", "trainer")
		tagged.Warn("unit failed", "model", "ols")
		logger.Info("plain")

		require.Equal(t, 2, handler.Count())
		records := handler.GetRecords()
		assert.Equal(t, "trainer", records[0].Attrs["component"])
		assert.Equal(t, "ols", records[0].Attrs["model"])
		assert.NotContains(t, records[1].Attrs, "component")
		AssertLogAttr(t, handler, "component", "trainer")
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message")
		handler.Clear()
		assert.Zero(t, handler.Count())
		AssertNoErrors(t, handler)
	})
}

func TestWriteCSV(t *testing.T) {
	path := WriteCSV(t, t.TempDir(), "nested/data.csv",
		[]string{"period", "volume"},
		[][]string{{"1", "10"}, {"2", "12"}})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "period,volume\n1,10\n2,12\n", string(content))
}
