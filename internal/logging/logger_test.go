package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"netnuke/internal/config"
	"netnuke/internal/logging"
)

func TestLogAddsSequenceAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := logging.NewFromZap(zap.New(core), "INFO")

	l.Log("DEBUG", "скрыто")
	l.Log("INFO", "первая", "device", "/dev/sda", "pass", 1)
	l.Log("ERROR", "вторая")
	l.Log("FATAL", "третья", "dangling")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "первая", entries[0].Message)
	assert.EqualValues(t, 1, first["seq"])
	assert.Equal(t, "/dev/sda", first["device"])
	assert.EqualValues(t, 1, first["pass"])
	assert.Contains(t, first, "elapsed")

	assert.EqualValues(t, 2, entries[1].ContextMap()["seq"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)

	third := entries[2].ContextMap()
	assert.Equal(t, true, third["fatal"])
	assert.Equal(t, "dangling", third["extra"])

	assert.False(t, l.DebugEnabled())
	assert.True(t, logging.NewFromZap(zap.New(core), "debug").DebugEnabled())
}

func TestFileSinkIsStructured(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "netnuke.log")
	cfg.Logging.Structured = true

	l, err := logging.NewEnterpriseLogger(cfg, false)
	require.NoError(t, err)

	l.Log("INFO", "Параметры затирания", "passes", 3)
	l.Log("DEBUG", "не попадёт в файл")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Параметры затирания", entry["msg"])
	assert.EqualValues(t, 3, entry["passes"])
	assert.EqualValues(t, 1, entry["seq"])
}

func TestUnknownLevelIsRejected(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "TRACE"

	_, err := logging.NewEnterpriseLogger(cfg, true)
	assert.Error(t, err)
}
