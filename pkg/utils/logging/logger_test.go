package logging

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
)

func TestInitLoggerWithOptions_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Dir = filepath.Join(dir, "logs")
	opts.ConsoleLevel = zapcore.FatalLevel

	logger, path, err := InitLoggerWithOptions("test", opts)
	require.NoError(t, err)

	logger.Debug("Slot created", zap.String("slot_id", "slot-1"))
	_ = logger.Sync()

	assert.True(t, strings.HasPrefix(filepath.Base(path), "test_"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "Slot created", entry["msg"])
	assert.Equal(t, "slot-1", entry["slot_id"])
	assert.Equal(t, "test", entry["env"])
	assert.Contains(t, entry, "timestamp")
}
