package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewFileOutput(t *testing.T) {

	file := filepath.Join(t.TempDir(), "cropwatch.log")

	logger, err := New(Config{Level: "warn", File: file, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("not written")
	logger.Warn("frame skipped")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "frame skipped", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
}
