package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "info", "json").WithComponent("engine")
	log.Info("deposit", "amount", "10")
	log.Debug("hidden")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "deposit", record["msg"])
	assert.Equal(t, "engine", record["component"])
	assert.Equal(t, "10", record["amount"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug", "text").WithFields(map[string]interface{}{"user": "alice"})
	log.Debug("mint")
	assert.Contains(t, buf.String(), "user=alice")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log := NewWithOptions(Options{Level: "info", File: path})
	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	custom := Discard()
	SetDefault(custom)
	assert.Same(t, custom, Default())
}
