package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chachabrian/sendit-backend/internal/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLogParcelWritesStructuredFields(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.LogParcel(4, 9, "change_status", Fields{"status": "Delivered"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "parcel", entry["type"])
	assert.Equal(t, "change_status", entry["action"])
	assert.Equal(t, "Delivered", entry["status"])
	assert.EqualValues(t, 4, entry["parcel_id"])
}

func TestLogAuthFailureIsWarning(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.LogAuth("user", 0, "a@x.com", "login", true)
	assert.Empty(t, buf.String())

	l.LogAuth("user", 0, "a@x.com", "login", false)
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sendit.log")
	l, err := New(&config.LoggingConfig{Level: "info", Format: "text", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)

	l.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
