package logs

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("debug")
	t.Cleanup(func() { SetOutput(os.Stdout) })

	LogJSON("WARN", "Already followed", map[string]interface{}{
		"route":  "/api/profile/:username/follow",
		"userID": "user1",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["severity"])
	assert.Equal(t, "Already followed", entry["message"])
	assert.Equal(t, "user1", entry["userID"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogJSONSeverities(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("debug")
	t.Cleanup(func() { SetOutput(os.Stdout) })

	tests := []struct {
		level    string
		expected string
	}{
		{"DEBUG", "DEBUG"},
		{"INFO", "INFO"},
		{"WARN", "WARN"},
		{"WARNING", "WARN"},
		{"ERROR", "ERROR"},
		{"unknown", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			LogJSON(tt.level, "message", nil)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expected, entry["severity"])
		})
	}
}
