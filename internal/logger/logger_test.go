package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/cbng-reviewer/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    config.LoggingConfig
		debug     bool
		checkFunc func(t *testing.T, output string)
	}{
		{
			name:   "Text Logger Info Level",
			config: config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
			checkFunc: func(t *testing.T, output string) {
				assert.Contains(t, output, "level=INFO")
				assert.Contains(t, output, `msg="test message"`)
				assert.Contains(t, output, "edit_id=1234")
			},
		},
		{
			name:   "JSON Logger Debug Level",
			config: config.LoggingConfig{Level: "debug", Format: "json"},
			debug:  true,
			checkFunc: func(t *testing.T, output string) {
				var logEntry map[string]any
				require.NoError(t, json.Unmarshal([]byte(output), &logEntry))
				assert.Equal(t, "DEBUG", logEntry["level"])
				assert.Equal(t, "test message", logEntry["msg"])
				assert.Equal(t, float64(1234), logEntry["edit_id"])
			},
		},
		{
			name:   "Unknown level falls back to info",
			config: config.LoggingConfig{Level: "chatty", Format: "text"},
			debug:  true,
			checkFunc: func(t *testing.T, output string) {
				assert.Empty(t, output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.config, &buf)

			if tt.debug {
				logger.Debug("test message", "edit_id", 1234)
			} else {
				logger.Info("test message", "edit_id", 1234)
			}

			tt.checkFunc(t, buf.String())
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewer.log")
	var buf bytes.Buffer

	logger := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: path}, &buf)
	logger.Info("written to file")

	assert.Empty(t, buf.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
