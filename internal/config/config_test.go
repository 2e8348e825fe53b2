package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LAYOUT_MCP_CONFIG_FILE", "LAYOUT_MCP_LOG_LEVEL", "LAYOUT_MCP_LOG_FORMAT", "LAYOUT_MCP_LOG_FILE",
		"LAYOUT_MCP_HOST_COMMAND", "LAYOUT_MCP_MAX_FRAME_BYTES", "LAYOUT_MCP_IDLE_TIMEOUT",
		"LAYOUT_MCP_JOURNAL_PATH", "LAYOUT_MCP_OTLP_ENDPOINT", "LAYOUT_MCP_PREVIEW_SCALE",
		"LAYOUT_MCP_TESSDATA_PREFIX",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10*1024*1024, cfg.MaxFrameBytes)
	assert.Equal(t, 2.0, cfg.PreviewScale)
	assert.True(t, cfg.DryRun())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LAYOUT_MCP_LOG_LEVEL", "debug")
	t.Setenv("LAYOUT_MCP_HOST_COMMAND", "osascript,/opt/layout/host.js")
	t.Setenv("LAYOUT_MCP_IDLE_TIMEOUT", "2s")
	t.Setenv("LAYOUT_MCP_TESSDATA_PREFIX", "/usr/share/tessdata")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"osascript", "/opt/layout/host.js"}, cfg.HostCommand)
	assert.Equal(t, 2*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "/usr/share/tessdata", cfg.TessdataPrefix)
	assert.False(t, cfg.DryRun())
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "layout.yaml", `
log_level: warn
log_format: json
host_command: ["node", "host.js"]
idle_timeout: 500ms
journal_path: /tmp/journal.db
preview_scale: 3
tessdata_prefix: /opt/tessdata
`)
	t.Setenv("LAYOUT_MCP_CONFIG_FILE", path)
	t.Setenv("LAYOUT_MCP_LOG_LEVEL", "error")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "env must win over file")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"node", "host.js"}, cfg.HostCommand)
	assert.Equal(t, 500*time.Millisecond, cfg.IdleTimeout)
	assert.Equal(t, "/tmp/journal.db", cfg.JournalPath)
	assert.Equal(t, 3.0, cfg.PreviewScale)
	assert.Equal(t, "/opt/tessdata", cfg.TessdataPrefix)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "layout.toml", `
log_format = "json"
max_frame_bytes = 4096
otlp_endpoint = "http://localhost:4318"
`)
	t.Setenv("LAYOUT_MCP_CONFIG_FILE", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4096, cfg.MaxFrameBytes)
	assert.Equal(t, "http://localhost:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{"missing file", map[string]string{"LAYOUT_MCP_CONFIG_FILE": "/nonexistent/layout.yaml"}, ""},
		{"bad format", map[string]string{"LAYOUT_MCP_LOG_FORMAT": "xml"}, ""},
		{"bad frame size", map[string]string{"LAYOUT_MCP_MAX_FRAME_BYTES": "-1"}, ""},
		{"bad duration", map[string]string{"LAYOUT_MCP_IDLE_TIMEOUT": "soon"}, ""},
		{"bad scale", map[string]string{"LAYOUT_MCP_PREVIEW_SCALE": "20"}, ""},
		{"bad extension", nil, "layout.ini"},
		{"bad file duration", nil, "layout.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				t.Setenv("LAYOUT_MCP_CONFIG_FILE", writeFile(t, tt.file, "idle_timeout: later\n"))
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
