package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
rule = " length "
max_buffered = 0
length_width = 2
length_order = "little"
metrics_addr = "127.0.0.1:9100"
`))
	require.NoError(t, err)
	require.Equal(t, "length", cfg.Rule)
	require.Equal(t, 0, cfg.MaxBuffered, "explicit zero overrides the default")
	require.Equal(t, 2, cfg.LengthWidth)
	require.Equal(t, "little", cfg.LengthOrder)
	require.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	require.Equal(t, "\r\n", cfg.Delimiter, "absent keys keep their default")
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = loadConfig(writeConfig(t, `rule = `))
	require.Error(t, err)

	_, err = loadConfig(writeConfig(t, `unknown_key = 1`))
	require.ErrorContains(t, err, "unknown_key")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config)
	}{
		{"rule", func(c *config) { c.Rule = "json" }},
		{"max buffered", func(c *config) { c.MaxBuffered = -1 }},
		{"read buffer", func(c *config) { c.ReadBuffer = 0 }},
		{"empty delimiter", func(c *config) { c.Rule = "delimiter"; c.Delimiter = "" }},
		{"fixed size", func(c *config) { c.Rule = "fixed"; c.FixedSize = 0 }},
		{"length order", func(c *config) { c.LengthOrder = "middle" }},
		{"syslog framing", func(c *config) { c.SyslogFraming = "udp" }},
		{"log level", func(c *config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
