package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/erc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "error", cfg.ERC.FailOn)
	assert.Equal(t, "json", cfg.Netlist.Format)
	assert.Equal(t, 10*time.Minute, cfg.Library.CacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fail_on", func(c *Config) { c.ERC.FailOn = "sometimes" }},
		{"netlist format", func(c *Config) { c.Netlist.Format = "spice" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"cache ttl", func(c *Config) { c.Library.CacheTTL = -time.Second }},
		{"trace exporter", func(c *Config) { c.Trace.Exporter = "zipkin" }},
		{"trace file without path", func(c *Config) { c.Trace.Exporter = "file" }},
		{"trace sample rate", func(c *Config) { c.Trace.SampleRate = 1.5 }},
		{"override func", func(c *Config) {
			c.ERC.Overrides = []Override{{A: "sideways", B: "input", Level: "error"}}
		}},
		{"override level", func(c *Config) {
			c.ERC.Overrides = []Override{{A: "output", B: "output", Level: "fatal"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
library:
  paths: [lib, /usr/share/otn]
  cache_ttl: 30s
parts:
  match_regex: true
erc:
  fail_on: warning
  overrides:
    - a: output
      b: output
      level: warning
      message: wired-or bus
netlist:
  format: kicad
log:
  level: debug
trace:
  enabled: true
  exporter: file
  file_path: traces.jsonl
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"lib", "/usr/share/otn"}, cfg.Library.Paths)
	assert.Equal(t, 30*time.Second, cfg.Library.CacheTTL)
	assert.True(t, cfg.Parts.MatchRegex)
	assert.Equal(t, "warning", cfg.ERC.FailOn)
	assert.Equal(t, "kicad", cfg.Netlist.Format)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep defaults")
	require.Len(t, cfg.ERC.Overrides, 1)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "traces.jsonl", cfg.Trace.FilePath)
	assert.Equal(t, 1.0, cfg.Trace.SampleRate)

	table, err := cfg.ERCTable()
	require.NoError(t, err)
	level, msg := table.Lookup(circuit.Output, circuit.Output)
	assert.Equal(t, erc.Warning, level)
	assert.Equal(t, "wired-or bus", msg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OTN_ERC_FAIL_ON", "never")
	path := writeConfig(t, "erc:\n  fail_on: warning\n")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "never", cfg.ERC.FailOn)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit file must exist")

	_, err = Load(viper.New(), writeConfig(t, "netlist:\n  format: spice\n"))
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	level, err := LogConfig{Level: "warn"}.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}
