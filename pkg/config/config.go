// Package config holds the settings shared by the otn commands. Values come
// from defaults, an optional YAML file and OTN_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/erc"
)

// EnvPrefix is the prefix of environment overrides, so OTN_ERC_FAIL_ON
// sets erc.fail_on.
const EnvPrefix = "OTN"

// FileName is the base name of the configuration file.
const FileName = "otn"

// Config is the full configuration record.
type Config struct {
	Library LibraryConfig `mapstructure:"library" yaml:"library"`
	Parts   PartsConfig   `mapstructure:"parts" yaml:"parts"`
	ERC     ERCConfig     `mapstructure:"erc" yaml:"erc"`
	Netlist NetlistConfig `mapstructure:"netlist" yaml:"netlist"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Trace   TraceConfig   `mapstructure:"trace" yaml:"trace"`
}

type LibraryConfig struct {
	Paths    []string      `mapstructure:"paths" yaml:"paths"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

type PartsConfig struct {
	MatchRegex bool `mapstructure:"match_regex" yaml:"match_regex"`
}

type ERCConfig struct {
	Overrides []Override `mapstructure:"overrides" yaml:"overrides"`
	FailOn    string     `mapstructure:"fail_on" yaml:"fail_on"`
}

// Override replaces one cell of the ERC compatibility table.
type Override struct {
	A       string `mapstructure:"a" yaml:"a"`
	B       string `mapstructure:"b" yaml:"b"`
	Level   string `mapstructure:"level" yaml:"level"`
	Message string `mapstructure:"message" yaml:"message"`
}

type NetlistConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TraceConfig controls OpenTelemetry span export.
type TraceConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter     string  `mapstructure:"exporter" yaml:"exporter"`
	FilePath     string  `mapstructure:"file_path" yaml:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Paths:    []string{"."},
			CacheTTL: 10 * time.Minute,
		},
		ERC:     ERCConfig{FailOn: "error"},
		Netlist: NetlistConfig{Format: "json"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Trace:   TraceConfig{Exporter: "stdout", OTLPEndpoint: "localhost:4317", SampleRate: 1},
	}
}

// Validate checks enumerated fields and the ERC overrides.
func (c *Config) Validate() error {
	switch c.ERC.FailOn {
	case "error", "warning", "never":
	default:
		return fmt.Errorf("config: erc.fail_on must be error, warning or never, got %q", c.ERC.FailOn)
	}
	switch c.Netlist.Format {
	case "json", "kicad":
	default:
		return fmt.Errorf("config: unknown netlist.format %q", c.Netlist.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Trace.Exporter {
	case "stdout", "file", "otlp", "none":
	default:
		return fmt.Errorf("config: unknown trace.exporter %q", c.Trace.Exporter)
	}
	if c.Trace.Exporter == "file" && c.Trace.FilePath == "" {
		return fmt.Errorf("config: trace.file_path is required for the file exporter")
	}
	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		return fmt.Errorf("config: trace.sample_rate must be within [0, 1]")
	}
	if c.Library.CacheTTL < 0 {
		return fmt.Errorf("config: library.cache_ttl must not be negative")
	}
	for i, o := range c.ERC.Overrides {
		if _, _, _, err := o.parse(); err != nil {
			return fmt.Errorf("config: erc.overrides[%d]: %w", i, err)
		}
	}
	return nil
}

// SlogLevel converts the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}

func (o Override) parse() (circuit.PinFunc, circuit.PinFunc, erc.Level, error) {
	a, err := circuit.ParsePinFunc(o.A)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err := circuit.ParsePinFunc(o.B)
	if err != nil {
		return 0, 0, 0, err
	}
	level, err := erc.ParseLevel(o.Level)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, level, nil
}

// ERCTable returns the default compatibility table with the overrides
// applied in order.
func (c *Config) ERCTable() (*erc.Table, error) {
	t := erc.DefaultTable()
	for i, o := range c.ERC.Overrides {
		a, b, level, err := o.parse()
		if err != nil {
			return nil, fmt.Errorf("config: erc.overrides[%d]: %w", i, err)
		}
		t.Set(a, b, level, o.Message)
	}
	return t, nil
}

// Load reads the configuration into v. An explicit file must exist; without
// one, otn.yaml is looked up in the working directory and then in
// $HOME/.config/otn, and a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	def := DefaultConfig()
	v.SetDefault("library.paths", def.Library.Paths)
	v.SetDefault("library.cache_ttl", def.Library.CacheTTL)
	v.SetDefault("parts.match_regex", def.Parts.MatchRegex)
	v.SetDefault("erc.fail_on", def.ERC.FailOn)
	v.SetDefault("netlist.format", def.Netlist.Format)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("trace.enabled", def.Trace.Enabled)
	v.SetDefault("trace.exporter", def.Trace.Exporter)
	v.SetDefault("trace.file_path", def.Trace.FilePath)
	v.SetDefault("trace.otlp_endpoint", def.Trace.OTLPEndpoint)
	v.SetDefault("trace.sample_rate", def.Trace.SampleRate)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
