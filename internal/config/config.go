// Package config loads server settings from the environment and an optional
// YAML or TOML file.
//
// Precedence, lowest first: built-in defaults, the config file named by
// LAYOUT_MCP_CONFIG_FILE, then LAYOUT_MCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "layout_mcp"

// Config is the merged server configuration.
type Config struct {
	ConfigFile string `envconfig:"CONFIG_FILE"`

	LogLevel  string `envconfig:"LOG_LEVEL"`
	LogFormat string `envconfig:"LOG_FORMAT"`
	LogFile   string `envconfig:"LOG_FILE"`

	// HostCommand is the argv of the host helper. Empty selects the dry-run
	// bridge, which records commands without a host application.
	HostCommand []string `envconfig:"HOST_COMMAND"`

	MaxFrameBytes int           `envconfig:"MAX_FRAME_BYTES"`
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT"`

	JournalPath  string `envconfig:"JOURNAL_PATH"`
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`

	// PreviewScale is the default pixels per point of export_page_preview.
	PreviewScale float64 `envconfig:"PREVIEW_SCALE"`

	// TessdataPrefix is the directory of Tesseract language data.
	TessdataPrefix string `envconfig:"TESSDATA_PREFIX"`
}

// fileConfig is the on-disk shape shared by YAML and TOML files.
type fileConfig struct {
	LogLevel      string   `yaml:"log_level" toml:"log_level"`
	LogFormat     string   `yaml:"log_format" toml:"log_format"`
	LogFile       string   `yaml:"log_file" toml:"log_file"`
	HostCommand   []string `yaml:"host_command" toml:"host_command"`
	MaxFrameBytes int      `yaml:"max_frame_bytes" toml:"max_frame_bytes"`
	IdleTimeout   string   `yaml:"idle_timeout" toml:"idle_timeout"`
	JournalPath   string   `yaml:"journal_path" toml:"journal_path"`
	OTLPEndpoint  string   `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	PreviewScale  float64  `yaml:"preview_scale" toml:"preview_scale"`

	TessdataPrefix string `yaml:"tessdata_prefix" toml:"tessdata_prefix"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "text",
		MaxFrameBytes: 10 * 1024 * 1024,
		PreviewScale:  2.0,
	}
}

// Load merges defaults, the optional config file and the environment.
func Load() (*Config, error) {
	var initial Config
	if err := envconfig.Process(EnvPrefix, &initial); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg := Default()
	if initial.ConfigFile != "" {
		if err := cfg.applyFile(initial.ConfigFile); err != nil {
			return nil, err
		}
	}

	// Variables that are unset leave file values and defaults untouched.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse TOML config %q: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("failed to parse YAML config %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}

	c.ConfigFile = path
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if len(fc.HostCommand) > 0 {
		c.HostCommand = fc.HostCommand
	}
	if fc.MaxFrameBytes != 0 {
		c.MaxFrameBytes = fc.MaxFrameBytes
	}
	if fc.IdleTimeout != "" {
		d, err := time.ParseDuration(fc.IdleTimeout)
		if err != nil {
			return fmt.Errorf("invalid idle_timeout %q: %w", fc.IdleTimeout, err)
		}
		c.IdleTimeout = d
	}
	if fc.JournalPath != "" {
		c.JournalPath = fc.JournalPath
	}
	if fc.OTLPEndpoint != "" {
		c.OTLPEndpoint = fc.OTLPEndpoint
	}
	if fc.PreviewScale != 0 {
		c.PreviewScale = fc.PreviewScale
	}
	if fc.TessdataPrefix != "" {
		c.TessdataPrefix = fc.TessdataPrefix
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("max frame bytes must be positive, got %d", c.MaxFrameBytes)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative, got %s", c.IdleTimeout)
	}
	if c.PreviewScale <= 0 || c.PreviewScale > 8 {
		return fmt.Errorf("preview scale must be in (0, 8], got %g", c.PreviewScale)
	}
	return nil
}

// DryRun reports whether no host helper is configured.
func (c *Config) DryRun() bool {
	return len(c.HostCommand) == 0
}
