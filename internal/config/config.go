// Package config provides configuration types and defaults for stagehand.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/stagehand/internal/bridge"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/tracing"
)

// HostConfig selects and configures the backing host.
type HostConfig struct {
	// Kind selects the host implementation.
	// Options: "bridge" (default) or "memory"
	Kind string `mapstructure:"kind"`

	// Executable is the interpreter binary for the bridge host.
	// Default: "hython"
	Executable string `mapstructure:"executable"`

	// Module is the remote Python module the bridge calls into.
	// Default: "stagehand_host"
	Module string `mapstructure:"module"`
}

// Config holds all configuration options for stagehand.
type Config struct {
	// DefaultParent is the container path new top-level nodes are
	// created under when a descriptor names no parent.
	DefaultParent string `mapstructure:"default_parent"`

	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`

	// LogFile redirects log output; empty means stderr.
	LogFile string `mapstructure:"log_file"`

	Host    HostConfig     `mapstructure:"host"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DefaultParent: "/obj",
		Debug:         false,
		Host: HostConfig{
			Kind:       "bridge",
			Executable: bridge.DefaultExecutable,
			Module:     bridge.DefaultModule,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values fall back
// to defaults and are valid.
func Validate(cfg Config) error {
	switch cfg.Host.Kind {
	case "", "bridge", "memory":
	default:
		return fmt.Errorf("host.kind must be \"bridge\" or \"memory\", got %q", cfg.Host.Kind)
	}
	if cfg.DefaultParent != "" && cfg.DefaultParent[0] != '/' {
		return fmt.Errorf("default_parent must be an absolute path, got %q", cfg.DefaultParent)
	}
	if err := cfg.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultTracesFilePath returns the default path for trace file export,
// or empty string if the home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "stagehand", "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Stagehand Configuration

# Container path new top-level nodes are created under when a
# descriptor names no parent
default_parent: /obj

# Enable debug-level logging
debug: false

# Redirect log output to a file (default: stderr)
# log_file: /tmp/stagehand.log

# Host backend settings
host:
  # Host implementation: "bridge" (default) or "memory"
  # bridge drives a live authoring session through its interpreter;
  # memory is a self-contained scene tree for scripting and tests
  kind: bridge

  # Interpreter binary for the bridge host
  executable: hython

  # Remote module the bridge calls into
  module: stagehand_host

# Span export for graph materialization
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp
#   file_path: ~/.config/stagehand/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
