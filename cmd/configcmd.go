package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stagehand/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration as YAML",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// effectiveConfig mirrors config.Config with yaml tags for display.
type effectiveConfig struct {
	DefaultParent string `yaml:"default_parent"`
	Debug         bool   `yaml:"debug"`
	LogFile       string `yaml:"log_file,omitempty"`
	Host          struct {
		Kind       string `yaml:"kind"`
		Executable string `yaml:"executable"`
		Module     string `yaml:"module"`
	} `yaml:"host"`
	Tracing struct {
		Enabled      bool    `yaml:"enabled"`
		Exporter     string  `yaml:"exporter"`
		FilePath     string  `yaml:"file_path,omitempty"`
		OTLPEndpoint string  `yaml:"otlp_endpoint"`
		SampleRate   float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var eff effectiveConfig
	eff.DefaultParent = cfg.DefaultParent
	eff.Debug = cfg.Debug
	eff.LogFile = cfg.LogFile
	eff.Host.Kind = cfg.Host.Kind
	eff.Host.Executable = cfg.Host.Executable
	eff.Host.Module = cfg.Host.Module
	eff.Tracing.Enabled = cfg.Tracing.Enabled
	eff.Tracing.Exporter = cfg.Tracing.Exporter
	eff.Tracing.FilePath = cfg.Tracing.FilePath
	eff.Tracing.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	eff.Tracing.SampleRate = cfg.Tracing.SampleRate

	out, err := yaml.Marshal(eff)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = ".stagehand/config.yaml"
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("✓"), "wrote", path)
	return nil
}
