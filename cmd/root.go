package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/stagehand/internal/bridge"
	"github.com/zjrosen/stagehand/internal/config"
	"github.com/zjrosen/stagehand/internal/graph"
	"github.com/zjrosen/stagehand/internal/host"
	"github.com/zjrosen/stagehand/internal/host/memhost"
	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "stagehand",
	Short:   "Deferred node graph construction for 3D authoring hosts",
	Long: `Stagehand builds node graphs as lightweight descriptors and chains,
then materializes them into a live authoring session on demand.
Descriptors can be composed, copied, and rewired freely before a single
host node exists; creation is dependency-first and idempotent.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/stagehand/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().String("host", "",
		"host backend: bridge or memory")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("host.kind", rootCmd.PersistentFlags().Lookup("host"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("default_parent", defaults.DefaultParent)
	viper.SetDefault("host.kind", defaults.Host.Kind)
	viper.SetDefault("host.executable", defaults.Host.Executable)
	viper.SetDefault("host.module", defaults.Host.Module)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .stagehand/config.yaml (current directory)
		// 2. ~/.config/stagehand/config.yaml (user config)
		if _, err := os.Stat(".stagehand/config.yaml"); err == nil {
			viper.SetConfigFile(".stagehand/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "stagehand"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("STAGEHAND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)

	_, _ = log.Init(cfg.LogFile)
	if cfg.Debug {
		log.SetMinLevel(log.LevelDebug)
	} else {
		log.SetMinLevel(log.LevelInfo)
	}
}

// newHost builds the configured host backend.
func newHost() (host.Host, error) {
	switch cfg.Host.Kind {
	case "memory":
		return memhost.New(), nil
	case "", "bridge":
		return bridge.New(bridge.WithCommand(cfg.Host.Executable, cfg.Host.Module)), nil
	default:
		return nil, fmt.Errorf("unknown host kind %q", cfg.Host.Kind)
	}
}

// newEngine builds an engine over h with tracing wired from config. The
// returned provider must be shut down when the command finishes.
func newEngine(h host.Host) (*graph.Engine, *tracing.Provider, error) {
	tcfg := cfg.Tracing
	if tcfg.Enabled && tcfg.Exporter == "file" && tcfg.FilePath == "" {
		tcfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}
	engine := graph.NewEngine(h, graph.WithTracer(provider.Tracer()))
	return engine, provider, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
