package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "/obj", cfg.DefaultParent)
	require.Equal(t, "bridge", cfg.Host.Kind)
	require.Equal(t, "hython", cfg.Host.Executable)
	require.False(t, cfg.Tracing.Enabled)
}

func TestValidateRejectsUnknownHostKind(t *testing.T) {
	cfg := Defaults()
	cfg.Host.Kind = "carrier-pigeon"

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "host.kind")
}

func TestValidateRejectsRelativeDefaultParent(t *testing.T) {
	cfg := Defaults()
	cfg.DefaultParent = "obj"

	require.Error(t, Validate(cfg))
}

func TestValidateRejectsBadSampleRate(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.SampleRate = 1.5

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")
}

func TestValidateRequiresFilePathWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "file"
	cfg.Tracing.FilePath = ""

	require.Error(t, Validate(cfg))
}

func TestDefaultConfigTemplateIsValidYAML(t *testing.T) {
	var out map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &out))
	require.Equal(t, "/obj", out["default_parent"])

	hostSection, ok := out["host"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "bridge", hostSection["kind"])
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "default_parent: /obj")
}
