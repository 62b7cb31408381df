package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)

	require.False(t, provider.Enabled())
	require.NotNil(t, provider.Tracer())
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestFileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "carrier-pigeon"})
	require.Error(t, err)
}

func TestFileExporterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "out.jsonl")

	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	require.NoError(t, exp.ExportSpans(context.Background(), nil))
	require.NoError(t, exp.Shutdown(context.Background()))

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFileExporterShutdownTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.SampleRate = -1
	require.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Exporter = "udp"
	require.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Enabled = true
	bad.Exporter = "otlp"
	bad.OTLPEndpoint = ""
	require.Error(t, bad.Validate())
}

func TestProviderWithFileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	provider, err := NewProvider(Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   path,
		SampleRate: 1.0,
	})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "test.span")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "test.span")
}
