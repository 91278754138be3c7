package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.True(t, cfg.AutoRefresh)
	require.True(t, cfg.Cache.IsEnabled(), "cache should default to enabled")
	require.Equal(t, 5, cfg.Cache.TTLMinutes)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
	require.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
}

func TestCacheConfig_IsEnabled(t *testing.T) {
	require.True(t, CacheConfig{}.IsEnabled(), "nil should default to enabled")

	enabled := true
	require.True(t, CacheConfig{Enabled: &enabled}.IsEnabled())

	disabled := false
	require.False(t, CacheConfig{Enabled: &disabled}.IsEnabled())
}

func TestValidateCache_NegativeTTL(t *testing.T) {
	err := ValidateCache(CacheConfig{TTLMinutes: -1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ttl_minutes")
}

func TestValidateTracing_Defaults(t *testing.T) {
	err := ValidateTracing(TracingConfig{SampleRate: 1.0})
	require.NoError(t, err, "zero-value config with default sample rate should be valid")
}

func TestValidateTracing_SampleRateOutOfRange(t *testing.T) {
	err := ValidateTracing(TracingConfig{SampleRate: 1.5})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")

	err = ValidateTracing(TracingConfig{SampleRate: -0.1})
	require.Error(t, err)
}

func TestValidateTracing_InvalidExporter(t *testing.T) {
	err := ValidateTracing(TracingConfig{Exporter: "jaeger", SampleRate: 1.0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exporter")
}

func TestValidateTracing_FileExporterRequiresPath(t *testing.T) {
	cfg := TracingConfig{Enabled: true, Exporter: "file", SampleRate: 1.0}
	err := ValidateTracing(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path")

	cfg.FilePath = "/tmp/traces.jsonl"
	require.NoError(t, ValidateTracing(cfg))
}

func TestValidateTracing_OTLPExporterRequiresEndpoint(t *testing.T) {
	cfg := TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1.0}
	err := ValidateTracing(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "otlp_endpoint")

	cfg.OTLPEndpoint = "collector:4317"
	require.NoError(t, ValidateTracing(cfg))
}

func TestValidateTracing_DisabledSkipsPathChecks(t *testing.T) {
	// Paths are only required when tracing is actually enabled.
	err := ValidateTracing(TracingConfig{Enabled: false, Exporter: "file", SampleRate: 1.0})
	require.NoError(t, err)
}

func TestWriteDefaultConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "auto_refresh: true")
	require.Contains(t, string(data), "ttl_minutes: 5")
}

func TestDefaultConfigTemplate_ParsesIntoConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600))

	v := viper.New()
	v.SetConfigFile(configPath)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.True(t, cfg.AutoRefresh)
	require.Equal(t, 5, cfg.Cache.TTLMinutes)
	require.NoError(t, Validate(cfg))
}
