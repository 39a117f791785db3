package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/avltree/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "avltree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	// Test loading with no config file (should use defaults).
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, config.FormatText, cfg.Logging.Format)
	assert.Equal(t, 100000, cfg.Bench.Keys)
	assert.Equal(t, 1000000, cfg.Bench.KeySpace)
	assert.Equal(t, int64(1), cfg.Bench.Seed)
	assert.InDelta(t, 0.5, cfg.Bench.RemoveRatio, 1e-9)
	assert.Equal(t, 10000, cfg.Bench.VerifyEvery)
	assert.False(t, cfg.Bench.Hibernate)
	assert.Empty(t, cfg.Bench.ResultsDir)
	assert.Equal(t, "json", cfg.Bench.ResultsCodec)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.ShutdownTimeout)
	assert.Empty(t, cfg.Report.ChartPath)
	assert.Equal(t, "AVL tree height", cfg.Report.ChartTitle)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging:
  level: debug
  format: json

bench:
  keys: 500
  key_space: 1000
  seed: 7
  remove_ratio: 0.25
  hibernate: true

telemetry:
  otlp_endpoint: "localhost:4317"
  otlp_insecure: true
  shutdown_timeout: "2s"

report:
  chart_path: "/tmp/height.html"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.FormatJSON, cfg.Logging.Format)
	assert.Equal(t, 500, cfg.Bench.Keys)
	assert.Equal(t, 1000, cfg.Bench.KeySpace)
	assert.Equal(t, int64(7), cfg.Bench.Seed)
	assert.InDelta(t, 0.25, cfg.Bench.RemoveRatio, 1e-9)
	assert.True(t, cfg.Bench.Hibernate)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.ShutdownTimeout)
	assert.Equal(t, "/tmp/height.html", cfg.Report.ChartPath)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("AVLTREE_BENCH_KEYS", "42")
	t.Setenv("AVLTREE_LOGGING_FORMAT", "json")
	t.Setenv("AVLTREE_TELEMETRY_METRICS_ADDR", ":9464")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Bench.Keys)
	assert.Equal(t, config.FormatJSON, cfg.Logging.Format)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"log_level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"log_format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"keys", "bench:\n  keys: 0\n", config.ErrInvalidKeys},
		{"key_space", "bench:\n  keys: 10\n  key_space: 5\n", config.ErrInvalidKeySpace},
		{"remove_ratio", "bench:\n  remove_ratio: 1.5\n", config.ErrInvalidRemoveRatio},
		{"verify_every", "bench:\n  verify_every: -1\n", config.ErrInvalidVerifyEvery},
		{"sample_ratio", "telemetry:\n  sample_ratio: -0.1\n", config.ErrInvalidSampleRatio},
		{"results_codec", "bench:\n  results_codec: xml\n", config.ErrInvalidCodec},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tc.content))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateAfterOverride(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "bench:\n  keys: 10\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Bench.RemoveRatio = 2

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidRemoveRatio)
}

func TestBenchConfigValidate(t *testing.T) {
	t.Parallel()

	bench := config.BenchConfig{Keys: 10, KeySpace: 10, RemoveRatio: 1}
	require.NoError(t, bench.Validate())

	bench.KeySpace = 0
	require.ErrorIs(t, bench.Validate(), config.ErrInvalidKeySpace)

	bench.KeySpace = 10
	bench.ResultsCodec = "yaml"
	require.ErrorIs(t, bench.Validate(), config.ErrInvalidCodec)
}
