package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Sumatoshi-tech/avltree/pkg/bench"
	"github.com/Sumatoshi-tech/avltree/pkg/config"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
	"github.com/Sumatoshi-tech/avltree/pkg/persist"
)

func noopObservabilityInit(_ observability.Config) (observability.Providers, error) {
	return observability.Providers{
		Meter:    noop.NewMeterProvider().Meter("test"),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Shutdown: func(_ context.Context) error { return nil },
	}, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func testGlobal(t *testing.T) *GlobalOptions {
	t.Helper()

	return &GlobalOptions{ConfigPath: writeFile(t, "avltree.yaml", "logging:\n  level: info\n")}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return buf.String(), err
}

func TestPrintCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, newPrintCommandWithDeps(testGlobal(t), noopObservabilityInit), "10", "20", "30", "5")
	require.NoError(t, err)

	assert.Equal(t,
		"       /------+ 30\n"+
			"|------+ 20\n"+
			"       \\------+ 10\n"+
			"              \\------+ 5\n",
		out)
}

func TestPrintCommandRemoveAndBalance(t *testing.T) {
	t.Parallel()

	out, err := execute(t, newPrintCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--remove", "2", "--balance", "1", "2", "3")
	require.NoError(t, err)

	// Removing the root promotes its predecessor 1, which now leans right.
	assert.Equal(t, "       /------+ 3 → 2 +0\n|------+ 1 → 0 +1\n", out)
}

func TestPrintCommandInvalidKey(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newPrintCommandWithDeps(testGlobal(t), noopObservabilityInit), "1", "two")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestReplayCommandPasses(t *testing.T) {
	t.Parallel()

	out, err := execute(t, newReplayCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--print-tree",
		filepath.Join("..", "..", "..", "pkg", "script", "testdata", "rotations.yaml"),
		filepath.Join("..", "..", "..", "pkg", "script", "testdata", "ascending.json"))
	require.NoError(t, err)

	assert.Contains(t, out, "PASS rotations (10 steps)")
	assert.Contains(t, out, "|------+ 40 → d -1")
}

func TestReplayCommandReportsFailures(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "broken.yaml", `name: broken
ops:
  - {op: insert, key: 1}
  - {op: insert, key: 2}
  - {op: insert, key: 3}
  - {op: find, key: 9}
expect:
  inorder: [1, 2, 4]
  root: 2
`)

	out, err := execute(t, newReplayCommandWithDeps(testGlobal(t), noopObservabilityInit), path)
	require.ErrorIs(t, err, ErrReplayFailed)

	assert.Contains(t, out, "FAIL broken (4 steps)")
	assert.Contains(t, out, "step 4 (find)")
	assert.Contains(t, out, "- 4")
	assert.Contains(t, out, "+ 3")
	assert.NotContains(t, out, "root")
}

func TestReplayCommandMissingScript(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newReplayCommandWithDeps(testGlobal(t), noopObservabilityInit),
		filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReplayFailed)
}

func TestBenchCommand(t *testing.T) {
	t.Parallel()

	chart := filepath.Join(t.TempDir(), "height.html")

	out, err := execute(t, newBenchCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--keys", "300", "--key-space", "1000", "--verify-every", "50",
		"--hibernate", "--no-progress", "--chart", chart)
	require.NoError(t, err)

	assert.Contains(t, out, "AVL tree bench")
	assert.Contains(t, out, "Hibernated links")

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "AVL tree height")
}

func TestBenchCommandSavesRun(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "runs")

	benchOut, err := execute(t, newBenchCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--keys", "200", "--key-space", "1000", "--seed", "9", "--no-progress",
		"--results-dir", dir, "--results-codec", "gob")
	require.NoError(t, err)

	persister, err := bench.ResultsPersister(persist.CodecGob)
	require.NoError(t, err)

	result, err := persister.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Config.Seed)
	assert.Equal(t, 200, result.Config.Keys)
	assert.NotEmpty(t, result.Samples)

	chart := filepath.Join(t.TempDir(), "height.html")

	showOut, err := execute(t, newShowCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--results-codec", "gob", "--chart", chart, "--chart-title", "Saved run", dir)
	require.NoError(t, err)

	// The saved run renders the same table as the live one.
	assert.Equal(t, benchOut, showOut)

	html, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Saved run")
}

func TestShowCommandMissingRun(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newShowCommandWithDeps(testGlobal(t), noopObservabilityInit), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBenchCommandRejectsInvalidFlags(t *testing.T) {
	t.Parallel()

	_, err := execute(t, newBenchCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--keys", "300", "--key-space", "1000", "--remove-ratio", "1.5", "--no-progress")
	require.ErrorIs(t, err, config.ErrInvalidRemoveRatio)

	_, err = execute(t, newBenchCommandWithDeps(testGlobal(t), noopObservabilityInit),
		"--keys", "300", "--key-space", "1000", "--results-codec", "xml", "--no-progress")
	require.ErrorIs(t, err, config.ErrInvalidCodec)
}

func TestBenchCommandServesMetrics(t *testing.T) {
	t.Parallel()

	cmd, bc := newBenchCommand(testGlobal(t), noopObservabilityInit)

	// /readyz answers 503 until the workload starts.
	require.ErrorIs(t, bc.ready.Check(context.Background()), observability.ErrNotReady)

	out, err := execute(t, cmd,
		"--keys", "100", "--key-space", "1000", "--no-progress", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "AVL tree bench")

	require.NoError(t, bc.ready.Check(context.Background()))
}

func TestObservabilityConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeFile(t, "avltree.yaml",
		"logging:\n  level: warn\n  format: json\ntelemetry:\n  otlp_headers: a=b\n  shutdown_timeout: 3s\n"))
	require.NoError(t, err)

	obsCfg, err := observabilityConfig(cfg, &GlobalOptions{}, observability.ModeCLI)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, obsCfg.LogLevel)
	assert.True(t, obsCfg.LogJSON)
	assert.Equal(t, map[string]string{"a": "b"}, obsCfg.OTLPHeaders)
	assert.Equal(t, 3, obsCfg.ShutdownTimeoutSec)
	assert.Equal(t, observability.ModeCLI, obsCfg.Mode)

	obsCfg, err = observabilityConfig(cfg, &GlobalOptions{Verbose: true}, observability.ModeBench)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, obsCfg.LogLevel)
	assert.Equal(t, observability.ModeBench, obsCfg.Mode)

	obsCfg, err = observabilityConfig(cfg, &GlobalOptions{Quiet: true}, observability.ModeCLI)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, obsCfg.LogLevel)
}
