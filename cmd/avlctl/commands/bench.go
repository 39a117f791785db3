package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/avltree/pkg/bench"
	"github.com/Sumatoshi-tech/avltree/pkg/config"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
	"github.com/Sumatoshi-tech/avltree/pkg/report"
)

const (
	benchCmdUse   = "bench"
	benchCmdShort = "Run a random insert/remove workload and report tree statistics"
	benchCmdLong  = `Insert pseudo-random keys, remove a share of them and check every AVL
invariant along the way. Prints a summary table and optionally writes an HTML
chart of the tree height against the AVL bound.

Examples:
  avlctl bench --keys 1000000 --key-space 5000000
  avlctl bench --remove-ratio 0.9 --chart height.html
  avlctl bench --metrics-addr :9464 --hibernate
  avlctl bench --keys 5000 --results-dir ./runs --results-codec gob`

	flagKeys        = "keys"
	flagKeySpace    = "key-space"
	flagSeed        = "seed"
	flagRemoveRatio = "remove-ratio"
	flagVerifyEvery = "verify-every"
	flagHibernate   = "hibernate"
	flagChart       = "chart"
	flagMetricsAddr = "metrics-addr"
	flagNoProgress  = "no-progress"
	flagResultsDir  = "results-dir"
	flagCodec       = "results-codec"

	progressBarWidth = 40
	progressThrottle = 100 * time.Millisecond
	chartFilePerm    = 0o600
	resultsDirPerm   = 0o750
)

// BenchCommand holds the bench flags.
type BenchCommand struct {
	global  *GlobalOptions
	initFn  observabilityInit
	out     io.Writer
	errOut  io.Writer
	overlay config.Config
	// ready backs /readyz; it opens when the insert phase starts.
	ready *observability.ReadyGate

	noProgress bool
}

// NewBenchCommand creates the bench subcommand.
func NewBenchCommand(global *GlobalOptions) *cobra.Command {
	return newBenchCommandWithDeps(global, observability.Init)
}

func newBenchCommandWithDeps(global *GlobalOptions, initFn observabilityInit) *cobra.Command {
	cmd, _ := newBenchCommand(global, initFn)

	return cmd
}

func newBenchCommand(global *GlobalOptions, initFn observabilityInit) (*cobra.Command, *BenchCommand) {
	bc := &BenchCommand{
		global: global,
		initFn: initFn,
		ready:  observability.NewReadyGate("bench workload"),
	}

	cmd := &cobra.Command{
		Use:   benchCmdUse,
		Short: benchCmdShort,
		Long:  benchCmdLong,
		Args:  cobra.NoArgs,
		RunE:  bc.run,
	}

	flags := cmd.Flags()
	flags.IntVar(&bc.overlay.Bench.Keys, flagKeys, 0, "number of insert operations")
	flags.IntVar(&bc.overlay.Bench.KeySpace, flagKeySpace, 0, "keys are drawn from [0, key-space)")
	flags.Int64Var(&bc.overlay.Bench.Seed, flagSeed, 0, "random seed")
	flags.Float64Var(&bc.overlay.Bench.RemoveRatio, flagRemoveRatio, 0, "share of the keys removed after the insert phase")
	flags.IntVar(&bc.overlay.Bench.VerifyEvery, flagVerifyEvery, 0, "verify all invariants every N operations (0 disables)")
	flags.BoolVar(&bc.overlay.Bench.Hibernate, flagHibernate, false, "hibernate the node arena at the end and report its size")
	flags.StringVar(&bc.overlay.Report.ChartPath, flagChart, "", "write the height chart to this HTML file")
	flags.StringVar(&bc.overlay.Telemetry.MetricsAddr, flagMetricsAddr, "", "serve /metrics, /healthz and /readyz on this address")
	flags.BoolVar(&bc.noProgress, flagNoProgress, false, "disable the progress bar")
	flags.StringVar(&bc.overlay.Bench.ResultsDir, flagResultsDir, "", "save the run to this directory for avlctl show")
	flags.StringVar(&bc.overlay.Bench.ResultsCodec, flagCodec, "", "encoding of the saved run: json or gob")

	return cmd, bc
}

// applyFlags copies the flags the user set over the loaded configuration.
func (bc *BenchCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed(flagKeys) {
		cfg.Bench.Keys = bc.overlay.Bench.Keys
	}

	if flags.Changed(flagKeySpace) {
		cfg.Bench.KeySpace = bc.overlay.Bench.KeySpace
	}

	if flags.Changed(flagSeed) {
		cfg.Bench.Seed = bc.overlay.Bench.Seed
	}

	if flags.Changed(flagRemoveRatio) {
		cfg.Bench.RemoveRatio = bc.overlay.Bench.RemoveRatio
	}

	if flags.Changed(flagVerifyEvery) {
		cfg.Bench.VerifyEvery = bc.overlay.Bench.VerifyEvery
	}

	if flags.Changed(flagHibernate) {
		cfg.Bench.Hibernate = bc.overlay.Bench.Hibernate
	}

	if flags.Changed(flagChart) {
		cfg.Report.ChartPath = bc.overlay.Report.ChartPath
	}

	if flags.Changed(flagMetricsAddr) {
		cfg.Telemetry.MetricsAddr = bc.overlay.Telemetry.MetricsAddr
	}

	if flags.Changed(flagResultsDir) {
		cfg.Bench.ResultsDir = bc.overlay.Bench.ResultsDir
	}

	if flags.Changed(flagCodec) {
		cfg.Bench.ResultsCodec = bc.overlay.Bench.ResultsCodec
	}

	return cfg.Validate()
}

func (bc *BenchCommand) run(cmd *cobra.Command, _ []string) error {
	bc.out = cmd.OutOrStdout()
	bc.errOut = cmd.ErrOrStderr()

	cfg, err := config.LoadConfig(bc.global.ConfigPath)
	if err != nil {
		return err
	}

	err = bc.applyFlags(cmd, cfg)
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	var (
		readers []sdkmetric.Reader
		diag    *observability.DiagnosticsServer
	)

	if cfg.Telemetry.MetricsAddr != "" {
		handler, reader, promErr := observability.PrometheusHandler()
		if promErr != nil {
			return promErr
		}

		readers = append(readers, reader)

		diag, err = observability.NewDiagnosticsServer(cfg.Telemetry.MetricsAddr, handler, bc.ready.Check)
		if err != nil {
			return err
		}

		defer func() {
			closeErr := diag.Close()
			if closeErr != nil {
				slog.Warn("diagnostics server close failed", "error", closeErr)
			}
		}()
	}

	obsCfg, err := observabilityConfig(cfg, bc.global, observability.ModeBench)
	if err != nil {
		return err
	}

	obsCfg.MetricReaders = readers

	providers, err := bc.initFn(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer shutdown(providers)

	if diag != nil {
		providers.Logger.Info("serving diagnostics", "addr", diag.Addr())
	}

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		return err
	}

	opts := bench.Options{
		Config:  cfg.Bench,
		Metrics: metrics,
		Logger:  providers.Logger,
		OnPhase: func(phase string) {
			if phase == bench.PhaseInsert {
				bc.ready.Open()
			}
		},
	}

	if !bc.noProgress && !bc.global.Quiet {
		bar := bc.progressBar(cfg.Bench)
		opts.Progress = func(done int) { _ = bar.Add(done) }

		defer func() { _ = bar.Finish() }()
	}

	result, err := bench.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(bc.out, report.Table(result))

	if cfg.Bench.ResultsDir != "" {
		err = saveResults(cfg.Bench, result)
		if err != nil {
			return err
		}

		providers.Logger.Info("run saved", "dir", cfg.Bench.ResultsDir, "codec", cfg.Bench.ResultsCodec)
	}

	if cfg.Report.ChartPath != "" {
		return writeChart(cfg.Report.ChartPath, cfg.Report.ChartTitle, result)
	}

	return nil
}

func saveResults(cfg config.BenchConfig, result *bench.Result) error {
	persister, err := bench.ResultsPersister(cfg.ResultsCodec)
	if err != nil {
		return err
	}

	err = os.MkdirAll(cfg.ResultsDir, resultsDirPerm)
	if err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	return persister.Save(cfg.ResultsDir, result)
}

func (bc *BenchCommand) progressBar(cfg config.BenchConfig) *progressbar.ProgressBar {
	// Upper bound: duplicate keys shorten the remove phase.
	total := cfg.Keys + int(float64(cfg.Keys)*cfg.RemoveRatio)

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(bc.errOut),
		progressbar.OptionSetDescription("operations"),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func writeChart(path, title string, result *bench.Result) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, chartFilePerm)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	err = report.WriteHeightChart(file, result.Samples, title)
	if err != nil {
		_ = file.Close()

		return err
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close chart file: %w", err)
	}

	return nil
}
