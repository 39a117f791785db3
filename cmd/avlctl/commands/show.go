package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/avltree/pkg/bench"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
	"github.com/Sumatoshi-tech/avltree/pkg/persist"
	"github.com/Sumatoshi-tech/avltree/pkg/report"
)

const (
	showCmdUse   = "show <dir>"
	showCmdShort = "Render the report of a bench run saved with --results-dir"
	showCmdLong  = `Load a bench run saved by "avlctl bench --results-dir" and print its
summary table again, optionally writing the height chart.

Examples:
  avlctl show ./runs
  avlctl show --results-codec gob --chart height.html ./runs`

	flagChartTitle    = "chart-title"
	defaultChartTitle = "AVL tree height"
)

// ShowCommand holds the show flags.
type ShowCommand struct {
	global     *GlobalOptions
	initFn     observabilityInit
	codec      string
	chartPath  string
	chartTitle string
}

// NewShowCommand creates the show subcommand.
func NewShowCommand(global *GlobalOptions) *cobra.Command {
	return newShowCommandWithDeps(global, observability.Init)
}

func newShowCommandWithDeps(global *GlobalOptions, initFn observabilityInit) *cobra.Command {
	sc := &ShowCommand{global: global, initFn: initFn}

	cmd := &cobra.Command{
		Use:   showCmdUse,
		Short: showCmdShort,
		Long:  showCmdLong,
		Args:  cobra.ExactArgs(1),
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.codec, flagCodec, persist.CodecJSON, "encoding of the saved run: json or gob")
	cmd.Flags().StringVar(&sc.chartPath, flagChart, "", "write the height chart to this HTML file")
	cmd.Flags().StringVar(&sc.chartTitle, flagChartTitle, defaultChartTitle, "title of the height chart")

	return cmd
}

func (sc *ShowCommand) run(cmd *cobra.Command, args []string) error {
	providers, err := startSession(sc.global, sc.initFn)
	if err != nil {
		return err
	}

	defer shutdown(providers)

	persister, err := bench.ResultsPersister(sc.codec)
	if err != nil {
		return err
	}

	result, err := persister.Load(args[0])
	if err != nil {
		return fmt.Errorf("load run from %s: %w", args[0], err)
	}

	providers.Logger.Debug("run loaded",
		"path", persister.Path(args[0]), "seed", result.Config.Seed, "keys", result.Config.Keys)

	fmt.Fprintln(cmd.OutOrStdout(), report.Table(result))

	if sc.chartPath != "" {
		return writeChart(sc.chartPath, sc.chartTitle, result)
	}

	return nil
}
