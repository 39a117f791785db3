// Package main provides the entry point for the avlctl CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/avltree/cmd/avlctl/commands"
	"github.com/Sumatoshi-tech/avltree/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	global := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "avlctl",
		Short: "avlctl - exercise, replay and inspect AVL trees",
		Long: `avlctl drives the avltree library from the command line.

Commands:
  bench     Random insert/remove workload with invariant checks and a report
  replay    Run operation scripts and check their expectations
  print     Build a tree from keys and print it
  show      Render the report of a saved bench run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&global.ConfigPath, "config", "", "config file (default: .avltree.yaml in . or $HOME)")
	flags.BoolVarP(&global.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&global.Quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&global.LogJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(commands.NewBenchCommand(global))
	rootCmd.AddCommand(commands.NewReplayCommand(global))
	rootCmd.AddCommand(commands.NewPrintCommand(global))
	rootCmd.AddCommand(commands.NewShowCommand(global))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "avlctl %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
