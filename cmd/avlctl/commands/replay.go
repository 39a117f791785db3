package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/avltree/pkg/observability"
	"github.com/Sumatoshi-tech/avltree/pkg/script"
)

const (
	replayCmdUse   = "replay <script.yaml|script.json>..."
	replayCmdShort = "Replay operation scripts against a fresh tree and check expectations"
	replayCmdLong  = `Replay one or more operation scripts. Each script starts from an empty
tree, applies its insert, remove, find and verify operations in order and then
checks the expected in-order listing, root, height, size and path balance.

Examples:
  avlctl replay testdata/rotations.yaml
  avlctl replay --print-tree scenarios/*.json`

	flagPrintTree = "print-tree"
	flagColor     = "color"
	flagNoColor   = "no-color"
)

// ErrReplayFailed is returned when at least one script did not pass.
var ErrReplayFailed = errors.New("replay failed")

// ReplayCommand holds the replay flags.
type ReplayCommand struct {
	global    *GlobalOptions
	initFn    observabilityInit
	printTree bool
	colorize  bool
	noColor   bool
}

// NewReplayCommand creates the replay subcommand.
func NewReplayCommand(global *GlobalOptions) *cobra.Command {
	return newReplayCommandWithDeps(global, observability.Init)
}

func newReplayCommandWithDeps(global *GlobalOptions, initFn observabilityInit) *cobra.Command {
	rc := &ReplayCommand{global: global, initFn: initFn}

	cmd := &cobra.Command{
		Use:   replayCmdUse,
		Short: replayCmdShort,
		Long:  replayCmdLong,
		Args:  cobra.MinimumNArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().BoolVar(&rc.printTree, flagPrintTree, false, "print the final tree of every script")
	cmd.Flags().BoolVar(&rc.colorize, flagColor, false, "force colored output")
	cmd.Flags().BoolVar(&rc.noColor, flagNoColor, false, "disable colored output")

	return cmd
}

func (rc *ReplayCommand) run(cmd *cobra.Command, args []string) error {
	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	} else if rc.colorize {
		color.NoColor = false //nolint:reassign // intentional override of library global
	}

	providers, err := startSession(rc.global, rc.initFn)
	if err != nil {
		return err
	}

	defer shutdown(providers)

	out := cmd.OutOrStdout()
	failed := 0

	for _, path := range args {
		doc, loadErr := script.Load(path)
		if loadErr != nil {
			return loadErr
		}

		result := script.Run(doc)

		providers.Logger.DebugContext(cmd.Context(), "script replayed",
			"path", path, "steps", result.Steps, "failures", len(result.Failures))

		rc.render(out, path, result)

		if !result.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d scripts", ErrReplayFailed, failed, len(args))
	}

	return nil
}

func (rc *ReplayCommand) render(out io.Writer, path string, result *script.Result) {
	name := result.Name
	if name == "" {
		name = path
	}

	if result.Passed() {
		color.New(color.FgGreen).Fprintf(out, "PASS %s (%d steps)\n", name, result.Steps)
	} else {
		color.New(color.FgRed).Fprintf(out, "FAIL %s (%d steps)\n", name, result.Steps)

		for _, failure := range result.Failures {
			color.New(color.FgYellow).Fprintf(out, "  - %s\n", failure)

			if len(failure.Diffs) > 0 {
				renderDiff(out, failure.Diffs)
			}
		}
	}

	if rc.printTree && !rc.global.Quiet {
		result.Tree.Print(out, true)
	}
}

// renderDiff prints a line diff as "- expected" / "+ actual" lines.
func renderDiff(out io.Writer, diffs []diffmatchpatch.Diff) {
	for _, diff := range diffs {
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}

			line = strings.TrimSuffix(line, "\n")

			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				color.New(color.FgRed).Fprintf(out, "      - %s\n", line)
			case diffmatchpatch.DiffInsert:
				color.New(color.FgGreen).Fprintf(out, "      + %s\n", line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(out, "        %s\n", line)
			}
		}
	}
}
