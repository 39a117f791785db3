package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/avltree/pkg/avl"
	"github.com/Sumatoshi-tech/avltree/pkg/observability"
)

const (
	printCmdUse   = "print <key>..."
	printCmdShort = "Insert integer keys and print the resulting tree"
	printCmdLong  = `Insert the given integer keys in order into an empty tree, optionally
remove some of them, and print the tree sideways with the right subtree on top.

Examples:
  avlctl print 10 20 30 5
  avlctl print --balance 1 2 3 4 5 6 7
  avlctl print --remove 4 1 2 3 4 5 6 7`

	flagRemove  = "remove"
	flagBalance = "balance"
)

// ErrInvalidKey is returned for arguments that are not integers.
var ErrInvalidKey = errors.New("invalid key")

// PrintCommand holds the print flags.
type PrintCommand struct {
	global  *GlobalOptions
	initFn  observabilityInit
	remove  []int
	balance bool
}

// NewPrintCommand creates the print subcommand.
func NewPrintCommand(global *GlobalOptions) *cobra.Command {
	return newPrintCommandWithDeps(global, observability.Init)
}

func newPrintCommandWithDeps(global *GlobalOptions, initFn observabilityInit) *cobra.Command {
	pc := &PrintCommand{global: global, initFn: initFn}

	cmd := &cobra.Command{
		Use:   printCmdUse,
		Short: printCmdShort,
		Long:  printCmdLong,
		Args:  cobra.MinimumNArgs(1),
		RunE:  pc.run,
	}

	cmd.Flags().IntSliceVar(&pc.remove, flagRemove, nil, "keys to remove after the inserts")
	cmd.Flags().BoolVar(&pc.balance, flagBalance, false, "show the position and balance factor of every node")

	return cmd
}

func (pc *PrintCommand) run(cmd *cobra.Command, args []string) error {
	providers, err := startSession(pc.global, pc.initFn)
	if err != nil {
		return err
	}

	defer shutdown(providers)

	tree := avl.New[int, int]()

	for pos, arg := range args {
		key, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidKey, arg, convErr)
		}

		if !tree.Insert(key, pos) {
			providers.Logger.Debug("duplicate key overwritten", observability.OpAttr(observability.OpOverwrite), "key", key)
		}
	}

	for _, key := range pc.remove {
		if !tree.Remove(key) {
			providers.Logger.Warn("key to remove is absent", observability.OpAttr(observability.OpRemove), "key", key)
		}
	}

	err = tree.Verify()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	tree.Print(out, pc.balance)

	providers.Logger.Debug("tree printed",
		"len", tree.Len(), "height", tree.Height(), "equal_paths", tree.EqualPaths())

	return nil
}
