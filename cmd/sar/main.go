// Command sar drives the SAR workflow from the shell: train a model on
// an annotated molecule table, predict activity for new structures,
// print accuracy statistics and render result grids.
package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func allCommands() *commander.Command {
	return &commander.Command{
		UsageLine: os.Args[0] + " command [options]",
		Short:     "structure-activity-relationship workflow",
		Subcommands: []*commander.Command{
			trainCmd(),
			predictCmd(),
			analyzeCmd(),
			gridCmd(),
		},
		Flag: *flag.NewFlagSet("sar", flag.ExitOnError),
	}
}

func main() {
	if err := allCommands().Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
