package main

import (
	"github.com/spf13/cobra"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Close the case",
	Long: `Close the case: stamp the end time and append a terminal entry to the
chain of custody.

Finalizing is not a lock. Evidence can still be added afterwards and the
case can be finalized again; each finalization appends another terminal
entry and restamps the end time, never erasing earlier history.`,
	Args: exactArgs(0),
	RunE: runFinalize,
}

func init() {
	rootCmd.AddCommand(finalizeCmd)
}

func runFinalize(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	c, err := openCase(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.ledger.Finalized() {
		env.printer.Errorf("note: case was already finalized, appending another terminal entry\n")
	}

	if err := c.ledger.Finalize(); err != nil {
		return err
	}

	env.printer.CaseSummary(c.ledger.Case())
	return nil
}
