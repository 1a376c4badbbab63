package main

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <evidence-id>",
	Short: "Show one evidence record in full",
	Long: `Show every recorded field of one evidence record: provenance, stored
location, digests, lifecycle status, and metadata.

Example:
  autoforensic show 6f1b1c9a-8a6c-4f6e-9d3e-2f1a0b7c4d5e`,
	Args: exactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	c, err := openCase(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer c.Close()

	rec, err := c.store.Get(args[0])
	if err != nil {
		return err
	}

	env.printer.RecordDetail(rec)
	return nil
}
