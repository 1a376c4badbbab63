package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/archive"
)

var listFlags struct {
	kind        string
	fromArchive bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List evidence records",
	Long: `List the case's evidence records in the order they were added.

By default records come from the canonical JSON index. --from-archive reads
the SQLite mirror instead, which answers without loading the case and is
useful for large cases or read-only inspection.

Examples:
  autoforensic list
  autoforensic list --kind memory
  autoforensic list --from-archive`,
	Args: exactArgs(0),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFlags.kind, "kind", "k", "", "only records of this evidence kind")
	listCmd.Flags().BoolVar(&listFlags.fromArchive, "from-archive", false, "read from the SQLite archive mirror instead of the JSON index")
}

func runList(cmd *cobra.Command, args []string) error {
	if listFlags.kind != "" && !evidence.Kind(listFlags.kind).Valid() {
		return cli.NewUsageError("unknown evidence kind %q", listFlags.kind)
	}

	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	if listFlags.fromArchive {
		return listFromArchive(cmd.Context(), env)
	}

	c, err := openCase(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer c.Close()

	var records []*evidence.Record
	if listFlags.kind != "" {
		records = c.store.ListKind(evidence.Kind(listFlags.kind))
	} else {
		records = c.store.List()
	}

	env.printer.RecordTable(records)
	return nil
}

func listFromArchive(ctx context.Context, env *commandEnv) error {
	path := archive.PathIn(env.caseDir, &env.cfg.Archive)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no archive database at %s (set archive.enabled and run a writing command first): %w", path, err)
	}

	arc, err := archive.NewSQLite(archive.Options{
		Path:         path,
		MaxOpenConns: env.cfg.Archive.MaxOpenConns,
		DisableWAL:   env.cfg.Archive.DisableWAL,
		BusyTimeout:  env.cfg.Archive.BusyTimeout,
		Logger:       env.logger,
		Metrics:      env.collector,
	})
	if err != nil {
		return err
	}
	defer closeArchive(arc, env.logger)

	records, err := arc.QueryRecords(ctx, archive.Filter{Kind: evidence.Kind(listFlags.kind)})
	if err != nil {
		return err
	}

	env.printer.RecordTable(records)
	return nil
}
