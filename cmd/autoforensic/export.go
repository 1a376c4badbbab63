package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/internal/atomicfile"
	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/export"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/store"
)

var exportFlags struct {
	format string
	output string
	pretty bool
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the case for handoff",
	Long: `Export the case: full evidence records plus the chain of custody as JSON,
or one CSV row per record for spreadsheet review.

Without --output the export lands in the case's reports/ directory as
<case-id>_export.<format>, written via atomic replace. --output - streams
to stdout.

Examples:
  autoforensic export
  autoforensic export --format csv --output evidence.csv
  autoforensic export --output - | jq .case.case_id`,
	Args: exactArgs(0),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", "json", "export format (json, csv)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "output file, - for stdout (default: reports/<case-id>_export.<format>)")
	exportCmd.Flags().BoolVar(&exportFlags.pretty, "pretty", false, "force indented JSON even when export.compact is set")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFlags.format != "json" && exportFlags.format != "csv" {
		return cli.NewUsageError("unknown export format %q, expected json or csv", exportFlags.format)
	}

	env, err := newCommandEnv()
	if err != nil {
		return err
	}
	if exportFlags.pretty {
		env.cfg.Export.Compact = false
	}

	exporter, err := export.ForFormat(exportFlags.format, env.cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := openCase(ctx, env)
	if err != nil {
		return err
	}
	defer c.Close()

	records := c.store.List()
	kase := c.ledger.Case()

	if exportFlags.output == "-" {
		return exporter.Export(ctx, kase, records, os.Stdout)
	}

	path := exportFlags.output
	if path == "" {
		path = filepath.Join(env.caseDir, store.ReportsDirName,
			fmt.Sprintf("%s_export.%s", kase.CaseID, exportFlags.format))
	}

	var buf bytes.Buffer
	if err := exporter.Export(ctx, kase, records, &buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	env.printer.Printf("Exported %d record(s) to %s\n", len(records), path)
	return nil
}
