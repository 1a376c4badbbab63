package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/evidence/custody"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/store"
)

var initcaseFlags struct {
	operator string
	caseID   string
}

var initcaseCmd = &cobra.Command{
	Use:   "initcase",
	Short: "Initialize a new case directory and custody ledger",
	Long: `Initialize a new case: create the case directory with its evidence vault
(one subdirectory per evidence kind plus reports/), start the chain of
custody, and record the collecting host's fingerprint.

Initializing refuses to overwrite an existing custody file; reopen an
existing case by pointing any other command at its directory.

Examples:
  # New case with a generated id
  autoforensic initcase --operator jdoe --case-dir ./evidence/incident-7

  # New case with an explicit id
  autoforensic initcase --operator jdoe --case-id CASE-2026-001`,
	Args: exactArgs(0),
	RunE: runInitcase,
}

func init() {
	rootCmd.AddCommand(initcaseCmd)

	initcaseCmd.Flags().StringVar(&initcaseFlags.operator, "operator", "", "operator identity stamped on custody entries (default: case.operator from config)")
	initcaseCmd.Flags().StringVar(&initcaseFlags.caseID, "case-id", "", "case identifier (default: a new UUID)")
}

func runInitcase(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	operator := initcaseFlags.operator
	if operator == "" {
		operator = env.cfg.Case.Operator
	}

	if err := os.MkdirAll(env.caseDir, 0o755); err != nil {
		return fmt.Errorf("creating case directory: %w", err)
	}

	arc, err := openArchive(env)
	if err != nil {
		return err
	}
	defer closeArchive(arc, env.logger)

	ledger, err := custody.Init(custody.Options{
		Dir:         env.caseDir,
		CaseID:      initcaseFlags.caseID,
		Operator:    operator,
		Fingerprint: fingerprint(env.logger),
		Archiver:    archiver(arc),
		Logger:      env.logger,
		Metrics:     env.collector,
	})
	if err != nil {
		return err
	}

	// Creates the vault layout and an empty index
	if _, err := store.Open(store.Options{
		Dir:         env.caseDir,
		Engine:      hashing.NewEngine(env.cfg.Hashing.Algorithms, env.logger),
		Ledger:      ledger,
		Archiver:    archiver(arc),
		Parallelism: env.cfg.Verification.Parallelism,
		Logger:      env.logger,
		Metrics:     env.collector,
	}); err != nil {
		return err
	}

	env.printer.Printf("Case %s initialized in %s\n\n", ledger.CaseID(), env.caseDir)
	env.printer.CaseSummary(ledger.Case())
	return nil
}
