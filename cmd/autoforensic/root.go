package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/config"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/archive"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/custody"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/store"
	"github.com/servais1983/autoforensic-collector/pkg/hostinfo"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/logging"
	"github.com/servais1983/autoforensic-collector/pkg/telemetry/metrics"
)

var (
	// Global flags
	cfgFile string
	caseDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "autoforensic",
	Short: "AutoForensic Collector - tamper-evident evidence ledger",
	Long: `AutoForensic Collector maintains a tamper-evident ledger for forensic
investigations: an evidence vault with multi-algorithm digests, an
append-style chain of custody, and integrity verification on demand or
on a schedule.

Exit codes:
  0  success
  1  runtime failure
  2  usage error
  3  corrupt ledger state (do not touch the case directory)
  4  at least one evidence record failed verification`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the mapped code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults + env overrides)")
	rootCmd.PersistentFlags().StringVarP(&caseDir, "case-dir", "d", "", "case directory (default: case.output_dir from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Flag mistakes are usage errors, not runtime failures
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.NewUsageError("%v", err)
	})
}

// exactArgs is cobra.ExactArgs with the typed usage error the exit-code
// mapping needs.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return cli.NewUsageError("%q expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// commandEnv is everything a subcommand needs before touching a case:
// resolved configuration, logger, metrics collector, and the case directory.
type commandEnv struct {
	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	printer   *cli.Printer
	caseDir   string
}

// newCommandEnv loads configuration (flag > env > file > default), builds
// the logger, and resolves the case directory.
func newCommandEnv() (*commandEnv, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, err
	}
	cfg := config.GetConfig()

	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}

	var writer io.Writer
	if cfg.Telemetry.Logging.File != "" {
		f, err := os.OpenFile(cfg.Telemetry.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writer = f
	}

	logger, err := logging.New(logging.Options{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    writer,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	dir := caseDir
	if dir == "" {
		dir = cfg.Case.OutputDir
	}

	return &commandEnv{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		printer:   cli.NewPrinter(),
		caseDir:   dir,
	}, nil
}

// caseEnv is an opened case: custody ledger, evidence store, and the
// optional archive mirror.
type caseEnv struct {
	*commandEnv
	ledger  *custody.Ledger
	store   *store.Store
	archive *archive.SQLite
}

// openCase reopens the case in env.caseDir and wires the archive mirror when
// enabled. The mirror is rebuilt from canonical state so a stale or missing
// database heals on open.
func openCase(ctx context.Context, env *commandEnv) (*caseEnv, error) {
	arc, err := openArchive(env)
	if err != nil {
		return nil, err
	}

	ledger, err := custody.Load(custody.Options{
		Dir:         env.caseDir,
		Operator:    env.cfg.Case.Operator,
		Fingerprint: fingerprint(env.logger),
		Archiver:    archiver(arc),
		Logger:      env.logger,
		Metrics:     env.collector,
	})
	if err != nil {
		closeArchive(arc, env.logger)
		return nil, err
	}

	st, err := store.Open(store.Options{
		Dir:         env.caseDir,
		Engine:      hashing.NewEngine(env.cfg.Hashing.Algorithms, env.logger),
		Ledger:      ledger,
		Archiver:    archiver(arc),
		Parallelism: env.cfg.Verification.Parallelism,
		Logger:      env.logger,
		Metrics:     env.collector,
	})
	if err != nil {
		closeArchive(arc, env.logger)
		return nil, err
	}

	if arc != nil {
		if err := arc.Rebuild(ctx, st.List(), ledger.Case().AuditLog); err != nil {
			env.logger.Warn("archive rebuild failed, mirror may lag canonical state", "error", err)
		}
	}

	return &caseEnv{commandEnv: env, ledger: ledger, store: st, archive: arc}, nil
}

// Close releases the archive mirror. The JSON ledgers need no teardown.
func (c *caseEnv) Close() {
	closeArchive(c.archive, c.logger)
}

// openArchive opens the SQLite mirror when configuration enables it.
func openArchive(env *commandEnv) (*archive.SQLite, error) {
	if !env.cfg.Archive.Enabled {
		return nil, nil
	}
	return archive.NewSQLite(archive.Options{
		Path:         archive.PathIn(env.caseDir, &env.cfg.Archive),
		MaxOpenConns: env.cfg.Archive.MaxOpenConns,
		DisableWAL:   env.cfg.Archive.DisableWAL,
		BusyTimeout:  env.cfg.Archive.BusyTimeout,
		Logger:       env.logger,
		Metrics:      env.collector,
	})
}

func closeArchive(arc *archive.SQLite, logger *slog.Logger) {
	if arc == nil {
		return
	}
	if err := arc.Close(); err != nil {
		logger.Warn("archive close failed", "error", err)
	}
}

// archiver converts a possibly-nil concrete mirror into the interface.
// Returning a typed nil inside a non-nil interface would defeat the
// archiver == nil checks in the ledger components.
func archiver(arc *archive.SQLite) evidence.Archiver {
	if arc == nil {
		return nil
	}
	return arc
}

// fingerprint captures the host identity, degrading to a partial fingerprint
// when parts of it cannot be read.
func fingerprint(logger *slog.Logger) evidence.HostFingerprint {
	fp, err := hostinfo.SystemProvider{}.Fingerprint()
	if err != nil {
		logger.Warn("host fingerprint incomplete", "error", err)
	}
	return fp
}
