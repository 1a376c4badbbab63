package main

import (
	"context"
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
	"github.com/servais1983/autoforensic-collector/pkg/evidence/hashing"
)

var verifyFlags struct {
	all        bool
	algorithms []string
}

var verifyCmd = &cobra.Command{
	Use:   "verify [<evidence-id>...]",
	Short: "Re-verify evidence integrity",
	Long: `Re-verify evidence against its recorded digests. Each check re-reads the
stored copy in full and recomputes the digest; every check, pass or fail,
is appended to the chain of custody.

Records that were never stored fail verification: integrity cannot be
proven for evidence that was never captured. Exit code 4 means at least
one record failed.

Each --algorithm runs a full pass; repeat it to cross-check with a second
digest.

Examples:
  autoforensic verify 6f1b1c9a-8a6c-4f6e-9d3e-2f1a0b7c4d5e
  autoforensic verify --all
  autoforensic verify --all --algorithm sha256 --algorithm sha512`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyFlags.all, "all", false, "verify every record in the case")
	verifyCmd.Flags().StringArrayVar(&verifyFlags.algorithms, "algorithm", nil, "digest algorithm to check, repeatable (default: verification.algorithm from config)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if !verifyFlags.all && len(args) == 0 {
		return cli.NewUsageError("provide evidence ids or --all")
	}
	if verifyFlags.all && len(args) > 0 {
		return cli.NewUsageError("--all cannot be combined with explicit evidence ids")
	}

	env, err := newCommandEnv()
	if err != nil {
		return err
	}

	algorithms := verifyFlags.algorithms
	if len(algorithms) == 0 {
		algorithms = []string{env.cfg.Verification.Algorithm}
	}
	for _, algorithm := range algorithms {
		if !hashing.Supported(algorithm) {
			return cli.NewUsageError("unsupported digest algorithm %q", algorithm)
		}
	}

	ctx := cmd.Context()
	c, err := openCase(ctx, env)
	if err != nil {
		return err
	}
	defer c.Close()

	var (
		failed     []string
		failedSeen = make(map[string]bool)
		persistErr error
	)
	for _, algorithm := range algorithms {
		order, results, perr := verifyPass(ctx, c, env, algorithm, args)
		if persistErr == nil {
			persistErr = perr
		}

		passFailed := 0
		for _, id := range order {
			verdict := "PASS"
			if !results[id] {
				verdict = "FAIL"
				passFailed++
				if !failedSeen[id] {
					failedSeen[id] = true
					failed = append(failed, id)
				}
			}
			env.printer.Printf("%s  %s\n", verdict, id)
		}
		env.printer.Printf("%d verified, %d failed (%s)\n", len(results)-passFailed, passFailed, algorithm)
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return cli.NewVerificationFailedError(failed)
	}
	// Verification outranks persistence: a failed audit write surfaces only
	// when every record checked out
	return persistErr
}

// verifyPass checks either the whole case or the named ids with one
// algorithm. Unknown ids count as failures; other per-id errors are
// collected but do not stop the pass.
func verifyPass(ctx context.Context, c *caseEnv, env *commandEnv, algorithm string, ids []string) ([]string, map[string]bool, error) {
	if verifyFlags.all {
		results := c.store.VerifyAll(ctx, algorithm)
		order := make([]string, 0, len(results))
		for id := range results {
			order = append(order, id)
		}
		sort.Strings(order)
		return order, results, nil
	}

	var firstErr error
	results := make(map[string]bool, len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		passed, err := c.store.Verify(ctx, id, algorithm)
		if err != nil {
			var nf *evidence.NotFoundError
			if errors.As(err, &nf) {
				env.printer.Errorf("unknown evidence id %q\n", id)
			} else if firstErr == nil {
				firstErr = err
			}
		}
		results[id] = passed
		order = append(order, id)
	}
	return order, results, firstErr
}
