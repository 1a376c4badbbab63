package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/servais1983/autoforensic-collector/pkg/cli"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

var addFlags struct {
	kind        string
	source      string
	description string
	meta        []string
	memoryOf    string
	diskOf      string
	iface       string
}

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a piece of evidence and capture its payload",
	Long: `Register evidence: copy the file into the case vault under its kind
directory, digest the stored copy with every configured algorithm, and
append the registration to the chain of custody.

A source file that cannot be read leaves the record registered without a
stored copy; the registration itself still succeeds and is audited.

The shorthand flags map to the collector families and stamp their
provenance metadata (source system, capture time, format):

  --memory-of <system>    RAM capture of the named system
  --disk-of <disk>        image of the named disk or partition
  --interface <iface>     packet capture from the named interface

Examples:
  autoforensic add memdump.raw --memory-of workstation-7 --description "RAM before shutdown"
  autoforensic add sda.dd --disk-of /dev/sda
  autoforensic add eth0.pcap --interface eth0
  autoforensic add auth.log --kind logs --source /var/log/auth.log --meta rotated=false`,
	Args: exactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	f := addCmd.Flags()
	f.StringVarP(&addFlags.kind, "kind", "k", "", "evidence kind (memory, disk, process, network, logs, artifacts, browser)")
	f.StringVarP(&addFlags.source, "source", "s", "", "where the evidence came from (device path, PID, interface)")
	f.StringVar(&addFlags.description, "description", "", "human-readable description")
	f.StringArrayVarP(&addFlags.meta, "meta", "m", nil, "metadata entry as key=value (repeatable)")
	f.StringVar(&addFlags.memoryOf, "memory-of", "", "shorthand: memory dump of the named system")
	f.StringVar(&addFlags.diskOf, "disk-of", "", "shorthand: image of the named disk")
	f.StringVar(&addFlags.iface, "interface", "", "shorthand: packet capture from the named interface")
}

func runAdd(cmd *cobra.Command, args []string) error {
	md, err := parseMeta(addFlags.meta)
	if err != nil {
		return err
	}

	shorthands := 0
	for _, v := range []string{addFlags.memoryOf, addFlags.diskOf, addFlags.iface} {
		if v != "" {
			shorthands++
		}
	}
	if shorthands > 1 {
		return cli.NewUsageError("--memory-of, --disk-of, and --interface are mutually exclusive")
	}
	if shorthands == 0 {
		if addFlags.kind == "" {
			return cli.NewUsageError("--kind is required unless a shorthand flag is used")
		}
		if !evidence.Kind(addFlags.kind).Valid() {
			return cli.NewUsageError("unknown evidence kind %q", addFlags.kind)
		}
		if addFlags.source == "" {
			return cli.NewUsageError("--source is required unless a shorthand flag is used")
		}
	}

	env, err := newCommandEnv()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	c, err := openCase(ctx, env)
	if err != nil {
		return err
	}
	defer c.Close()

	sourceFile := args[0]
	var id string
	switch {
	case addFlags.memoryOf != "":
		id, err = c.store.AddMemoryDump(ctx, addFlags.memoryOf, addFlags.description, sourceFile, md)
	case addFlags.diskOf != "":
		id, err = c.store.AddDiskImage(ctx, addFlags.diskOf, addFlags.description, sourceFile, md)
	case addFlags.iface != "":
		id, err = c.store.AddNetworkCapture(ctx, addFlags.iface, addFlags.description, sourceFile, md)
	default:
		id, err = c.store.AddArtifact(ctx, evidence.Kind(addFlags.kind), addFlags.source, addFlags.description, sourceFile, md)
	}
	if id == "" {
		return err
	}

	if rec, gerr := c.store.Get(id); gerr == nil {
		env.printer.Printf("Added %s (%s, %s)\n", rec.ID, rec.Kind, rec.Status)
		if rec.Status == evidence.StatusRegistered {
			env.printer.Errorf("warning: payload was not captured, record stays registered\n")
		}
	}

	// A non-nil error alongside a valid id is a failed index persist: the
	// record exists in this process but did not reach disk
	return err
}

// parseMeta converts repeated key=value flags into metadata.
func parseMeta(pairs []string) (evidence.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	md := make(evidence.Metadata, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, cli.NewUsageError("invalid --meta %q, expected key=value", pair)
		}
		md[key] = value
	}
	return md, nil
}
