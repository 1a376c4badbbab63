package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, injected via -ldflags at release time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("AutoForensic Collector %s\n", Version)
		cmd.Printf("Git Commit: %s\n", GitCommit)
		cmd.Printf("Build Date: %s\n", BuildDate)
		cmd.Printf("Go Version: %s\n", runtime.Version())
		cmd.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
