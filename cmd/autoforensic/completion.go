package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for autoforensic.

To load completions:

Bash:
  $ source <(autoforensic completion bash)
  # To load permanently:
  $ autoforensic completion bash > /etc/bash_completion.d/autoforensic

Zsh:
  $ autoforensic completion zsh > "${fpath[1]}/_autoforensic"
  $ compinit

Fish:
  $ autoforensic completion fish | source
  # To load permanently:
  $ autoforensic completion fish > ~/.config/fish/completions/autoforensic.fish

PowerShell:
  PS> autoforensic completion powershell | Out-String | Invoke-Expression
  # To load permanently, add to your PowerShell profile
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
