package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// Fixed flag values offered by shell completion.
var (
	outputFormatValues = []string{"text", "json", "csv"}
	logLevelValues     = []string{"debug", "info", "warn", "error"}
)

// completionGenerators writes the completion script for each supported shell.
var completionGenerators = map[string]func(out io.Writer) error{
	"bash":       func(out io.Writer) error { return rootCmd.GenBashCompletionV2(out, true) },
	"zsh":        func(out io.Writer) error { return rootCmd.GenZshCompletion(out) },
	"fish":       func(out io.Writer) error { return rootCmd.GenFishCompletion(out, true) },
	"powershell": func(out io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(out) },
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print a shell completion script for rhythm",
	Long: `Print a completion script for rhythm. Besides subcommands and flags it
completes simulate scenario names (simple, burst, ddos), the values of
--output and --log-level, and YAML files for --config.

Load it for the current shell session:

  bash:        source <(rhythm completion bash)
  zsh:         source <(rhythm completion zsh)
  fish:        rhythm completion fish | source
  powershell:  rhythm completion powershell | Out-String | Invoke-Expression

To install it permanently write the script to your shell's completion
directory, e.g. rhythm completion bash > /etc/bash_completion.d/rhythm`,
	ValidArgs: completionShells(),
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, ok := completionGenerators[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q (want one of %s)", args[0], strings.Join(completionShells(), ", "))
		}
		return gen(cmd.OutOrStdout())
	},
}

func completionShells() []string {
	shells := make([]string, 0, len(completionGenerators))
	for shell := range completionGenerators {
		shells = append(shells, shell)
	}
	slices.Sort(shells)
	return shells
}

// completeFlagValues offers values for flag on cmd and suppresses file names.
func completeFlagValues(cmd *cobra.Command, flag string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
