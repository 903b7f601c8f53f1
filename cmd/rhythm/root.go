package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mercator-hq/rhythm/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rhythm",
	Short: "Rhythm - per-key token-bucket rate limiter",
	Long: `Rhythm is a rate limiter that admits or refuses requests per key using
token buckets.

It provides:
  - Lazily created buckets with quantized refill per key
  - VIP overrides with their own capacity and refill rate
  - Durable VIP storage and hot reload from the config file
  - Idle bucket pruning and LRU growth control
  - An HTTP decision API with metrics, tracing and health probes`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile)
	},
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadEnvFile exports the variables in path so RHYTHM_* overrides can live in
// a dotenv file. A missing file is not an error; variables already set in the
// environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return cli.NewConfigError("env-file", fmt.Sprintf("failed to load %s: %v", path, err))
	}
	return nil
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with environment overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
}
