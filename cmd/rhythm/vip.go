package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rhythm/pkg/cli"
	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/vipstore"
)

var vipFlags struct {
	db         string
	output     string
	capacity   int64
	refillRate int64
}

var vipCmd = &cobra.Command{
	Use:   "vip",
	Short: "Manage persisted VIP overrides",
	Long: `Manage the VIP overrides persisted in the SQLite VIP store.

A running server applies stored overrides at startup and on reload (SIGHUP).

Examples:
  # Give a key a larger bucket
  rhythm vip set premium-user --capacity 100 --refill-rate 10

  # Show one override
  rhythm vip get premium-user

  # List overrides as JSON
  rhythm vip list --output json

  # Use a database other than the configured one
  rhythm vip list --db /var/lib/rhythm/vips.db`,
}

var vipSetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Create or replace an override",
	Args:  cobra.ExactArgs(1),
	RunE:  vipSet,
}

var vipGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show an override",
	Args:  cobra.ExactArgs(1),
	RunE:  vipGet,
}

var vipListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every override",
	Args:  cobra.NoArgs,
	RunE:  vipList,
}

var vipDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"rm"},
	Short:   "Delete an override",
	Args:    cobra.ExactArgs(1),
	RunE:    vipDelete,
}

func init() {
	rootCmd.AddCommand(vipCmd)
	vipCmd.AddCommand(vipSetCmd, vipGetCmd, vipListCmd, vipDeleteCmd)

	vipCmd.PersistentFlags().StringVar(&vipFlags.db, "db", "", "SQLite database path (overrides vip_store in config)")
	vipCmd.PersistentFlags().StringVarP(&vipFlags.output, "output", "o", "text", "output format: text, json, csv")

	vipSetCmd.Flags().Int64Var(&vipFlags.capacity, "capacity", 0, "bucket capacity")
	vipSetCmd.Flags().Int64Var(&vipFlags.refillRate, "refill-rate", 0, "tokens per refill interval")
	_ = vipSetCmd.MarkFlagRequired("capacity")
	_ = vipSetCmd.MarkFlagRequired("refill-rate")
	completeFlagValues(vipCmd, "output", outputFormatValues)
}

// openVIPStore opens the store named by --db, or the configured SQLite store.
func openVIPStore() (vipstore.Store, error) {
	if vipFlags.db != "" {
		return vipstore.NewSQLiteStore(vipstore.SQLiteConfig{Path: vipFlags.db})
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	if cfg.VIPStore.Backend != config.BackendSQLite {
		return nil, cli.NewConfigError("vip_store.backend",
			fmt.Sprintf("vip commands need the %q backend, got %q", config.BackendSQLite, cfg.VIPStore.Backend))
	}
	return vipstore.Open(cfg.VIPStore)
}

// withVIPStore runs fn against an open store and closes it afterwards.
func withVIPStore(cmd *cobra.Command, fn func(ctx context.Context, store vipstore.Store) error) error {
	store, err := openVIPStore()
	if err != nil {
		var cfgErr *cli.ConfigError
		if errors.As(err, &cfgErr) {
			return err
		}
		return cli.NewCommandError(cmd.CommandPath(), err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, store); err != nil {
		return cli.NewCommandError(cmd.CommandPath(), err)
	}
	return nil
}

func vipSet(cmd *cobra.Command, args []string) error {
	return withVIPStore(cmd, func(ctx context.Context, store vipstore.Store) error {
		rec := vipstore.Record{
			Key:        args[0],
			Capacity:   vipFlags.capacity,
			RefillRate: vipFlags.refillRate,
		}
		if err := store.Put(ctx, rec); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ VIP %q set (capacity %d, refill rate %d)\n",
			rec.Key, rec.Capacity, rec.RefillRate)
		return nil
	})
}

func vipGet(cmd *cobra.Command, args []string) error {
	return withVIPStore(cmd, func(ctx context.Context, store vipstore.Store) error {
		rec, err := store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printVIPs(cmd, []vipstore.Record{rec})
	})
}

func vipList(cmd *cobra.Command, args []string) error {
	return withVIPStore(cmd, func(ctx context.Context, store vipstore.Store) error {
		records, err := store.List(ctx)
		if err != nil {
			return err
		}
		return printVIPs(cmd, records)
	})
}

func vipDelete(cmd *cobra.Command, args []string) error {
	return withVIPStore(cmd, func(ctx context.Context, store vipstore.Store) error {
		if err := store.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ VIP %q deleted\n", args[0])
		return nil
	})
}

// printVIPs writes records in the format chosen by --output.
func printVIPs(cmd *cobra.Command, records []vipstore.Record) error {
	format, err := cli.ParseOutputFormat(vipFlags.output)
	if err != nil {
		return err
	}

	table := &cli.Table{Headers: []string{"KEY", "CAPACITY", "REFILL_RATE", "UPDATED_AT"}}
	for _, rec := range records {
		table.Append(
			rec.Key,
			strconv.FormatInt(rec.Capacity, 10),
			strconv.FormatInt(rec.RefillRate, 10),
			rec.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}
