package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/companion-studio/internal/config"
	"github.com/suPer8Hu/companion-studio/internal/db"
	"github.com/suPer8Hu/companion-studio/internal/store/redisstore"
	"gorm.io/gorm"
)

const (
	dsnFlag       = "dsn"
	categoryFlag  = "category"
	noDefaultFlag = "no-defaults"
	invalidate    = "invalidate-cache"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the categories and companions tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gdb, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			if err := db.Migrate(gdb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories plus any given with --category",
		Long: `Insert categories that do not exist yet. Existing names are left alone,
so running seed twice is harmless.

Examples:
  companionctl seed
  companionctl seed --category "Poets" --category "Chefs"
  companionctl seed --no-defaults --category "Poets"`,
		RunE: runSeed,
	}
	cmd.Flags().StringSlice(categoryFlag, nil, "Extra category name (repeatable)")
	cmd.Flags().Bool(noDefaultFlag, false, "Skip the built-in category list")
	cmd.Flags().Bool(invalidate, true, "Drop the cached category list in Redis afterwards")
	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) (err error) {
	extra, _ := cmd.Flags().GetStringSlice(categoryFlag)
	noDefaults, _ := cmd.Flags().GetBool(noDefaultFlag)
	dropCache, _ := cmd.Flags().GetBool(invalidate)

	names := seedNames(extra, noDefaults)
	if len(names) == 0 {
		return fmt.Errorf("nothing to seed")
	}

	gdb, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(gdb); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	n, err := db.SeedCategories(ctx, gdb, names)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d categories\n", n, len(names))

	if dropCache && n > 0 {
		return invalidateCategories(ctx)
	}
	return nil
}

func seedNames(extra []string, noDefaults bool) []string {
	var names []string
	if !noDefaults {
		names = append(names, db.DefaultCategories...)
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func invalidateCategories(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.RedisEnabled {
		return nil
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CategoryCacheTTL)
	var result *multierror.Error
	if err := rds.InvalidateCategories(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalidate category cache: %w", err))
	}
	if err := rds.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func openDB(cmd *cobra.Command) (*gorm.DB, error) {
	dsn, _ := cmd.Flags().GetString(dsnFlag)
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DBDSN
	}
	return db.Connect(dsn)
}
