package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/platform/kvstore"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version]",
		Short:     "Run store migrations",
		Long:      "Applies, rolls back or reports the schema migrations of the SQL key-value store. Defaults to up.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{kvstore.MigrateUp, kvstore.MigrateDown, kvstore.MigrateStatus, kvstore.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := kvstore.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.StoreDriverMemory {
				return fmt.Errorf("store driver %q has no migrations", cfg.Store.Driver)
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}

			ctx := logger.WithLogger(cmd.Context(), log)
			_, dialect, err := kvstore.Dialect(cfg.Store.Driver)
			if err != nil {
				return err
			}
			kv, err := kvstore.Open(ctx, cfg.Store, kvstore.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			report, err := kvstore.RunMigrations(ctx, kv.DB(), dialect, command)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, r kvstore.MigrationReport) {
	_, _ = fmt.Fprintf(w, "%s: version %d\n", r.Command, r.Version)
	if len(r.Applied) > 0 {
		_, _ = fmt.Fprintf(w, "applied: %s\n", strings.Join(r.Applied, ", "))
	}
	if len(r.Pending) > 0 {
		_, _ = fmt.Fprintf(w, "pending: %s\n", strings.Join(r.Pending, ", "))
	}
}
