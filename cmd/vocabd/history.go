package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/export"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/store"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Work with the saved practice history",
	}
	cmd.AddCommand(historyExportCmd())
	return cmd
}

func historyExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the saved history to an Excel workbook",
		Long: `Reads the last saved user state from the store and writes its practice
history, daily progress and vocabulary to an .xlsx workbook. Use --out - to
write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.StoreDriverMemory {
				return fmt.Errorf("store driver %q keeps no history between runs", cfg.Store.Driver)
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}

			kv, err := openKV(cmd.Context(), cfg.Store, log, time.Now)
			if err != nil {
				return err
			}
			defer func() { _ = kv.Close() }()

			name, err := exportHistory(cmd.Context(), kv, out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if name != "-" {
				log.Info("history exported", slog.String("file", name))
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default vocab-history-<saved at>.xlsx)")
	return cmd
}

// exportHistory writes the saved state of kv as a workbook. An empty out
// picks a file name from the snapshot time; "-" writes to stdout. It returns
// the destination used.
func exportHistory(ctx context.Context, kv store.KVStore, out string, stdout io.Writer) (string, error) {
	snap, err := store.LoadSnapshot(ctx, kv)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return "", errors.New("no saved state to export, run serve first")
	}
	if err != nil {
		return "", err
	}
	days, err := store.LoadDailyProgress(ctx, kv)
	if err != nil {
		return "", err
	}

	if out == "-" {
		return out, export.Write(stdout, snap, days)
	}
	if out == "" {
		out = export.FileName(snap)
	}

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Write(f, snap, days); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	return out, nil
}
