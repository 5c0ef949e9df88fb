package kvstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
)

//go:embed migrations/*/*.sql
var migrationFS embed.FS

// Migration commands accepted by RunMigrations
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// MigrationReport summarizes one migration command.
type MigrationReport struct {
	Command string
	// Version is the database version after the command.
	Version int64
	// Applied lists the migration files run by up or down.
	Applied []string
	// Pending lists the migration files not yet applied.
	Pending []string
}

func newProvider(db *sql.DB, dialect goose.Dialect) (*goose.Provider, error) {
	sub, err := fs.Sub(migrationFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s migrations: %w", dialect, err)
	}
	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// RunMigrations executes command against db using the embedded migrations
// of dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, command string) (MigrationReport, error) {
	log := logger.FromContextOrDefault(ctx, nil).With(
		slog.String("component", "migrations"),
		slog.String("dialect", string(dialect)))

	provider, err := newProvider(db, dialect)
	if err != nil {
		return MigrationReport{}, err
	}

	report := MigrationReport{Command: command}
	var results []*goose.MigrationResult

	switch command {
	case MigrateUp:
		log.Info("Applying pending migrations")
		results, err = provider.Up(ctx)
	case MigrateDown:
		log.Info("Rolling back one migration version")
		var res *goose.MigrationResult
		res, err = provider.Down(ctx)
		if res != nil {
			results = append(results, res)
		}
	case MigrateStatus, MigrateVersion:
	default:
		return MigrationReport{}, fmt.Errorf(
			"unknown migration command: %s (expected up, down, status, or version)", command)
	}
	if err != nil {
		log.Error("Migration command failed", slog.String("command", command), slog.Any("error", err))
		return MigrationReport{}, fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	for _, r := range results {
		if r.Source != nil {
			report.Applied = append(report.Applied, r.Source.Path)
		}
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return MigrationReport{}, fmt.Errorf("failed to read migration status: %w", err)
	}
	for _, s := range statuses {
		if s.State == goose.StatePending && s.Source != nil {
			report.Pending = append(report.Pending, s.Source.Path)
		}
	}

	if report.Version, err = provider.GetDBVersion(ctx); err != nil {
		return MigrationReport{}, fmt.Errorf("failed to read database version: %w", err)
	}

	log.Info("Migration command executed successfully",
		slog.String("command", command),
		slog.Int64("version", report.Version),
		slog.Int("applied", len(report.Applied)),
		slog.Int("pending", len(report.Pending)))
	return report, nil
}
