package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/redact"
	"github.com/phrazzld/vocab-trainer/internal/store"
)

const table = "kv_entries"

// upsertSuffix works on both PostgreSQL and SQLite.
const upsertSuffix = "ON CONFLICT (entry_key) DO UPDATE SET " +
	"entry_value = excluded.entry_value, " +
	"expires_at = excluded.expires_at, " +
	"updated_at = excluded.updated_at"

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is a store.KVStore backed by a SQL database.
type Store struct {
	db      *sqlx.DB
	dialect goose.Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
	logger  *slog.Logger
}

var _ store.KVStore = (*Store)(nil)

// Dialect maps a configured store driver to its SQL driver name and goose
// dialect.
func Dialect(driver string) (string, goose.Dialect, error) {
	switch driver {
	case config.StoreDriverSQLite:
		return "sqlite3", goose.DialectSQLite3, nil
	case config.StoreDriverPostgres:
		return "pgx", goose.DialectPostgres, nil
	default:
		return "", "", fmt.Errorf("unsupported store driver %q", driver)
	}
}

// Open connects to the database described by cfg and verifies the
// connection. It does not run migrations.
func Open(ctx context.Context, cfg config.StoreConfig, opts ...Option) (*Store, error) {
	driverName, dialect, err := Dialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store %s: %w", cfg.Driver, redact.String(cfg.DSN), err)
	}
	if dialect == goose.DialectSQLite3 {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s store: %s", cfg.Driver, redact.Error(err))
	}

	return New(db, dialect, opts...), nil
}

// New wraps an open connection.
func New(db *sqlx.DB, dialect goose.Dialect, opts ...Option) *Store {
	placeholder := sq.Question
	if dialect == goose.DialectPostgres {
		placeholder = sq.Dollar
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "kvstore"), slog.String("dialect", string(dialect)))
	return s
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

// Migrate applies every pending migration.
func (s *Store) Migrate(ctx context.Context) (MigrationReport, error) {
	return RunMigrations(ctx, s.db.DB, s.dialect, MigrateUp)
}

func (s *Store) live(now time.Time) sq.Or {
	return sq.Or{sq.Eq{"expires_at": nil}, sq.Gt{"expires_at": now.UnixMilli()}}
}

// Get implements store.KVStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := s.builder.
		Select("entry_value").
		From(table).
		Where(sq.Eq{"entry_key": key}).
		Where(s.live(s.now())).
		ToSql()
	if err != nil {
		return nil, store.NewOpError(store.OpGet, key, "failed to build query", err)
	}

	var value []byte
	if err := s.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, store.NewOpError(store.OpGet, key, "query failed", err)
	}
	return value, nil
}

// Put implements store.KVStore.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.PutMany(ctx, []store.Entry{{Key: key, Value: value, TTL: ttl}})
}

// PutMany implements store.KVStore.
func (s *Store) PutMany(ctx context.Context, entries []store.Entry) error {
	for _, e := range entries {
		if err := store.ValidateKey(e.Key); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		return nil
	}

	now := s.now()
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		for _, e := range entries {
			var expiresAt *int64
			if e.TTL > 0 {
				ms := now.Add(e.TTL).UnixMilli()
				expiresAt = &ms
			}
			value := e.Value
			if value == nil {
				value = []byte{}
			}

			query, args, err := s.builder.
				Insert(table).
				Columns("entry_key", "entry_value", "expires_at", "updated_at").
				Values(e.Key, value, expiresAt, now.UnixMilli()).
				Suffix(upsertSuffix).
				ToSql()
			if err != nil {
				return store.NewOpError(store.OpPut, e.Key, "failed to build query", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return store.NewOpError(store.OpPut, e.Key, "upsert failed", err)
			}
		}
		return nil
	})
}

// Delete implements store.KVStore.
func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := s.builder.Delete(table).Where(sq.Eq{"entry_key": key}).ToSql()
	if err != nil {
		return store.NewOpError(store.OpDelete, key, "failed to build query", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return store.NewOpError(store.OpDelete, key, "delete failed", err)
	}
	return nil
}

// Keys implements store.KVStore.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	builder := s.builder.Select("entry_key").From(table).Where(s.live(s.now()))
	if prefix != "" {
		// LIKE is case-insensitive on SQLite.
		builder = builder.Where(sq.Expr("substr(entry_key, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, store.NewOpError(store.OpKeys, prefix, "failed to build query", err)
	}

	var keys []string
	if err := s.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, store.NewOpError(store.OpKeys, prefix, "query failed", err)
	}
	slices.Sort(keys)
	return keys, nil
}

// PurgeExpired deletes expired entries and reports how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	query, args, err := s.builder.
		Delete(table).
		Where(sq.NotEq{"expires_at": nil}).
		Where(sq.LtOrEq{"expires_at": s.now().UnixMilli()}).
		ToSql()
	if err != nil {
		return 0, store.NewOpError(store.OpPurge, "", "failed to build query", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, store.NewOpError(store.OpPurge, "", "delete failed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, store.NewOpError(store.OpPurge, "", "failed to count deleted rows", err)
	}
	if n > 0 {
		s.logger.DebugContext(ctx, "purged expired entries", slog.Int64("count", n))
	}
	return n, nil
}

// Close implements store.KVStore.
func (s *Store) Close() error {
	return s.db.Close()
}
