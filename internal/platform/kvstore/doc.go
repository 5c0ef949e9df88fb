// Package kvstore implements store.KVStore on SQLite (mattn/go-sqlite3) and
// PostgreSQL (pgx through database/sql). Queries are built with squirrel and
// the schema is managed by goose migrations embedded per dialect.
package kvstore
