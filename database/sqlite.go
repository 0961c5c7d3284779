package database

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"booklend/config"
)

//go:embed schema
var schemaFS embed.FS

func NewDB() (*sql.DB, error) {
	if config.Opts.DSN == "" {
		return nil, errors.New("database path is required")
	}

	return Open(config.Opts.DSN)
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers, a single connection avoids SQLITE_BUSY
	// between the managers and the pipeline workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	return db, nil
}

// Migrate applies the latest schema to the database. The schema only uses
// IF NOT EXISTS statements, so applying it repeatedly is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	buf, err := schemaFS.ReadFile("schema/LATEST_SCHEMA.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read latest schema")
	}

	if _, err := db.ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
