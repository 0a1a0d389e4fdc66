package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/angelmondragon/pricelist/pkg/config"
	"github.com/pressly/goose/v3"
)

// Dir is the migrations directory inside the embedded filesystem.
const Dir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Dialect maps a storage backend to its goose dialect.
func Dialect(backend string) (string, error) {
	switch backend {
	case config.StorageSQLite:
		return "sqlite3", nil
	case config.StoragePostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("no migrations for storage backend %q", backend)
	}
}

func prepare(backend string) error {
	dialect, err := Dialect(backend)
	if err != nil {
		return err
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up applies every pending embedded migration.
func Up(ctx context.Context, db *sql.DB, backend string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := prepare(backend); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, Dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Run executes a standard goose command (up, down, status, redo, reset)
// against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, backend, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if err := prepare(backend); err != nil {
		return err
	}
	// RunContext prints status output through the goose logger
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, db *sql.DB, backend string) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	if err := prepare(backend); err != nil {
		return 0, err
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return version, nil
}
