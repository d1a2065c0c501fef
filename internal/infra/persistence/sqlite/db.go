package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"example.com/technotes/app/internal/infra/persistence/migrate"
)

// Open opens (or creates) a SQLite database and applies pending migrations.
// Use "file:<name>?mode=memory&cache=shared" for throwaway databases.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	d, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Up(ctx, d, migrate.SQLite); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("sqlite migrations: %w", err)
	}
	return d, nil
}

// Connect opens the database without touching the schema.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "technotes.db"
	}
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	// journal_mode is not supported for in-memory databases.
	_, _ = d.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if _, err := d.ExecContext(ctx, `PRAGMA busy_timeout=5000`); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
