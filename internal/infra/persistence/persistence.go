// Package persistence wires the configured database driver to the domain
// repositories.
package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"example.com/technotes/app/internal/config"
	domnote "example.com/technotes/app/internal/domain/note"
	domuser "example.com/technotes/app/internal/domain/user"
	"example.com/technotes/app/internal/infra/persistence/migrate"
	"example.com/technotes/app/internal/infra/persistence/mysql"
	"example.com/technotes/app/internal/infra/persistence/postgres"
	"example.com/technotes/app/internal/infra/persistence/sqlite"
	"example.com/technotes/app/internal/infra/persistence/sqlstore"
)

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Users domuser.Repository
	Notes domnote.Repository

	driver string
	ping   func(ctx context.Context) error
	close  func()
	sqlDB  func() *sql.DB
}

// Open connects to the configured backend and applies pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	s, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Connect opens the configured backend without touching the schema.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Connect(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return newSQLStore(cfg.Driver, db), nil
	case config.DriverMySQL:
		db, err := mysql.Connect(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		return newSQLStore(cfg.Driver, db), nil
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return newPgStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func newSQLStore(driver string, db *sql.DB) *Store {
	return &Store{
		Users:  sqlstore.NewUserRepository(db),
		Notes:  sqlstore.NewNoteRepository(db),
		driver: driver,
		ping:   db.PingContext,
		close:  func() { _ = db.Close() },
		sqlDB:  func() *sql.DB { return db },
	}
}

func newPgStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:  postgres.NewUserRepository(pool),
		Notes:  postgres.NewNoteRepository(pool),
		driver: config.DriverPostgres,
		ping:   pool.Ping,
		close:  pool.Close,
		sqlDB:  func() *sql.DB { return stdlib.OpenDBFromPool(pool) },
	}
}

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Store) Close() { s.close() }

// Migrate applies pending migrations and returns how many ran.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	db := s.sqlDB()
	if s.driver == config.DriverPostgres {
		defer db.Close()
	}
	n, err := migrate.Up(ctx, db, dialectFor(s.driver))
	if err != nil {
		return n, fmt.Errorf("%s migrations: %w", s.driver, err)
	}
	return n, nil
}

// Rollback reverts the last applied migration and returns its version,
// or 0 when there was nothing to revert.
func (s *Store) Rollback(ctx context.Context) (int, error) {
	db := s.sqlDB()
	if s.driver == config.DriverPostgres {
		defer db.Close()
	}
	return migrate.RollbackLast(ctx, db, dialectFor(s.driver))
}

func dialectFor(driver string) migrate.Dialect {
	switch driver {
	case config.DriverMySQL:
		return migrate.MySQL
	case config.DriverPostgres:
		return migrate.Postgres
	default:
		return migrate.SQLite
	}
}
