// Package migrate applies the versioned schema files embedded under
// migrations/<dialect>. Files follow the pattern
//
//	0001_name.up.sql / 0001_name.down.sql
//
// and applied versions are tracked in schema_migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strings"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect selects the migration directory and the bind parameter syntax.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
}

var (
	SQLite   = Dialect{Name: "sqlite", Placeholder: func(int) string { return "?" }}
	MySQL    = Dialect{Name: "mysql", Placeholder: func(int) string { return "?" }}
	Postgres = Dialect{Name: "postgres", Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) }}
)

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// Up applies every migration that is not yet recorded, in version order.
// Each migration runs in its own transaction.
func Up(ctx context.Context, db *sql.DB, d Dialect) (int, error) {
	migs, err := load(d)
	if err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return 0, err
	}

	versions := make([]int, 0, len(migs))
	for v := range migs {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	count := 0
	for _, v := range versions {
		if applied[v] {
			continue
		}
		m := migs[v]
		if m.upFile == "" {
			return count, fmt.Errorf("missing up migration for version %04d", v)
		}
		insert := fmt.Sprintf(`INSERT INTO schema_migrations(version) VALUES(%s)`, d.Placeholder(1))
		if err := run(ctx, db, m.upFile, insert, v); err != nil {
			return count, fmt.Errorf("migration %04d_%s failed: %w", v, m.name, err)
		}
		count++
	}
	return count, nil
}

// RollbackLast reverts the most recently applied migration. It is a no-op
// when nothing has been applied.
func RollbackLast(ctx context.Context, db *sql.DB, d Dialect) (int, error) {
	if db == nil {
		return 0, errors.New("nil db")
	}
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}
	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	migs, err := load(d)
	if err != nil {
		return 0, err
	}
	m, ok := migs[version]
	if !ok || m.downFile == "" {
		return 0, fmt.Errorf("no down migration found for version %d", version)
	}
	del := fmt.Sprintf(`DELETE FROM schema_migrations WHERE version = %s`, d.Placeholder(1))
	if err := run(ctx, db, m.downFile, del, version); err != nil {
		return 0, fmt.Errorf("rollback %04d_%s failed: %w", version, m.name, err)
	}
	return version, nil
}

// Versions lists the migration versions shipped for a dialect, ascending.
// Every version must have an up and a down file.
func Versions(d Dialect) ([]int, error) {
	migs, err := load(d)
	if err != nil {
		return nil, err
	}
	versions := make([]int, 0, len(migs))
	for v, m := range migs {
		if m.upFile == "" || m.downFile == "" {
			return nil, fmt.Errorf("migration %04d_%s is missing its up or down file", v, m.name)
		}
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

func run(ctx context.Context, db *sql.DB, file, bookkeeping string, version int) error {
	text, err := migrationsFS.ReadFile(file)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range splitStatements(string(text)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// splitStatements breaks a file on semicolons. MySQL rejects multi-statement
// Exec calls unless the DSN opts in, so every dialect runs one at a time.
func splitStatements(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func load(d Dialect) (map[int]migration, error) {
	dir := "migrations/" + d.Name
	list, err := stdfs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("unknown migration dialect %q: %w", d.Name, err)
	}
	entries := map[int]migration{}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		var ver int
		if _, err := fmt.Sscanf(m[1], "%04d", &ver); err != nil {
			continue
		}
		item := entries[ver]
		item.version = ver
		item.name = m[2]
		p := dir + "/" + de.Name()
		if m[3] == "up" {
			item.upFile = p
		} else {
			item.downFile = p
		}
		entries[ver] = item
	}
	return entries, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	return err
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		got[v] = true
	}
	return got, rows.Err()
}
