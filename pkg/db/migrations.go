package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

const migrationsLogPrefix = "db:migrations"

//go:embed migrations
var embedded embed.FS

// Migration is one forward-only SQL file.
type Migration struct {
	Name string
	SQL  string
}

// MigrationStatus summarises which migrations have been applied.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

// LoadMigrationFiles reads all .sql files from dir, sorted by name.
func LoadMigrationFiles(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, p, err)
		}
		out = append(out, Migration{Name: name, SQL: string(data)})
	}
	slog.Info(fmt.Sprintf("%s - loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}

// EmbeddedMigrations returns the migrations compiled into the binary for dialect.
func EmbeddedMigrations(dialect Dialect) ([]Migration, error) {
	dir := path.Join("migrations", string(dialect))
	entries, err := fs.ReadDir(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("%s - no embedded migrations for %s: %w", migrationsLogPrefix, dialect, err)
	}

	out := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := fs.ReadFile(embedded, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read embedded %s: %w", migrationsLogPrefix, e.Name(), err)
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(data)})
	}
	return out, nil
}

// Migrations picks the migration set: the .sql files under dir/<dialect> or dir when a
// directory is configured, the embedded set otherwise.
func (d *DB) Migrations(dir string) ([]Migration, error) {
	if dir == "" {
		return EmbeddedMigrations(d.Dialect)
	}
	if sub := filepath.Join(dir, string(d.Dialect)); isDir(sub) {
		return LoadMigrationFiles(sub)
	}
	return LoadMigrationFiles(dir)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// RunMigrations applies every migration not yet recorded in schema_migrations, in order,
// each inside its own transaction.
func (d *DB) RunMigrations(ctx context.Context, migrations []Migration) error {
	slog.Info(fmt.Sprintf("%s - running %d migrations", migrationsLogPrefix, len(migrations)))

	if _, err := d.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("%s - failed to create schema_migrations: %w", migrationsLogPrefix, err)
	}
	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Name] {
			continue
		}
		tx, err := d.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s - failed to begin %s: %w", migrationsLogPrefix, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s - migration %s failed: %w", migrationsLogPrefix, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, d.Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`),
			m.Name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%s - failed to record %s: %w", migrationsLogPrefix, m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%s - failed to commit %s: %w", migrationsLogPrefix, m.Name, err)
		}
		slog.Info(fmt.Sprintf("%s - applied %s", migrationsLogPrefix, m.Name))
	}

	slog.Info(fmt.Sprintf("%s - migrations complete", migrationsLogPrefix))
	return nil
}

// Status reports applied and pending migrations without changing anything.
func (d *DB) Status(ctx context.Context, migrations []Migration) (*MigrationStatus, error) {
	if _, err := d.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("%s - failed to create schema_migrations: %w", migrationsLogPrefix, err)
	}
	applied, err := d.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status := &MigrationStatus{}
	for _, m := range migrations {
		if applied[m.Name] {
			status.Applied = append(status.Applied, m.Name)
		} else {
			status.Pending = append(status.Pending, m.Name)
		}
	}
	return status, nil
}

func (d *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := d.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list applied migrations: %w", migrationsLogPrefix, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s - scan: %w", migrationsLogPrefix, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
