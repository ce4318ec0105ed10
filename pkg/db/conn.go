// Package db opens the row store behind the todos and nurse resources. postgres:// URLs go
// through pgx, sqlite:// URLs (the default) through modernc.org/sqlite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const logPrefix = "db:conn"

// Dialect is the SQL flavour behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DB wraps *sql.DB with its dialect so repositories can rebind placeholders.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// ParseURL splits a DATABASE_URL into the dialect and the driver DSN.
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("%s - sqlite URL has no path", logPrefix)
		}
		return DialectSQLite, path, nil
	case databaseURL == "":
		return "", "", fmt.Errorf("%s - database URL is empty", logPrefix)
	default:
		return "", "", fmt.Errorf("%s - unsupported database URL scheme in %q (use postgres:// or sqlite://)", logPrefix, redact(databaseURL))
	}
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info(fmt.Sprintf("%s - connecting to %s database", logPrefix, dialect))

	var sqlDB *sql.DB
	switch dialect {
	case DialectPostgres:
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to open postgres: %w", logPrefix, err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(2)
	case DialectSQLite:
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%s - failed to create %s: %w", logPrefix, dir, err)
			}
		}
		sqlDB, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to open sqlite: %w", logPrefix, err)
		}
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - database connection established", logPrefix))
	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

// Rebind rewrites ? placeholders to $n for postgres.
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "@"); i >= 0 {
		if j := strings.Index(databaseURL, "://"); j >= 0 && j < i {
			return databaseURL[:j+3] + "***" + databaseURL[i:]
		}
	}
	return databaseURL
}
