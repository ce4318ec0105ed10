package db

import (
	"context"
	"fmt"
	"log/slog"
)

const clearLogPrefix = "db:clear"

// dataTables are the resource tables, children first.
var dataTables = []string{"health_checks", "todos"}

// Clear deletes every row from the resource tables; the schema is preserved. On postgres
// identities restart.
func (d *DB) Clear(ctx context.Context) error {
	slog.Info(fmt.Sprintf("%s - clearing resource tables", clearLogPrefix))

	if d.Dialect == DialectPostgres {
		if _, err := d.ExecContext(ctx, `TRUNCATE TABLE health_checks, todos RESTART IDENTITY CASCADE`); err != nil {
			return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
		}
		return nil
	}

	for _, table := range dataTables {
		if _, err := d.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%s - delete from %s failed: %w", clearLogPrefix, table, err)
		}
	}
	// AUTOINCREMENT counters live in sqlite_sequence
	if _, err := d.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name IN ('health_checks', 'todos')`); err != nil {
		slog.Debug(fmt.Sprintf("%s - sqlite_sequence reset skipped: %v", clearLogPrefix, err))
	}
	return nil
}
