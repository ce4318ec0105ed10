package db

import (
	"context"
	"fmt"
	"time"
)

const healthChecksLogPrefix = "db:healthchecks"

// HealthCheckRepository is the health_checks table.
type HealthCheckRepository struct {
	db  *DB
	now func() time.Time
}

// NewHealthCheckRepository creates a new HealthCheckRepository.
func NewHealthCheckRepository(d *DB) *HealthCheckRepository {
	return &HealthCheckRepository{db: d, now: time.Now}
}

// Add records a check of site stamped with the current time and returns its id.
func (r *HealthCheckRepository) Add(ctx context.Context, site string, healthy bool) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO health_checks (site, healthy, checked_at) VALUES (?, ?, ?) RETURNING id`),
		site, healthy, r.now().UTC().Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s - failed to insert health check: %w", healthChecksLogPrefix, err)
	}
	return id, nil
}

// List returns every health check ordered by id.
func (r *HealthCheckRepository) List(ctx context.Context) ([]HealthCheck, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, site, healthy, checked_at FROM health_checks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list health checks: %w", healthChecksLogPrefix, err)
	}
	defer rows.Close()

	checks := []HealthCheck{}
	for rows.Next() {
		var (
			hc        HealthCheck
			checkedAt string
		)
		if err := rows.Scan(&hc.ID, &hc.Site, &hc.Healthy, &checkedAt); err != nil {
			return nil, fmt.Errorf("%s - scan: %w", healthChecksLogPrefix, err)
		}
		hc.CheckedAt, err = time.Parse(time.RFC3339Nano, checkedAt)
		if err != nil {
			return nil, fmt.Errorf("%s - bad checked_at %q on %d: %w", healthChecksLogPrefix, checkedAt, hc.ID, err)
		}
		checks = append(checks, hc)
	}
	return checks, rows.Err()
}

// Delete removes id.
func (r *HealthCheckRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "health_checks", id)
}
