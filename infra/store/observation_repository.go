package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlasgrid/geochange/core/model"
)

// ObservationRepo handles persistence of live observations.
type ObservationRepo struct {
	db *sql.DB
}

// NewObservationRepo returns a repository backed by db.
func NewObservationRepo(db *sql.DB) *ObservationRepo {
	return &ObservationRepo{db: db}
}

// Insert stores one observation.
func (r *ObservationRepo) Insert(ctx context.Context, o model.Observation) error {
	observedAt := o.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO observations (site, latitude, longitude, presence, source, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.Site, o.Latitude, o.Longitude, o.Presence, o.Source, observedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert observation for site %s: %w", o.Site, err)
	}
	return nil
}

// List returns the most recent observations, newest first. When site is
// non-empty the listing is restricted to that site.
func (r *ObservationRepo) List(ctx context.Context, site string, limit int) ([]model.Observation, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT site, latitude, longitude, presence, source, observed_at FROM observations`
	args := []any{}
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY observed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	obs := []model.Observation{}
	for rows.Next() {
		var o model.Observation
		var observedAt int64
		if err := rows.Scan(&o.Site, &o.Latitude, &o.Longitude, &o.Presence, &o.Source, &observedAt); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.ObservedAt = time.Unix(observedAt, 0).UTC()
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}
	return obs, nil
}
