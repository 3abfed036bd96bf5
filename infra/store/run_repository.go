package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlasgrid/geochange/core/model"
)

// RunRepo handles persistence of analysis runs.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo returns a repository backed by db.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Insert stores a completed run.
func (r *RunRepo) Insert(ctx context.Context, run model.Run) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (
			id, site, baseline_year, comparison_year, started_at, completed_at,
			total_points, total_changes, change_percentage, new_buildings,
			removed_buildings, geojson_path, visualization_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Site, run.BaselineYear, run.ComparisonYear,
		run.StartedAt.Unix(), run.CompletedAt.Unix(),
		run.Summary.TotalPoints, run.Summary.TotalChanges,
		run.Summary.ChangePercentage, run.Summary.NewBuildings,
		run.Summary.RemovedBuildings, run.GeoJSONPath, run.VisualizationPath,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. When site is non-empty the
// listing is restricted to that site.
func (r *RunRepo) List(ctx context.Context, site string, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, site, baseline_year, comparison_year, started_at,
		completed_at, total_points, total_changes, change_percentage,
		new_buildings, removed_buildings, geojson_path, visualization_path
		FROM runs`
	args := []any{}
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, site)
	}
	query += ` ORDER BY completed_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		var run model.Run
		var started, completed int64
		if err := rows.Scan(
			&run.ID, &run.Site, &run.BaselineYear, &run.ComparisonYear,
			&started, &completed, &run.Summary.TotalPoints,
			&run.Summary.TotalChanges, &run.Summary.ChangePercentage,
			&run.Summary.NewBuildings, &run.Summary.RemovedBuildings,
			&run.GeoJSONPath, &run.VisualizationPath,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.CompletedAt = time.Unix(completed, 0).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
