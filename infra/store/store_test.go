package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/atlasgrid/geochange/core/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "geochange.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestRunRepoInsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(testDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	runs := []model.Run{
		{
			ID: "r1", Site: "SRM", BaselineYear: "2021", ComparisonYear: "2023",
			StartedAt: now.Add(-2 * time.Minute), CompletedAt: now.Add(-time.Minute),
			Summary:     model.Summary{TotalPoints: 10, TotalChanges: 3, ChangePercentage: 30, NewBuildings: 2, RemovedBuildings: 1},
			GeoJSONPath: "g1", VisualizationPath: "v1",
		},
		{
			ID: "r2", Site: "Jindal", BaselineYear: "2021", ComparisonYear: "2023",
			StartedAt: now.Add(-time.Minute), CompletedAt: now,
			GeoJSONPath: "g2", VisualizationPath: "v2",
		},
	}
	for _, run := range runs {
		if err := repo.Insert(ctx, run); err != nil {
			t.Fatalf("insert %s: %v", run.ID, err)
		}
	}

	all, err := repo.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if all[0].ID != "r2" {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}

	srm, err := repo.List(ctx, "SRM", 0)
	if err != nil {
		t.Fatalf("list SRM: %v", err)
	}
	if len(srm) != 1 || srm[0].ID != "r1" {
		t.Fatalf("unexpected SRM runs %+v", srm)
	}
	got := srm[0]
	if got.Summary.TotalChanges != 3 || got.Summary.ChangePercentage != 30 {
		t.Fatalf("summary not round-tripped: %+v", got.Summary)
	}
	if !got.CompletedAt.Equal(now.Add(-time.Minute)) {
		t.Fatalf("completed_at not round-tripped: %v", got.CompletedAt)
	}
}

func TestRunRepoDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepo(testDB(t))
	run := model.Run{ID: "r1", Site: "SRM", StartedAt: time.Now(), CompletedAt: time.Now()}
	if err := repo.Insert(ctx, run); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(ctx, run); err == nil {
		t.Fatalf("expected primary key violation")
	}
}

func TestObservationRepoInsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewObservationRepo(testDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	obs := []model.Observation{
		{Site: "SRM", Latitude: 28.5, Longitude: 77.1, Presence: 1, Source: "drone", ObservedAt: now.Add(-time.Minute)},
		{Site: "SRM", Latitude: 28.6, Longitude: 77.2, Presence: 0, Source: "drone", ObservedAt: now},
		{Site: "Jindal", Latitude: 20.0, Longitude: 75.0, Presence: 1, ObservedAt: now},
	}
	for _, o := range obs {
		if err := repo.Insert(ctx, o); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	srm, err := repo.List(ctx, "SRM", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(srm) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(srm))
	}
	if srm[0].Latitude != 28.6 {
		t.Fatalf("expected newest first, got %+v", srm[0])
	}

	limited, err := repo.List(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied")
	}
}

func TestObservationRepoDefaultsObservedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewObservationRepo(testDB(t))
	if err := repo.Insert(ctx, model.Observation{Site: "SRM", Presence: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.List(ctx, "SRM", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ObservedAt.IsZero() {
		t.Fatalf("observed_at should be defaulted: %+v", got)
	}
}
