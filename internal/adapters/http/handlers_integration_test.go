//go:build integration
// +build integration

package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alandyousif/safar/internal/adapters/postgres"
	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("safar-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM plans`); err != nil {
		t.Fatalf("clear plans: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return db
}

func TestPlanRepo_SaveAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewPlanRepo(db)
	ctx := context.Background()

	lat, lon := 36.19, 44.01
	stored := &domain.StoredPlan{
		JobCode:     "ITEST1",
		Destination: "Erbil",
		Itineraries: []domain.Itinerary{{
			Code: "ITEST1",
			Days: []domain.Day{{
				Label: "Day 1",
				Rows: []domain.Row{{
					Activity:  "Citadel tour",
					Location:  "Erbil Citadel",
					Latitude:  &lat,
					Longitude: &lon,
				}},
			}},
		}},
	}

	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected generated ID")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}

	plans, total, err := repo.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(plans) != 1 {
		t.Fatalf("expected 1 plan, got %d (total %d)", len(plans), total)
	}

	got := plans[0]
	if got.JobCode != "ITEST1" || got.Destination != "Erbil" {
		t.Errorf("unexpected plan: %+v", got)
	}
	rows := got.Itineraries[0].Days[0].Rows
	if len(rows) != 1 || rows[0].Latitude == nil || *rows[0].Latitude != 36.19 {
		t.Errorf("itinerary document did not round-trip: %+v", rows)
	}
}

func TestPlanRepo_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewPlanRepo(db)
	ctx := context.Background()

	for _, code := range []string{"A", "B", "C"} {
		p := &domain.StoredPlan{JobCode: code, Destination: "Erbil", Itineraries: []domain.Itinerary{}}
		if err := repo.Save(ctx, p); err != nil {
			t.Fatalf("save %s: %v", code, err)
		}
	}

	plans, total, err := repo.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(plans) != 1 {
		t.Errorf("expected 1 plan in page, got %d", len(plans))
	}
}
