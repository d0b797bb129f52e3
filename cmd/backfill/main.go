package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alandyousif/safar/internal/adapters/planner"
	"github.com/alandyousif/safar/internal/adapters/postgres"
	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/usecases"
	"github.com/alandyousif/safar/internal/pkg/config"
)

// backfill pulls previously generated plans from the upstream planner,
// runs them through normalization and location resolution, and persists
// them so the history endpoint has data from day one.
func main() {
	cfg, err := config.Load("safar-backfill")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewPlanRepo(db)

	client := planner.New(cfg.Planner.BaseURL, &http.Client{
		Timeout: time.Duration(cfg.Planner.TimeoutSeconds) * time.Second,
	})

	raw, err := client.FetchExistingPlans(ctx)
	if err != nil {
		log.Fatalf("fetch existing plans: %v", err)
	}

	itins, shape := usecases.NormalizeItineraries(raw)
	if len(itins) == 0 {
		log.Println("no plans upstream, nothing to backfill")
		return
	}

	if shape.NeedsLocationResolution() {
		// Each plan resolves against its own job's lookup.
		resolved := make([]domain.Itinerary, 0, len(itins))
		for _, it := range itins {
			code := it.Code
			if code == "" {
				code = "EXAMPLE_CODE"
			}
			entries, err := client.FetchLocationLookup(ctx, code)
			if err != nil {
				log.Printf("WARN lookup %s: %v", code, err)
			}
			out := usecases.ResolveLocations([]domain.Itinerary{it}, entries)
			resolved = append(resolved, out...)
		}
		itins = resolved
	}

	// Optional CLI arg: only backfill the named job codes
	codeFilter := map[string]bool{}
	if len(os.Args) > 1 {
		for _, c := range strings.Split(os.Args[1], ",") {
			codeFilter[strings.TrimSpace(c)] = true
		}
	}

	saved := 0
	for _, it := range itins {
		if len(codeFilter) > 0 && !codeFilter[it.Code] {
			continue
		}
		stored := &domain.StoredPlan{
			JobCode:     it.Code,
			Destination: guessDestination(it),
			Itineraries: []domain.Itinerary{it},
		}
		if err := repo.Save(ctx, stored); err != nil {
			log.Printf("ERROR save %s: %v", it.Code, err)
			continue
		}
		saved++
	}

	log.Printf("backfill complete: %d plans saved", saved)
}

// guessDestination picks the most common location name as a stand-in; the
// upstream history payload does not carry the original request.
func guessDestination(it domain.Itinerary) string {
	counts := map[string]int{}
	for _, day := range it.Days {
		for _, row := range day.Rows {
			if row.Location != "" {
				counts[row.Location]++
			}
		}
	}
	best, bestN := "", 0
	for loc, n := range counts {
		if n > bestN {
			best, bestN = loc, n
		}
	}
	if best == "" {
		return "unknown"
	}
	return best
}
