// Command enricher runs one out-of-band venue enrichment batch: it
// reads venue references from a JSON file, scrapes their detail pages
// through the bounded worker pool, and upserts the resulting records
// into the venue store.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/goccy/go-json"

	"github.com/wienlist/event-aggregator/internal/config"
	"github.com/wienlist/event-aggregator/internal/enrich"
	"github.com/wienlist/event-aggregator/internal/store"
)

func main() {
	input := flag.String("input", "venues.json", "JSON file with [{venueName, detailUrl}] references")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	refs, err := loadRefs(*input)
	if err != nil {
		logger.Error("failed to load venue references", "input", *input, "error", err)
		os.Exit(1)
	}
	if len(refs) == 0 {
		logger.Info("nothing to enrich", "input", *input)
		return
	}

	ctx := context.Background()
	pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.RunMigrations(ctx, "migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	enricher := enrich.NewEnricher(cfg.EnrichConcurrency, cfg.EnrichDelay, cfg.City, logger)

	logger.Info("enrichment batch starting", "venues", len(refs), "concurrency", cfg.EnrichConcurrency)
	records := enricher.BatchEnrich(ctx, refs)

	saved, failed := 0, 0
	for name, record := range records {
		if err := pgStore.UpsertVenue(ctx, record); err != nil {
			logger.Error("failed to upsert venue", "venue", name, "error", err)
			failed++
			continue
		}
		saved++
	}

	logger.Info("enrichment batch finished",
		"found", len(records),
		"saved", saved,
		"failed", failed,
	)
}

func loadRefs(path string) ([]enrich.VenueRef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var refs []enrich.VenueRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}
