// Package enrich scrapes venue detail pages for address and contact
// metadata. Enrichment is best-effort and runs out-of-band from the
// event read path: a venue whose page cannot be fetched still yields a
// minimal record, and one bad venue never blocks the batch.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/wienlist/event-aggregator/internal/domain"
	"github.com/wienlist/event-aggregator/internal/metrics"
)

// VenueRef names one venue and the detail page to scrape for it.
type VenueRef struct {
	VenueName string `json:"venueName"`
	DetailURL string `json:"detailUrl"`
}

// Enricher runs venue scrapes through a fixed-size worker pool over one
// shared FIFO queue. Retries are local to a unit; there is no
// cross-unit cancellation beyond the batch context.
type Enricher struct {
	httpClient  *http.Client
	logger      *slog.Logger
	concurrency int
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	city        string
	country     string
}

// NewEnricher creates an enricher with the given worker count and
// inter-dispatch politeness delay.
func NewEnricher(concurrency int, delay time.Duration, city string, logger *slog.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 2
	}
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Enricher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:      logger,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(rate.Every(delay), 1),
		maxAttempts: 3,
		backoff:     2 * time.Second,
		city:        city,
		country:     "Austria",
	}
}

// BatchEnrich scrapes every referenced venue and returns the records
// keyed by venue name. Refs are deduplicated by name first. The call
// always completes: fetch exhaustion degrades to a minimal record with
// name, city, and country only.
func (e *Enricher) BatchEnrich(ctx context.Context, refs []VenueRef) map[string]domain.VenueRecord {
	unique := dedupeRefs(refs)

	jobs := make(chan VenueRef)
	type outcome struct {
		name   string
		record domain.VenueRecord
	}
	results := make(chan outcome, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range jobs {
				results <- outcome{name: ref.VenueName, record: e.enrichOne(ctx, ref)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, ref := range unique {
			select {
			case jobs <- ref:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make(map[string]domain.VenueRecord, len(unique))
	for out := range results {
		records[out.name] = out.record
	}
	return records
}

// enrichOne fetches and parses a single detail page, retrying with
// doubling backoff before settling for a minimal record.
func (e *Enricher) enrichOne(ctx context.Context, ref VenueRef) domain.VenueRecord {
	doc, err := e.fetchWithRetry(ctx, ref.DetailURL)
	if err != nil {
		e.logger.Warn("enrichment degraded to minimal record",
			"venue", ref.VenueName,
			"url", ref.DetailURL,
			"error", err,
		)
		metrics.EnrichResults.WithLabelValues("minimal").Inc()
		return e.minimalRecord(ref.VenueName)
	}

	record := extractVenue(doc, ref.VenueName, e.city, e.country)
	metrics.EnrichResults.WithLabelValues("enriched").Inc()
	return record
}

func (e *Enricher) minimalRecord(name string) domain.VenueRecord {
	return domain.VenueRecord{
		Name:    name,
		City:    e.city,
		Country: e.country,
		Slug:    domain.Slugify(name),
	}
}

func (e *Enricher) fetchWithRetry(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	delay := e.backoff
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		// Politeness delay shared across worker slots.
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		doc, err := e.fetchPage(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		e.logger.Debug("detail fetch failed",
			"url", url,
			"attempt", attempt,
			"error", err,
		)
	}
	return nil, fmt.Errorf("after %d attempts: %w", e.maxAttempts, lastErr)
}

func (e *Enricher) fetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building detail request: %w", err)
	}
	// Venue sites routinely reject bare default clients.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.6")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching detail page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("detail page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing detail page: %w", err)
	}
	return doc, nil
}

func dedupeRefs(refs []VenueRef) []VenueRef {
	seen := make(map[string]struct{}, len(refs))
	var unique []VenueRef
	for _, ref := range refs {
		if ref.VenueName == "" {
			continue
		}
		if _, ok := seen[ref.VenueName]; ok {
			continue
		}
		seen[ref.VenueName] = struct{}{}
		unique = append(unique, ref)
	}
	return unique
}
