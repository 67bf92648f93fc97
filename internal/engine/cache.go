// Package engine holds the read path: the two-tier Redis cache and the
// deduplicator that folds category shards into a unique event set.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/wienlist/event-aggregator/internal/domain"
	"github.com/wienlist/event-aggregator/internal/metrics"
	"github.com/wienlist/event-aggregator/internal/source"
	"github.com/wienlist/event-aggregator/internal/taxonomy"
)

// Fetcher is the upstream adapter surface the cache populates shards
// from on a miss.
type Fetcher interface {
	Fetch(ctx context.Context, city, fromISO, toISO string, cats []domain.Category) ([]domain.Event, error)
}

// cacheEntry is the stored value for both tiers: a once-valid snapshot
// plus its write timestamp. Entries are whole-value replacements and
// expire only via their Redis TTL; freshness of individual events is
// re-evaluated on every read instead.
type cacheEntry struct {
	Events    []domain.Event `json:"events"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// TieredCache reads day buckets first and falls back to per-category
// shards, fetching from the source adapter on a shard miss. The day
// bucket is a pure optimization: its absence changes the cost of a
// read, never the result set.
type TieredCache struct {
	client   *redis.Client
	fetcher  Fetcher
	logger   *slog.Logger
	dayTTL   time.Duration
	shardTTL time.Duration
	now      func() time.Time
}

func NewTieredCache(client *redis.Client, fetcher Fetcher, dayTTL, shardTTL time.Duration, logger *slog.Logger) *TieredCache {
	return &TieredCache{
		client:   client,
		fetcher:  fetcher,
		logger:   logger,
		dayTTL:   dayTTL,
		shardTTL: shardTTL,
		now:      time.Now,
	}
}

func dayKey(city, date string) string {
	return fmt.Sprintf("events:day:%s:%s", city, date)
}

func shardKey(city, date string, cat domain.Category) string {
	return fmt.Sprintf("events:shard:%s:%s:%s", city, date, domain.Slugify(string(cat)))
}

// Events returns the deduplicated, freshness-filtered events for one
// city and date, scoped to the requested categories (empty means all).
// Reads are synchronous; a tier-2 miss triggers an explicit upstream
// fetch whose failure is returned to the caller and never cached.
func (c *TieredCache) Events(ctx context.Context, city, date string, cats []domain.Category) ([]domain.Event, error) {
	if entry, ok := c.readEntry(ctx, dayKey(city, date)); ok && len(entry.Events) > 0 {
		metrics.CacheReads.WithLabelValues("day", "hit").Inc()
		return c.filterView(entry.Events, cats), nil
	}
	metrics.CacheReads.WithLabelValues("day", "miss").Inc()

	requested := cats
	if len(requested) == 0 {
		requested = taxonomy.Categories()
	}

	var shards [][]domain.Event
	for _, cat := range requested {
		events, err := c.readShard(ctx, city, date, cat)
		if err != nil {
			return nil, err
		}
		shards = append(shards, events)
	}

	merged := Merge(shards...)

	// The day bucket holds the full deduplicated set, so only an
	// all-categories recomputation may write it. A whole-value
	// replacement of a confirmed-empty day is a valid snapshot and
	// cacheable; only an unreachable source is not.
	if len(cats) == 0 {
		c.writeEntry(ctx, dayKey(city, date), merged, c.dayTTL)
	}

	return c.filterView(merged, cats), nil
}

// readShard returns one category shard, populating it from the source
// adapter on a miss. Shards hold normalized, not-yet-deduplicated
// events and expire independently.
func (c *TieredCache) readShard(ctx context.Context, city, date string, cat domain.Category) ([]domain.Event, error) {
	key := shardKey(city, date, cat)
	if entry, ok := c.readEntry(ctx, key); ok {
		metrics.CacheReads.WithLabelValues("shard", "hit").Inc()
		return entry.Events, nil
	}
	metrics.CacheReads.WithLabelValues("shard", "miss").Inc()

	events, err := c.fetcher.Fetch(ctx, city, date, date, []domain.Category{cat})
	if err != nil {
		if errors.Is(err, source.ErrNoFilterMapping) {
			// Nothing to query for this category. Benign empty result.
			return nil, nil
		}
		// SourceUnreachable propagates as-is on every read and must not
		// be written as a confirmed-empty shard.
		return nil, fmt.Errorf("populating shard for %q: %w", cat, err)
	}

	c.writeEntry(ctx, key, events, c.shardTTL)
	return events, nil
}

func (c *TieredCache) readEntry(ctx context.Context, key string) (cacheEntry, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Treat a Redis failure as a miss rather than an outage.
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *TieredCache) writeEntry(ctx context.Context, key string, events []domain.Event, ttl time.Duration) {
	entry := cacheEntry{Events: events, FetchedAt: c.now().UTC()}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("marshaling cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// filterView applies the per-read filters: freshness always, category
// scoping when requested. Unmapped events (empty category) survive only
// the unscoped view. Both tiers run through here, which keeps a forced
// tier-1 miss set-equivalent to a warm tier-1 read.
func (c *TieredCache) filterView(events []domain.Event, cats []domain.Category) []domain.Event {
	wanted := make(map[domain.Category]struct{}, len(cats))
	for _, cat := range cats {
		wanted[cat] = struct{}{}
	}

	now := c.now()
	var out []domain.Event
	for _, ev := range events {
		if isPast(ev, now) {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[ev.Category]; !ok {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

// isPast reports whether the event's occurrence lies strictly before
// now. All-day events stay visible for their whole date.
func isPast(ev domain.Event, now time.Time) bool {
	today := now.Format("2006-01-02")
	if ev.Date != today {
		return ev.Date < today
	}
	if ev.Time.AllDay {
		return false
	}
	return ev.Time.Start != "" && ev.Time.Start < now.Format("15:04")
}
