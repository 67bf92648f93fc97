// Package source fetches raw event listings from the upstream JSON
// endpoint and expands them into normalized domain events. This is the
// only upstream contract; there is no scrape fallback and no fabricated
// data on failure.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wienlist/event-aggregator/internal/domain"
	"github.com/wienlist/event-aggregator/internal/metrics"
	"github.com/wienlist/event-aggregator/internal/taxonomy"
)

var (
	// ErrSourceUnreachable marks a transport failure or non-success
	// response. Distinguishable from a true empty result; callers must
	// never cache it as a confirmed-empty day.
	ErrSourceUnreachable = errors.New("event source unreachable")

	// ErrNoFilterMapping means there was nothing to query. Benign: the
	// caller treats it as an immediate empty result.
	ErrNoFilterMapping = errors.New("no filter mapping for requested categories")
)

// allDaySentinel is the upstream convention for "no specific time": an
// occurrence timestamp exactly one second past midnight.
const allDaySentinel = "00:00:01"

const isoDate = "2006-01-02"

// rawItem is one listing as the upstream endpoint serves it. An item
// carries either a list of occurrence timestamps or a start/end range.
type rawItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Address     string   `json:"address,omitempty"`
	Dates       []string `json:"dates,omitempty"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	TimeFrom    string   `json:"timeFrom,omitempty"`
	TimeTo      string   `json:"timeTo,omitempty"`
	Tags        []int    `json:"tags"`
	Price       string   `json:"price,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	TicketURL   string   `json:"ticketUrl,omitempty"`
	WebsiteURL  string   `json:"websiteUrl,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
}

type listingResponse struct {
	Items []rawItem `json:"items"`
}

// Adapter issues bounded-timeout requests against the upstream listing
// endpoint. Calls are independent with one in-flight request each; an
// adapter is safe for concurrent use.
type Adapter struct {
	baseURL    string
	sourceTag  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAdapter creates an adapter for the given endpoint base URL.
func NewAdapter(baseURL string, timeout time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sourceTag: "city-events-api",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch returns the normalized events for one city inside the inclusive
// [fromISO, toISO] date window, scoped to the requested categories
// (empty means all). Transport and HTTP failures wrap
// ErrSourceUnreachable; a successful fetch that filters down to nothing
// is a valid empty result, not an error.
func (a *Adapter) Fetch(ctx context.Context, city, fromISO, toISO string, cats []domain.Category) ([]domain.Event, error) {
	ids := taxonomy.MapInternalToFilterIDs(cats)
	if len(ids) == 0 {
		return nil, ErrNoFilterMapping
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.listingURL(city, fromISO, toISO, ids), nil)
	if err != nil {
		return nil, fmt.Errorf("building listing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		metrics.SourceFetches.WithLabelValues("unreachable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		metrics.SourceFetches.WithLabelValues("unreachable").Inc()
		return nil, fmt.Errorf("%w: upstream returned %d", ErrSourceUnreachable, resp.StatusCode)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		metrics.SourceFetches.WithLabelValues("unreachable").Inc()
		return nil, fmt.Errorf("%w: decoding listing response: %v", ErrSourceUnreachable, err)
	}

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[int(id)] = struct{}{}
	}

	var events []domain.Event
	for _, item := range listing.Items {
		expanded, err := a.expand(item, city, fromISO, toISO, wanted)
		if err != nil {
			// One malformed item never aborts the batch.
			a.logger.Warn("skipping malformed upstream item",
				"item_id", item.ID,
				"title", item.Title,
				"error", err,
			)
			continue
		}
		events = append(events, expanded...)
	}

	if len(events) == 0 {
		metrics.SourceFetches.WithLabelValues("empty").Inc()
	} else {
		metrics.SourceFetches.WithLabelValues("ok").Inc()
	}
	return events, nil
}

// DiscoveryURL builds the human-readable upstream URL for a date range
// and resolved filter IDs. Diagnostic display only, never fetched.
func (a *Adapter) DiscoveryURL(fromISO, toISO string, ids []taxonomy.FilterID) string {
	return a.listingURL("", fromISO, toISO, ids)
}

func (a *Adapter) listingURL(city, fromISO, toISO string, ids []taxonomy.FilterID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	q.Set("from", fromISO)
	q.Set("to", toISO)
	q.Set("filters", strings.Join(parts, ","))
	return a.baseURL + "/events?" + q.Encode()
}

// expand turns one raw item into zero or more normalized events. An
// item with occurrence timestamps yields one event per in-window date;
// an item with only a start/end range yields a single event pinned to
// the window start.
func (a *Adapter) expand(item rawItem, city, fromISO, toISO string, wanted map[int]struct{}) ([]domain.Event, error) {
	if strings.TrimSpace(item.Title) == "" {
		return nil, errors.New("item has no title")
	}
	if !tagsIntersect(item.Tags, wanted) {
		return nil, nil
	}

	// The category is the normalizer-mapped value. It is never
	// overwritten with the requested category: a fetch scoped to one
	// category may legitimately return items the editors file elsewhere.
	category, _ := taxonomy.MapExternalToInternal(item.Category)

	base := domain.Event{
		Title:       strings.TrimSpace(item.Title),
		Category:    category,
		EndTime:     item.TimeTo,
		Venue:       strings.TrimSpace(item.Location),
		Address:     item.Address,
		Price:       item.Price,
		BookingURL:  item.TicketURL,
		WebsiteURL:  item.WebsiteURL,
		Source:      a.sourceTag,
		City:        city,
		Description: joinNonEmpty(item.Subtitle, item.Description),
		ImageURL:    item.ImageURL,
		Latitude:    item.Latitude,
		Longitude:   item.Longitude,
	}

	if len(item.Dates) > 0 {
		var events []domain.Event
		for _, ts := range item.Dates {
			date, eventTime, err := splitOccurrence(ts, item.TimeFrom)
			if err != nil {
				return nil, fmt.Errorf("parsing occurrence %q: %w", ts, err)
			}
			if date < fromISO || date > toISO {
				continue
			}
			ev := base
			ev.Date = date
			ev.Time = eventTime
			events = append(events, ev)
		}
		return events, nil
	}

	if item.StartDate == "" {
		return nil, errors.New("item has neither occurrence dates nor a start date")
	}
	startDate, startTime, err := splitOccurrence(item.StartDate, item.TimeFrom)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", item.StartDate, err)
	}
	endDate := startDate
	if item.EndDate != "" {
		endDate, _, err = splitOccurrence(item.EndDate, "")
		if err != nil {
			return nil, fmt.Errorf("parsing end date %q: %w", item.EndDate, err)
		}
	}
	if endDate < fromISO || startDate > toISO {
		return nil, nil
	}

	// A running range pins to the first requested day it covers rather
	// than fanning out over its whole span.
	ev := base
	ev.Date = fromISO
	if startDate > fromISO {
		ev.Date = startDate
	}
	ev.Time = startTime
	return []domain.Event{ev}, nil
}

// splitOccurrence separates an upstream timestamp into its ISO date and
// event time. An explicit timeFrom wins over the timestamp's own time
// part; the 00:00:01 sentinel maps to the all-day marker, distinct from
// a genuine midnight start.
func splitOccurrence(ts, timeFrom string) (string, domain.EventTime, error) {
	t, err := parseUpstreamTimestamp(ts)
	if err != nil {
		return "", domain.EventTime{}, err
	}
	date := t.Format(isoDate)

	if timeFrom != "" {
		return date, domain.Timed(timeFrom), nil
	}
	if t.Format("15:04:05") == allDaySentinel {
		return date, domain.AllDay(), nil
	}
	return date, domain.Timed(t.Format("15:04")), nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	isoDate,
}

func parseUpstreamTimestamp(ts string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format %q", ts)
}

func tagsIntersect(tags []int, wanted map[int]struct{}) bool {
	for _, tag := range tags {
		if _, ok := wanted[tag]; ok {
			return true
		}
	}
	return false
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, " - ")
}
