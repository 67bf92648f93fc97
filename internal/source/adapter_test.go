package source

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/wienlist/event-aggregator/internal/domain"
	"github.com/wienlist/event-aggregator/internal/taxonomy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAdapter(srv.URL, 2*time.Second, testLogger())
}

func serveListing(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetch_MultiDateExpansion(t *testing.T) {
	// Three occurrence timestamps, two inside the window: exactly two
	// events sharing title, venue, and category.
	adapter := newTestAdapter(t, serveListing(`{
		"items": [{
			"id": "e1",
			"title": "Jazz Abend",
			"category": "Rock, Pop, Jazz",
			"location": "Porgy & Bess",
			"dates": [
				"2026-09-04T20:30:00",
				"2026-09-05T20:30:00",
				"2026-09-12T20:30:00"
			],
			"tags": [14]
		}]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-04", "2026-09-06",
		[]domain.Category{taxonomy.LiveKonzerte})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 expanded events, got %d", len(events))
	}

	wantDates := []string{"2026-09-04", "2026-09-05"}
	for i, ev := range events {
		if ev.Title != "Jazz Abend" || ev.Venue != "Porgy & Bess" {
			t.Errorf("event %d lost shared fields: %+v", i, ev)
		}
		if ev.Category != taxonomy.LiveKonzerte {
			t.Errorf("event %d category = %q, want %q", i, ev.Category, taxonomy.LiveKonzerte)
		}
		if ev.Date != wantDates[i] {
			t.Errorf("event %d date = %q, want %q", i, ev.Date, wantDates[i])
		}
		if ev.Time.AllDay || ev.Time.Start != "20:30" {
			t.Errorf("event %d time = %+v, want timed 20:30", i, ev.Time)
		}
	}
}

func TestFetch_RangePinsToRequestedDay(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [{
			"id": "r1",
			"title": "Herbstausstellung",
			"category": "Ausstellungen",
			"location": "Albertina",
			"startDate": "2026-08-20T10:00:00",
			"endDate": "2026-11-01T18:00:00",
			"tags": [18]
		}]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05",
		[]domain.Category{taxonomy.KulturTheater})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("range item should yield one pinned event, got %d", len(events))
	}
	if events[0].Date != "2026-09-05" {
		t.Errorf("pinned date = %q, want requested day", events[0].Date)
	}
}

func TestFetch_RangeStartingMidWindowPinsToStartDate(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [{
			"id": "r2",
			"title": "Filmfestival",
			"category": "Ausstellungen",
			"location": "Rathausplatz",
			"startDate": "2026-09-07T19:00:00",
			"endDate": "2026-09-12T23:00:00",
			"tags": [18]
		}]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-10",
		[]domain.Category{taxonomy.KulturTheater})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("range item should yield one pinned event, got %d", len(events))
	}
	// Pinning to the window start would place the event before it begins.
	if events[0].Date != "2026-09-07" {
		t.Errorf("pinned date = %q, want the range's start date", events[0].Date)
	}
}

func TestFetch_AllDaySentinel(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [
			{
				"id": "a1",
				"title": "Flohmarkt",
				"category": "Märkte, Messen",
				"location": "Naschmarkt",
				"dates": ["2026-09-05T00:00:01"],
				"tags": [22]
			},
			{
				"id": "a2",
				"title": "Mitternachtsparty",
				"category": "Party, Club & Discos",
				"location": "Flex",
				"dates": ["2026-09-05T00:00:00"],
				"tags": [12]
			}
		]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	byTitle := map[string]domain.Event{}
	for _, ev := range events {
		byTitle[ev.Title] = ev
	}

	if ev := byTitle["Flohmarkt"]; !ev.Time.AllDay {
		t.Errorf("00:00:01 sentinel should map to all-day, got %+v", ev.Time)
	}
	if ev := byTitle["Mitternachtsparty"]; ev.Time.AllDay || ev.Time.Start != "00:00" {
		t.Errorf("genuine midnight event should stay timed 00:00, got %+v", ev.Time)
	}
}

func TestFetch_ExplicitTimeFromWins(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [{
			"id": "t1",
			"title": "Konzert",
			"category": "Klassische Konzerte",
			"location": "Musikverein",
			"dates": ["2026-09-05T00:00:01"],
			"timeFrom": "19:30",
			"tags": [15]
		}]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Time.AllDay || events[0].Time.Start != "19:30" {
		t.Errorf("explicit timeFrom should win over the sentinel, got %+v", events[0].Time)
	}
}

func TestFetch_TagFiltering(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [
			{
				"id": "k1",
				"title": "Klavierabend",
				"category": "Klassische Konzerte",
				"location": "Konzerthaus",
				"dates": ["2026-09-05T19:00:00"],
				"tags": [15]
			},
			{
				"id": "s1",
				"title": "Stadtlauf",
				"category": "Sport & Bewegung",
				"location": "Prater",
				"dates": ["2026-09-05T09:00:00"],
				"tags": [24]
			}
		]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05",
		[]domain.Category{taxonomy.LiveKonzerte})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Klavierabend" {
		t.Fatalf("tag filter should keep only the concert, got %+v", events)
	}
}

// The event category stays the normalizer-mapped value even when the
// fetch was scoped to a different category.
func TestFetch_CategoryNotOverwrittenByRequest(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [{
			"id": "c1",
			"title": "Clubnacht",
			"category": "Party, Club & Discos",
			"location": "Grelle Forelle",
			"dates": ["2026-09-05T23:00:00"],
			"tags": [12]
		}]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05",
		[]domain.Category{taxonomy.Partys})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != taxonomy.ClubsDiscos {
		t.Errorf("category = %q, want the mapped value %q, not the requested one",
			events[0].Category, taxonomy.ClubsDiscos)
	}
}

func TestFetch_MalformedItemSkipped(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{
		"items": [
			{
				"id": "bad1",
				"title": "",
				"category": "Kulinarik",
				"location": "Irgendwo",
				"dates": ["2026-09-05T12:00:00"],
				"tags": [21]
			},
			{
				"id": "bad2",
				"title": "Ohne Termin",
				"category": "Kulinarik",
				"location": "Irgendwo",
				"tags": [21]
			},
			{
				"id": "ok1",
				"title": "Weinverkostung",
				"category": "Kulinarik",
				"location": "Heuriger Mayer",
				"dates": ["2026-09-05T17:00:00"],
				"tags": [21]
			}
		]
	}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05", nil)
	if err != nil {
		t.Fatalf("malformed items must not abort the batch: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Weinverkostung" {
		t.Fatalf("expected only the valid item to survive, got %+v", events)
	}
}

func TestFetch_SourceUnreachable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}},
		{"garbage body", serveListing(`<html>maintenance</html>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newTestAdapter(t, tt.handler)
			_, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05", nil)
			if !errors.Is(err, ErrSourceUnreachable) {
				t.Errorf("expected ErrSourceUnreachable, got %v", err)
			}
		})
	}
}

func TestFetch_EmptyAfterFilterIsNotAnError(t *testing.T) {
	adapter := newTestAdapter(t, serveListing(`{"items": []}`))

	events, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-05", nil)
	if err != nil {
		t.Fatalf("empty result is valid, got error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestFetch_RequestCarriesResolvedFilters(t *testing.T) {
	var gotQuery string
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		serveListing(`{"items": []}`)(w, r)
	})

	_, err := adapter.Fetch(context.Background(), "wien", "2026-09-05", "2026-09-06",
		[]domain.Category{taxonomy.LiveKonzerte})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "filters=14%2C15") {
		t.Errorf("query should carry both Live-Konzerte filter IDs, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "city=wien") {
		t.Errorf("query should carry the city, got %q", gotQuery)
	}
}

func TestDiscoveryURL(t *testing.T) {
	adapter := NewAdapter("https://source.example", 2*time.Second, testLogger())
	u := adapter.DiscoveryURL("2026-09-05", "2026-09-06", []taxonomy.FilterID{12, 14})

	if !strings.HasPrefix(u, "https://source.example/events?") {
		t.Errorf("unexpected discovery URL base: %q", u)
	}
	if !strings.Contains(u, "filters=12%2C14") {
		t.Errorf("discovery URL should list the filter IDs, got %q", u)
	}
}
