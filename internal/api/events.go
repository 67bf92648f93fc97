package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wienlist/event-aggregator/internal/domain"
	"github.com/wienlist/event-aggregator/internal/engine"
	"github.com/wienlist/event-aggregator/internal/source"
	"github.com/wienlist/event-aggregator/internal/taxonomy"
)

type EventHandler struct {
	cache   *engine.TieredCache
	adapter *source.Adapter
	logger  *slog.Logger
}

func NewEventHandler(cache *engine.TieredCache, adapter *source.Adapter, logger *slog.Logger) *EventHandler {
	return &EventHandler{cache: cache, adapter: adapter, logger: logger}
}

type eventsResponse struct {
	City     string         `json:"city"`
	Date     string         `json:"date"`
	Category string         `json:"category,omitempty"`
	Events   []domain.Event `json:"events"`
}

// List serves GET /api/v1/events?city=&date=&category=. The date
// parameter accepts relative tokens (today, tomorrow, weekend) or an
// ISO date. An unreachable source renders the same way as a valid
// empty day; the difference lives in logs and cache-write behavior.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		respondError(w, http.StatusBadRequest, "city is required")
		return
	}

	date, err := ResolveDateToken(r.URL.Query().Get("date"), time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cats []domain.Category
	catParam := r.URL.Query().Get("category")
	if catParam != "" {
		cat := domain.Category(catParam)
		if !taxonomy.Valid(cat) {
			respondError(w, http.StatusBadRequest, "unknown category")
			return
		}
		cats = []domain.Category{cat}
	}

	events, err := h.cache.Events(r.Context(), city, date, cats)
	if err != nil {
		if errors.Is(err, source.ErrSourceUnreachable) {
			h.logger.Warn("serving empty result, source unreachable",
				"city", city,
				"date", date,
				"error", err,
			)
			events = nil
		} else {
			h.logger.Error("event read failed", "city", city, "date", date, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to read events")
			return
		}
	}

	if events == nil {
		events = []domain.Event{}
	}
	respondJSON(w, http.StatusOK, eventsResponse{
		City:     city,
		Date:     date,
		Category: catParam,
		Events:   events,
	})
}

type discoveryResponse struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	FilterIDs []taxonomy.FilterID `json:"filter_ids"`
	URL       string              `json:"url"`
}

// DiscoveryURL serves the diagnostic upstream URL for a date range and
// category. Display only; the API never fetches it on the caller's
// behalf.
func (h *EventHandler) DiscoveryURL(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from, err := ResolveDateToken(r.URL.Query().Get("from"), now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := ResolveDateToken(r.URL.Query().Get("to"), now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cats []domain.Category
	if catParam := r.URL.Query().Get("category"); catParam != "" {
		cats = []domain.Category{domain.Category(catParam)}
	}
	ids := taxonomy.MapInternalToFilterIDs(cats)

	respondJSON(w, http.StatusOK, discoveryResponse{
		From:      from,
		To:        to,
		FilterIDs: ids,
		URL:       h.adapter.DiscoveryURL(from, to, ids),
	})
}

// Categories serves the fixed internal category set.
func (h *EventHandler) Categories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, taxonomy.Categories())
}
