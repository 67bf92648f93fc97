package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wienlist/event-aggregator/internal/store"
)

type VenueHandler struct {
	store *store.PostgresStore
}

func NewVenueHandler(s *store.PostgresStore) *VenueHandler {
	return &VenueHandler{store: s}
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	venues, err := h.store.ListVenues(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list venues")
		return
	}
	respondJSON(w, http.StatusOK, venues)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	venue, err := h.store.GetVenueBySlug(r.Context(), slug)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get venue")
		return
	}
	if venue == nil {
		respondError(w, http.StatusNotFound, "venue not found")
		return
	}
	respondJSON(w, http.StatusOK, venue)
}
