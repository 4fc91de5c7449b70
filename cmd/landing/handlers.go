package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"basicswap-orderbook-go/internal/journal"
	"basicswap-orderbook-go/internal/models"
	"go.uber.org/zap"
)

const (
	defaultRefreshLimit = 50
	maxRefreshLimit     = 500
)

// RefreshLog is the read side of the refresh journal.
type RefreshLog interface {
	Recent(ctx context.Context, limit int) ([]models.RefreshRecord, error)
	Stats(ctx context.Context, now time.Time) (journal.Stats, error)
}

// APIHandler holds dependencies for the journal endpoints.
type APIHandler struct {
	log     *zap.Logger
	journal RefreshLog
	now     func() time.Time
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, journal RefreshLog) *APIHandler {
	return &APIHandler{log: log, journal: journal, now: time.Now}
}

// RefreshesHandler returns the most recent refresh cycles, newest first.
// The optional limit query parameter caps the count.
func (h *APIHandler) RefreshesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRefreshLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRefreshLimit)
	}

	records, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("Failed to get refreshes from database", zap.Error(err))
		http.Error(w, "Failed to get refreshes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// StatsHandler returns refresh statistics for the last 24 hours and all time.
func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.journal.Stats(r.Context(), h.now())
	if err != nil {
		h.log.Error("Failed to get refresh statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
