package handlers

import (
	"encoding/json"
	"net/http"

	"casematch-lab/internal/domain/services"
	"casematch-lab/internal/streaming"
	"casematch-lab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	store   *services.CaseStore
	matcher *services.CaseMatcher
	events  *streaming.EventBus
	logger  *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(store *services.CaseStore, matcher *services.CaseMatcher, events *streaming.EventBus, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		store:   store,
		matcher: matcher,
		events:  events,
		logger:  log.WithComponent("stats"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"store":       h.store.Stats(),
		"matcher":     h.matcher.Stats(),
		"subscribers": h.events.SubscriberCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
