package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"casematch-lab/internal/config"
	"casematch-lab/internal/domain/models"
	"casematch-lab/internal/domain/services"
	"casematch-lab/internal/infrastructure/cache"
	"casematch-lab/internal/streaming"
	"casematch-lab/pkg/logger"
)

// MatchHandler handles similarity query API requests
type MatchHandler struct {
	matcher  *services.CaseMatcher
	cache    *cache.RedisCache
	matching config.MatchingConfig
	events   *streaming.EventBus
	logger   *logger.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matcher *services.CaseMatcher, c *cache.RedisCache, matching config.MatchingConfig, events *streaming.EventBus, log *logger.Logger) *MatchHandler {
	return &MatchHandler{
		matcher:  matcher,
		cache:    c,
		matching: matching,
		events:   events,
		logger:   log.WithComponent("match-handler"),
	}
}

// Find handles POST /api/v1/match: find historically similar cases for an
// incident. Responses are cached briefly when Redis is available; a cache
// miss or error falls through to the matcher.
func (h *MatchHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Incident == nil {
		h.respondError(w, http.StatusBadRequest, "incident required", services.ErrInvalidIncident)
		return
	}

	cacheKey := h.cacheKey(&req)
	if h.cache != nil && cacheKey != "" {
		var cached models.MatchResponse
		if err := h.cache.GetJSON(r.Context(), cacheKey, &cached); err == nil {
			h.respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	response, err := h.matcher.Match(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidIncident) {
			h.respondError(w, http.StatusBadRequest, "invalid incident", err)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "similarity query failed", err)
		return
	}

	if h.cache != nil && cacheKey != "" && h.matching.CacheTTL > 0 {
		if err := h.cache.SetJSON(r.Context(), cacheKey, response, h.matching.CacheTTL); err != nil {
			h.logger.Warn().Err(err).Msg("failed to cache match response")
		}
	}

	h.events.Publish(r.Context(), streaming.NewMatchCompletedEvent(response))

	h.respondJSON(w, http.StatusOK, response)
}

// cacheKey digests the query so identical incidents hit the same entry
func (h *MatchHandler) cacheKey(req *models.MatchRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("match:%s", hex.EncodeToString(sum[:]))
}

func (h *MatchHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *MatchHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Warn().Err(err).Str("message", message).Msg("request failed")
	}
	h.respondJSON(w, status, map[string]string{"error": message})
}
