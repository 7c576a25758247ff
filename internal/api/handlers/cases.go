package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"casematch-lab/internal/config"
	"casematch-lab/internal/domain/models"
	"casematch-lab/internal/domain/services"
	"casematch-lab/internal/streaming"
	"casematch-lab/pkg/logger"
)

// CasesHandler handles case store API requests
type CasesHandler struct {
	store    *services.CaseStore
	matching config.MatchingConfig
	events   *streaming.EventBus
	logger   *logger.Logger
}

// NewCasesHandler creates a new cases handler
func NewCasesHandler(store *services.CaseStore, matching config.MatchingConfig, events *streaming.EventBus, log *logger.Logger) *CasesHandler {
	return &CasesHandler{
		store:    store,
		matching: matching,
		events:   events,
		logger:   log.WithComponent("cases-handler"),
	}
}

// createCaseRequest is the body of POST /api/v1/cases
type createCaseRequest struct {
	Incident *models.Incident `json:"incident"`
	Outcome  *models.Outcome  `json:"outcome"`
}

// Create records a fully analyzed incident with its outcome, then prunes
// the store to the configured bounds
func (h *CasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Outcome == nil || req.Outcome.BriefDescription == "" {
		h.respondError(w, http.StatusBadRequest, "outcome with brief_description required: cases are recorded only after analysis completes", nil)
		return
	}

	caseID, err := h.store.Insert(req.Incident, *req.Outcome)
	if err != nil {
		if errors.Is(err, services.ErrInvalidIncident) {
			h.respondError(w, http.StatusBadRequest, "invalid incident", err)
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to record case", err)
		return
	}

	if removed := h.store.Prune(h.matching.MaxCases, h.matching.MaxAge); removed > 0 {
		h.events.Publish(r.Context(), streaming.NewCasePrunedEvent(removed))
	}

	if record, ok := h.store.Get(caseID); ok {
		h.events.Publish(r.Context(), streaming.NewCaseStoredEvent(record))
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"case_id":     caseID,
		"total_cases": h.store.Len(),
	})
}

// Get fetches a single case by ID
func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid case ID", err)
		return
	}

	record, ok := h.store.Get(id)
	if !ok {
		h.respondError(w, http.StatusNotFound, "case not found", nil)
		return
	}

	h.respondJSON(w, http.StatusOK, record)
}

// List returns stored cases in insertion order, paged
func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 50)
	offset := parseQueryInt(r, "offset", 0)
	if limit > 500 {
		limit = 500
	}

	snapshot := h.store.Snapshot()
	total := len(snapshot)

	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cases":  snapshot[offset:end],
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// pruneRequest is the body of POST /api/v1/cases/prune. Zero values fall
// back to the configured bounds.
type pruneRequest struct {
	MaxSize int    `json:"max_size,omitempty"`
	MaxAge  string `json:"max_age,omitempty"` // Go duration string, e.g. "720h"
}

// Prune removes the oldest cases beyond the requested bounds
func (h *CasesHandler) Prune(w http.ResponseWriter, r *http.Request) {
	var req pruneRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	maxSize := req.MaxSize
	if maxSize == 0 {
		maxSize = h.matching.MaxCases
	}

	maxAge := h.matching.MaxAge
	if req.MaxAge != "" {
		parsed, err := time.ParseDuration(req.MaxAge)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid max_age duration", err)
			return
		}
		maxAge = parsed
	}

	removed := h.store.Prune(maxSize, maxAge)
	if removed > 0 {
		h.events.Publish(r.Context(), streaming.NewCasePrunedEvent(removed))
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed":   removed,
		"remaining": h.store.Len(),
	})
}

func parseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (h *CasesHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *CasesHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Warn().Err(err).Str("message", message).Msg("request failed")
	}
	h.respondJSON(w, status, map[string]string{"error": message})
}
