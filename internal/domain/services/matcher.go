package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"casematch-lab/internal/config"
	"casematch-lab/internal/domain/models"
	"casematch-lab/pkg/logger"
)

// DefaultThreshold is the similarity bar a stored case must strictly
// exceed to count as a match when the caller does not supply one.
const DefaultThreshold = 0.7

// CaseMatcher finds historically similar cases for a new incident. It is
// safe to call concurrently with inserts: every query works on a stable
// snapshot of the store taken at call start.
type CaseMatcher struct {
	store     *CaseStore
	extractor *PatternExtractor
	scorer    *SimilarityScorer
	config    config.MatchingConfig
	logger    *logger.Logger

	// Statistics
	statsMu         sync.RWMutex
	totalQueries    int64
	totalMatches    int64
	processingTimes []time.Duration
	lastQuery       time.Time
}

// NewCaseMatcher creates a new case matcher
func NewCaseMatcher(store *CaseStore, extractor *PatternExtractor, scorer *SimilarityScorer, cfg config.MatchingConfig, log *logger.Logger) *CaseMatcher {
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = DefaultThreshold
	}
	return &CaseMatcher{
		store:           store,
		extractor:       extractor,
		scorer:          scorer,
		config:          cfg,
		logger:          log.WithComponent("case-matcher"),
		processingTimes: make([]time.Duration, 0, 100),
	}
}

// FindSimilar extracts the query fingerprint once, scores it against every
// case in a snapshot of the store, keeps only scores strictly greater than
// the threshold, and returns the matches sorted by score descending, ties
// broken by most-recent createdAt first. An empty store yields an empty
// result, not an error; an invalid incident propagates ErrInvalidIncident.
func (m *CaseMatcher) FindSimilar(ctx context.Context, incident *models.Incident, threshold float64) ([]models.MatchResult, error) {
	query, err := m.extractor.Extract(incident)
	if err != nil {
		return nil, err
	}

	var results []models.MatchResult
	for _, record := range m.store.Snapshot() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := m.scorer.Score(query, record.Fingerprint)
		if score > threshold {
			results = append(results, models.MatchResult{Case: record, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Case.CreatedAt.After(results[j].Case.CreatedAt)
	})

	return results, nil
}

// Match runs a similarity query and assembles the API-facing response.
// A nil request threshold selects the configured default.
func (m *CaseMatcher) Match(ctx context.Context, req *models.MatchRequest) (*models.MatchResponse, error) {
	startTime := time.Now()
	requestID := uuid.New()

	threshold := m.config.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	m.logger.Info().
		Str("request_id", requestID.String()).
		Float64("threshold", threshold).
		Msg("starting similarity query")

	results, err := m.FindSimilar(ctx, req.Incident, threshold)
	if err != nil {
		return nil, err
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	entries := make([]models.MatchEntry, len(results))
	for i, r := range results {
		entries[i] = models.MatchEntry{
			CaseID:            r.Case.ID,
			CaseDate:          r.Case.CreatedAt,
			OutcomeSummary:    r.Case.Outcome.BriefDescription,
			Score:             r.Score,
			SimilarityPercent: r.ScorePercent(),
		}
	}

	response := &models.MatchResponse{
		RequestID:      requestID,
		Matches:        entries,
		Total:          len(entries),
		Threshold:      threshold,
		ProcessingTime: time.Since(startTime),
		GeneratedAt:    time.Now(),
	}

	m.updateStats(response)

	m.logger.Info().
		Str("request_id", requestID.String()).
		Int("matches_found", len(entries)).
		Dur("processing_time", response.ProcessingTime).
		Msg("similarity query complete")

	return response, nil
}

// updateStats records query activity
func (m *CaseMatcher) updateStats(response *models.MatchResponse) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	m.totalQueries++
	m.totalMatches += int64(response.Total)
	m.lastQuery = time.Now()

	m.processingTimes = append(m.processingTimes, response.ProcessingTime)
	if len(m.processingTimes) > 100 {
		m.processingTimes = m.processingTimes[1:]
	}
}

// Stats returns accumulated matcher statistics
func (m *CaseMatcher) Stats() models.MatcherStats {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()

	stats := models.MatcherStats{
		TotalQueries: m.totalQueries,
		TotalMatches: m.totalMatches,
		LastQueryAt:  m.lastQuery,
	}

	if len(m.processingTimes) > 0 {
		var total time.Duration
		for _, t := range m.processingTimes {
			total += t
		}
		stats.AverageProcessingTime = total / time.Duration(len(m.processingTimes))
	}

	return stats
}
