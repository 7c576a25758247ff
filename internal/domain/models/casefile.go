package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Outcome is the resolved result of a full incident analysis, produced by
// the external analysis pipeline before the case is recorded.
type Outcome struct {
	BriefDescription string   `json:"brief_description"`
	Verdict          Severity `json:"verdict,omitempty"`
	Techniques       []string `json:"techniques,omitempty"`
	Recommendations  []string `json:"recommendations,omitempty"`
}

// CaseRecord is a stored historical incident with its outcome and
// fingerprint. Identity is the case ID; it is unique and immutable once
// assigned. CreatedAt is monotonic non-decreasing in insertion order.
type CaseRecord struct {
	ID          uuid.UUID    `json:"id"`
	Incident    Incident     `json:"incident"`
	Outcome     Outcome      `json:"outcome"`
	Fingerprint *Fingerprint `json:"fingerprint"`
	CreatedAt   time.Time    `json:"created_at"`
}

// MatchResult pairs a stored case with its similarity to a query incident.
// Produced fresh per query, never stored.
type MatchResult struct {
	Case  *CaseRecord `json:"case"`
	Score float64     `json:"score"`
}

// ScorePercent returns the similarity rounded to a whole-number percentage,
// the form the orchestrator renders.
func (m MatchResult) ScorePercent() int {
	return int(math.Round(m.Score * 100))
}

// MatchRequest is a query for historically similar cases. A nil Threshold
// selects the engine default.
type MatchRequest struct {
	Incident   *Incident `json:"incident"`
	Threshold  *float64  `json:"threshold,omitempty"`
	MaxResults int       `json:"max_results,omitempty"`
}

// MatchEntry is one rendered match in a MatchResponse
type MatchEntry struct {
	CaseID            uuid.UUID `json:"case_id"`
	CaseDate          time.Time `json:"case_date"`
	OutcomeSummary    string    `json:"outcome_summary"`
	Score             float64   `json:"score"`
	SimilarityPercent int       `json:"similarity_percent"`
}

// MatchResponse is the API-facing result of a similarity query
type MatchResponse struct {
	RequestID      uuid.UUID     `json:"request_id"`
	Matches        []MatchEntry  `json:"matches"`
	Total          int           `json:"total"`
	Threshold      float64       `json:"threshold"`
	ProcessingTime time.Duration `json:"processing_time_ns"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// CaseStoreStats describes the current state of a case store
type CaseStoreStats struct {
	TotalCases   int       `json:"total_cases"`
	PrunedBySize int64     `json:"pruned_by_size"`
	PrunedByAge  int64     `json:"pruned_by_age"`
	OldestCase   time.Time `json:"oldest_case,omitzero"`
	NewestCase   time.Time `json:"newest_case,omitzero"`
}

// MatcherStats describes accumulated matcher activity
type MatcherStats struct {
	TotalQueries          int64         `json:"total_queries"`
	TotalMatches          int64         `json:"total_matches"`
	AverageProcessingTime time.Duration `json:"average_processing_time_ns"`
	LastQueryAt           time.Time     `json:"last_query_at,omitzero"`
}
