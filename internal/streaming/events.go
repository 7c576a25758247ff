package streaming

import (
	"time"

	"github.com/google/uuid"

	"casematch-lab/internal/domain/models"
)

// CaseEventType identifies the kind of case event
type CaseEventType string

const (
	EventCaseStored     CaseEventType = "case.stored"
	EventCasePruned     CaseEventType = "case.pruned"
	EventMatchCompleted CaseEventType = "match.completed"
)

// CaseEvent is published when the case store or matcher does something a
// downstream consumer may care about
type CaseEvent struct {
	Type       CaseEventType   `json:"type"`
	CaseID     uuid.UUID       `json:"case_id,omitzero"`
	Severity   models.Severity `json:"severity,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	MatchCount int             `json:"match_count,omitempty"`
	Pruned     int             `json:"pruned,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewCaseStoredEvent builds the event published after a successful insert
func NewCaseStoredEvent(record *models.CaseRecord) *CaseEvent {
	return &CaseEvent{
		Type:      EventCaseStored,
		CaseID:    record.ID,
		Severity:  record.Incident.Severity,
		Summary:   record.Outcome.BriefDescription,
		Timestamp: time.Now(),
	}
}

// NewMatchCompletedEvent builds the event published after a similarity query
func NewMatchCompletedEvent(response *models.MatchResponse) *CaseEvent {
	return &CaseEvent{
		Type:       EventMatchCompleted,
		MatchCount: response.Total,
		Timestamp:  time.Now(),
	}
}

// NewCasePrunedEvent builds the event published after a prune cycle that
// removed at least one case
func NewCasePrunedEvent(removed int) *CaseEvent {
	return &CaseEvent{
		Type:      EventCasePruned,
		Pruned:    removed,
		Timestamp: time.Now(),
	}
}
