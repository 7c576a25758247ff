package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"casematch-lab/internal/domain/models"
	"casematch-lab/pkg/logger"
)

// CaseStore is an insertion-ordered, bounded, in-memory collection of case
// records. A single logical owner mutates it; reads take a point-in-time
// snapshot so matching never observes a half-applied insert or prune.
// Records handed out are shared and must be treated as immutable.
type CaseStore struct {
	extractor *PatternExtractor
	logger    *logger.Logger

	mu          sync.RWMutex
	cases       []*models.CaseRecord
	byID        map[uuid.UUID]*models.CaseRecord
	lastCreated time.Time

	prunedBySize int64
	prunedByAge  int64

	now func() time.Time
}

// NewCaseStore creates an empty case store
func NewCaseStore(extractor *PatternExtractor, log *logger.Logger) *CaseStore {
	return &CaseStore{
		extractor: extractor,
		logger:    log.WithComponent("case-store"),
		byID:      make(map[uuid.UUID]*models.CaseRecord),
		now:       time.Now,
	}
}

// Insert records a fully analyzed incident with its outcome. It computes
// the fingerprint, assigns a fresh case ID and a createdAt clamped to be
// non-decreasing in insertion order, and appends atomically: either the
// record is fully added and its ID returned, or nothing changes. It never
// blocks on anything but the store mutex.
func (s *CaseStore) Insert(incident *models.Incident, outcome models.Outcome) (uuid.UUID, error) {
	fp, err := s.extractor.Extract(incident)
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	if createdAt.Before(s.lastCreated) {
		createdAt = s.lastCreated
	}
	s.lastCreated = createdAt

	record := &models.CaseRecord{
		ID:          uuid.New(),
		Incident:    *incident,
		Outcome:     outcome,
		Fingerprint: fp,
		CreatedAt:   createdAt,
	}

	s.cases = append(s.cases, record)
	s.byID[record.ID] = record

	s.logger.Debug().
		Str("case_id", record.ID.String()).
		Int("total_cases", len(s.cases)).
		Msg("case recorded")

	return record.ID, nil
}

// Get returns the case with the given ID. Absence is an expected outcome,
// reported through the boolean, not an error.
func (s *CaseStore) Get(id uuid.UUID) (*models.CaseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id]
	return record, ok
}

// Snapshot returns a consistent copy of the case list in insertion order.
// The copy is taken under the read lock, so concurrent inserts and prunes
// never mutate a sequence a caller is iterating.
func (s *CaseStore) Snapshot() []*models.CaseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.CaseRecord, len(s.cases))
	copy(out, s.cases)
	return out
}

// Len returns the number of stored cases
func (s *CaseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases)
}

// Prune removes the oldest records until the store is within both bounds:
// at most maxSize records (0 disables the size bound) and nothing older
// than maxAge (0 disables the age bound). Both checks run in one critical
// section, so a completed prune cycle leaves the store within the
// configured capacity. Returns the number of records removed. Snapshots
// taken before the call are unaffected.
func (s *CaseStore) Prune(maxSize int, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	// createdAt is non-decreasing in insertion order, so expired records
	// form a prefix.
	if maxAge > 0 {
		cutoff := s.now().Add(-maxAge)
		expired := 0
		for expired < len(s.cases) && s.cases[expired].CreatedAt.Before(cutoff) {
			expired++
		}
		removed += s.dropOldest(expired)
		s.prunedByAge += int64(expired)
	}

	if maxSize > 0 && len(s.cases) > maxSize {
		excess := len(s.cases) - maxSize
		removed += s.dropOldest(excess)
		s.prunedBySize += int64(excess)
	}

	if removed > 0 {
		s.logger.Info().
			Int("removed", removed).
			Int("remaining", len(s.cases)).
			Msg("pruned case store")
	}

	return removed
}

// dropOldest removes the first n records. Caller holds the write lock.
func (s *CaseStore) dropOldest(n int) int {
	if n <= 0 {
		return 0
	}
	if n > len(s.cases) {
		n = len(s.cases)
	}
	for _, record := range s.cases[:n] {
		delete(s.byID, record.ID)
	}
	s.cases = append([]*models.CaseRecord(nil), s.cases[n:]...)
	return n
}

// Stats returns the current store statistics
func (s *CaseStore) Stats() models.CaseStoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.CaseStoreStats{
		TotalCases:   len(s.cases),
		PrunedBySize: s.prunedBySize,
		PrunedByAge:  s.prunedByAge,
	}
	if len(s.cases) > 0 {
		stats.OldestCase = s.cases[0].CreatedAt
		stats.NewestCase = s.cases[len(s.cases)-1].CreatedAt
	}
	return stats
}
