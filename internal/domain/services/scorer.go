package services

import (
	"casematch-lab/internal/domain/models"
)

// SimilarityScorer computes a normalized similarity between two
// fingerprints using Jaccard overlap over their token sets.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a new similarity scorer
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Score returns |intersection| / |union| of the two token sets, in [0,1].
// Two empty fingerprints score 0, not 1: two featureless incidents must
// not match spuriously. The function is symmetric, and reflexive for any
// non-empty fingerprint.
func (s *SimilarityScorer) Score(a, b *models.Fingerprint) float64 {
	if a.Len() == 0 && b.Len() == 0 {
		return 0
	}

	intersection := 0
	for _, token := range a.Tokens() {
		if b.Contains(token) {
			intersection++
		}
	}

	union := a.Len() + b.Len() - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
