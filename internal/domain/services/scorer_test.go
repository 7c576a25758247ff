package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"casematch-lab/internal/domain/models"
)

func fingerprintOf(tokens ...string) *models.Fingerprint {
	fp := models.NewFingerprint()
	for _, t := range tokens {
		fp.Add(t)
	}
	return fp
}

func TestScoreBothEmpty(t *testing.T) {
	s := NewSimilarityScorer()

	// Two featureless incidents must not match spuriously.
	assert.Equal(t, 0.0, s.Score(models.NewFingerprint(), models.NewFingerprint()))
}

func TestScoreReflexive(t *testing.T) {
	s := NewSimilarityScorer()

	fp := fingerprintOf("indicator:ip", "topic:phishing", "severity:high")
	assert.Equal(t, 1.0, s.Score(fp, fp))
}

func TestScoreSymmetric(t *testing.T) {
	s := NewSimilarityScorer()

	tests := []struct {
		name string
		a    *models.Fingerprint
		b    *models.Fingerprint
	}{
		{"disjoint", fingerprintOf("a", "b"), fingerprintOf("c", "d")},
		{"partial overlap", fingerprintOf("a", "b", "c"), fingerprintOf("b", "c", "d")},
		{"subset", fingerprintOf("a", "b", "c"), fingerprintOf("a")},
		{"one empty", fingerprintOf("a"), models.NewFingerprint()},
		{"identical", fingerprintOf("a", "b"), fingerprintOf("b", "a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, s.Score(tt.a, tt.b), s.Score(tt.b, tt.a))
		})
	}
}

func TestScoreJaccardValues(t *testing.T) {
	s := NewSimilarityScorer()

	tests := []struct {
		name     string
		a        *models.Fingerprint
		b        *models.Fingerprint
		expected float64
	}{
		{"disjoint", fingerprintOf("a", "b"), fingerprintOf("c", "d"), 0},
		{"half", fingerprintOf("a", "b", "c"), fingerprintOf("b", "c", "d"), 0.5},
		{"identical unordered", fingerprintOf("a", "b"), fingerprintOf("b", "a"), 1},
		{"one empty", fingerprintOf("a", "b"), models.NewFingerprint(), 0},
		{"three of five", fingerprintOf("a", "b", "c", "d", "e"), fingerprintOf("a", "b", "c"), 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreRange(t *testing.T) {
	s := NewSimilarityScorer()

	pairs := [][2]*models.Fingerprint{
		{fingerprintOf("a"), fingerprintOf("a", "b", "c", "d")},
		{fingerprintOf("x", "y", "z"), fingerprintOf("z")},
		{fingerprintOf("a", "b"), fingerprintOf("a", "b")},
	}

	for _, p := range pairs {
		score := s.Score(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
