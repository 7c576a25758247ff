package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casematch-lab/internal/domain/models"
	"casematch-lab/pkg/logger"
)

func newTestExtractor() *PatternExtractor {
	return NewPatternExtractor(logger.NewNop())
}

func TestExtractNilIncident(t *testing.T) {
	e := newTestExtractor()

	fp, err := e.Extract(nil)

	require.ErrorIs(t, err, ErrInvalidIncident)
	assert.Nil(t, fp)
}

func TestExtractIndicatorClassification(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name  string
		value string
		token string
	}{
		{"ipv4", "1.2.3.4", "indicator:ip"},
		{"md5", "d41d8cd98f00b204e9800998ecf8427e", "indicator:hash"},
		{"sha1", "da39a3ee5e6b4b0d3255bfef95601890afd80709", "indicator:hash"},
		{"sha256", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", "indicator:hash"},
		{"domain", "evil.example.com", "indicator:domain"},
		{"url", "https://evil.example.com/login", "indicator:url"},
		{"defanged url", "hxxps://evil.example.com/login", "indicator:url"},
		{"email", "attacker@example.com", "indicator:email"},
		{"unclassifiable", "not an indicator", "indicator:other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.token, e.classifyIndicator(tt.value))
		})
	}
}

func TestExtractDeterministicTokenOrder(t *testing.T) {
	e := newTestExtractor()

	incident := &models.Incident{
		Description: "phishing email with malicious link",
		Indicators:  []string{"1.2.3.4", "evil.example.com", "5.6.7.8"},
		Severity:    models.SeverityHigh,
	}

	fp, err := e.Extract(incident)
	require.NoError(t, err)

	// Indicator shapes in indicator order (duplicates collapse), then
	// keyword categories in vocabulary order, then the severity bucket.
	expected := []string{
		"indicator:ip",
		"indicator:domain",
		"topic:phishing",
		"topic:email",
		"topic:web",
		"severity:high",
	}
	assert.Equal(t, expected, fp.Tokens())

	// Same input, same fingerprint.
	again, err := e.Extract(incident)
	require.NoError(t, err)
	assert.Equal(t, fp.Tokens(), again.Tokens())
}

func TestExtractMissingFieldsDefaults(t *testing.T) {
	e := newTestExtractor()

	fp, err := e.Extract(&models.Incident{Description: "something odd happened"})
	require.NoError(t, err)

	// No indicators, no vocabulary hits, unset severity buckets to medium.
	assert.Equal(t, []string{"severity:medium"}, fp.Tokens())
}

func TestExtractTechniqueHints(t *testing.T) {
	e := newTestExtractor()

	fp, err := e.Extract(&models.Incident{
		Description: "spearphishing per T1566.001 followed by T1059",
		Severity:    models.SeverityCritical,
	})
	require.NoError(t, err)

	assert.True(t, fp.Contains("technique:T1566.001"))
	assert.True(t, fp.Contains("technique:T1059"))
	assert.True(t, fp.Contains("severity:high"))
}

func TestExtractBlankIndicatorsIgnored(t *testing.T) {
	e := newTestExtractor()

	fp, err := e.Extract(&models.Incident{
		Indicators: []string{"  ", "", "1.2.3.4"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"indicator:ip", "severity:medium"}, fp.Tokens())
}

func TestExtractHasNoSideEffects(t *testing.T) {
	e := newTestExtractor()

	incident := &models.Incident{
		Description: "ransomware outbreak",
		Indicators:  []string{"1.2.3.4"},
		Severity:    models.SeverityLow,
	}

	_, err := e.Extract(incident)
	require.NoError(t, err)

	assert.Equal(t, "ransomware outbreak", incident.Description)
	assert.Equal(t, []string{"1.2.3.4"}, incident.Indicators)
	assert.Equal(t, models.SeverityLow, incident.Severity)
}
