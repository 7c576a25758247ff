package services

import (
	"errors"
	"regexp"
	"strings"

	"casematch-lab/internal/domain/models"
	"casematch-lab/pkg/logger"
)

// ErrInvalidIncident is returned when the incident argument is missing or
// not a structured record. Callers recover from it; it is never fatal to
// the case store.
var ErrInvalidIncident = errors.New("invalid incident: expected a structured incident record")

// indicatorShape classifies an indicator value by syntactic shape.
// Classification order matters: URLs contain domains, hashes look like
// generic tokens, so the more specific shapes come first.
type indicatorShape struct {
	token string
	regex *regexp.Regexp
}

// keywordCategory maps a fingerprint token to the description vocabulary
// that triggers it
type keywordCategory struct {
	token    string
	keywords []string
}

// PatternExtractor derives a deterministic fingerprint from a raw incident:
// indicator shape classes, keyword categories from the free-text
// description, MITRE technique hints, and a coarse severity bucket.
type PatternExtractor struct {
	shapes     []indicatorShape
	categories []keywordCategory
	technique  *regexp.Regexp
	logger     *logger.Logger
}

// NewPatternExtractor creates a new pattern extractor
func NewPatternExtractor(log *logger.Logger) *PatternExtractor {
	return &PatternExtractor{
		shapes: []indicatorShape{
			{"indicator:url", regexp.MustCompile(`(?i)^(?:https?://|hxxps?://|ftp://|www\.)\S+$`)},
			{"indicator:email", regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)},
			{"indicator:ip", regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)},
			{"indicator:hash", regexp.MustCompile(`^(?:[a-fA-F0-9]{32}|[a-fA-F0-9]{40}|[a-fA-F0-9]{64})$`)},
			{"indicator:domain", regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,63}$`)},
		},
		categories: []keywordCategory{
			{"topic:phishing", []string{"phish", "credential harvest", "spoof", "impersonat", "fake login", "lure"}},
			{"topic:malware", []string{"malware", "ransomware", "trojan", "spyware", "keylogger", "botnet", "dropper", "backdoor", "stealer", "worm", "rootkit"}},
			{"topic:email", []string{"email", "attachment", "smtp", "inbox", "spam", "mailbox"}},
			{"topic:web", []string{"injection", "xss", "cross-site", "webshell", "defacement", "malicious link"}},
			{"topic:network", []string{"scan", "brute force", "ddos", "denial of service", "lateral movement", "port sweep"}},
			{"topic:access", []string{"unauthorized", "privilege escalation", "account takeover", "compromised account", "suspicious login"}},
			{"topic:c2", []string{"command and control", "c2 ", "beacon", "callback", "exfiltrat"}},
		},
		technique: regexp.MustCompile(`\bT\d{4}(?:\.\d{3})?\b`),
		logger:    log.WithComponent("pattern-extractor"),
	}
}

// Extract derives a fingerprint from the incident. The token order is
// first-occurrence order and is deterministic for a given input:
// indicator shape tokens in indicator order, then keyword categories in
// vocabulary order, then technique hints in order of appearance, then the
// severity bucket. A missing indicator list is treated as empty; missing
// metadata falls back to defaults. No side effects.
func (e *PatternExtractor) Extract(incident *models.Incident) (*models.Fingerprint, error) {
	if incident == nil {
		return nil, ErrInvalidIncident
	}

	fp := models.NewFingerprint()

	for _, value := range incident.Indicators {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		fp.Add(e.classifyIndicator(value))
	}

	desc := strings.ToLower(incident.Description)
	for _, cat := range e.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(desc, kw) {
				fp.Add(cat.token)
				break
			}
		}
	}

	for _, t := range e.technique.FindAllString(incident.Description, -1) {
		fp.Add("technique:" + t)
	}

	fp.Add("severity:" + incident.Severity.Bucket())

	e.logger.Debug().
		Int("tokens", fp.Len()).
		Int("indicators", len(incident.Indicators)).
		Msg("fingerprint extracted")

	return fp, nil
}

// classifyIndicator returns the shape token for an indicator value
func (e *PatternExtractor) classifyIndicator(value string) string {
	for _, shape := range e.shapes {
		if shape.regex.MatchString(value) {
			return shape.token
		}
	}
	return "indicator:other"
}
