package models

// Severity represents the incident severity level
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Incident is an externally supplied security incident report. It is
// immutable once submitted for matching; the engine never mutates it.
type Incident struct {
	Description string   `json:"description"`
	Indicators  []string `json:"indicators,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into Severity
func ParseSeverity(s string) Severity {
	switch s {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	case "info":
		return SeverityInfo
	default:
		return Severity(s)
	}
}

// Weight returns a numeric weight for sorting by severity
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Bucket collapses severity into the coarse band used for fingerprinting.
// Unset or unknown severities default to the medium band.
func (s Severity) Bucket() string {
	switch s {
	case SeverityCritical, SeverityHigh:
		return "high"
	case SeverityLow, SeverityInfo:
		return "low"
	default:
		return "medium"
	}
}
