package scan

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Severity is the ordinal impact level of a Finding. The zero value is not a
// valid severity so a Finding built without one is caught at construction.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "INFO",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

// severityWeights is the penalty each finding contributes to the confidence score.
var severityWeights = map[Severity]int{
	SeverityCritical: 15,
	SeverityHigh:     10,
	SeverityMedium:   5,
	SeverityLow:      2,
	SeverityInfo:     0,
}

// Severities lists every valid severity from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// ParseSeverity maps a severity token (case-insensitive) onto the enumeration.
func ParseSeverity(token string) (Severity, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	for sev, name := range severityNames {
		if name == normalized {
			return sev, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownSeverity, token)
}

// Valid reports whether s is one of the enumerated severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Weight returns the scoring penalty for s. Unknown severities are an error,
// never a zero penalty.
func (s Severity) Weight() (int, error) {
	w, ok := severityWeights[s]
	if !ok {
		return 0, fmt.Errorf("%w: %d", sharedErrors.ErrUnknownSeverity, int(s))
	}
	return w, nil
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", sharedErrors.ErrUnknownSeverity, int(s))
	}
	return []byte(severityNames[s]), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
