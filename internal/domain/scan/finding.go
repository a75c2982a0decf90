package scan

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Classification schemes used for ClassificationID.
const (
	SchemeMITRE = "MITRE ATT&CK"
	SchemeOWASP = "OWASP"
)

// ClassificationID references an external taxonomy entry. It is informational
// and never affects scoring.
type ClassificationID struct {
	Scheme string
	ID     string
}

// MITRE builds a MITRE ATT&CK technique reference.
func MITRE(id string) ClassificationID {
	return ClassificationID{Scheme: SchemeMITRE, ID: id}
}

// OWASP builds an OWASP Top 10 / API Top 10 reference.
func OWASP(id string) ClassificationID {
	return ClassificationID{Scheme: SchemeOWASP, ID: id}
}

func (c ClassificationID) String() string {
	return c.Scheme + " " + c.ID
}

// FindingParams carries the fields needed to construct a Finding.
type FindingParams struct {
	Category        FindingCategory
	Severity        Severity
	Title           string
	Description     string
	Endpoint        string
	Evidence        string
	Classifications []ClassificationID
	Remediation     string
	CVSSEstimate    float64
}

// Finding is a discovered weakness. Instances are immutable once built.
type Finding struct {
	category        FindingCategory
	severity        Severity
	title           string
	description     string
	endpoint        string
	evidence        string
	classifications []ClassificationID
	remediation     string
	cvssEstimate    float64
}

// NewFinding validates p and returns the Finding it describes.
func NewFinding(p FindingParams) (Finding, error) {
	if !p.Severity.Valid() {
		return Finding{}, fmt.Errorf("%w: finding %q has severity %d", sharedErrors.ErrUnknownSeverity, p.Title, int(p.Severity))
	}
	if !p.Category.Valid() {
		return Finding{}, fmt.Errorf("%w: finding %q has category %q", sharedErrors.ErrUnknownCategory, p.Title, p.Category)
	}
	if strings.TrimSpace(p.Title) == "" {
		return Finding{}, fmt.Errorf("%w: title is required", sharedErrors.ErrInvalidFinding)
	}
	if p.CVSSEstimate < 0 || p.CVSSEstimate > 10 {
		return Finding{}, fmt.Errorf("%w: cvss estimate %.1f outside [0,10]", sharedErrors.ErrInvalidFinding, p.CVSSEstimate)
	}
	for _, c := range p.Classifications {
		if c.Scheme == "" || c.ID == "" {
			return Finding{}, fmt.Errorf("%w: incomplete classification %+v", sharedErrors.ErrInvalidFinding, c)
		}
	}

	return Finding{
		category:        p.Category,
		severity:        p.Severity,
		title:           p.Title,
		description:     p.Description,
		endpoint:        p.Endpoint,
		evidence:        p.Evidence,
		classifications: append([]ClassificationID(nil), p.Classifications...),
		remediation:     p.Remediation,
		cvssEstimate:    p.CVSSEstimate,
	}, nil
}

// MustFinding is NewFinding for statically known findings; it panics on invalid input.
func MustFinding(p FindingParams) Finding {
	f, err := NewFinding(p)
	if err != nil {
		panic(err)
	}
	return f
}

// Getters

func (f Finding) Category() FindingCategory {
	return f.category
}

func (f Finding) Severity() Severity {
	return f.severity
}

func (f Finding) Title() string {
	return f.title
}

func (f Finding) Description() string {
	return f.description
}

func (f Finding) Endpoint() string {
	return f.endpoint
}

// Evidence returns the full, untruncated evidence text.
func (f Finding) Evidence() string {
	return f.evidence
}

func (f Finding) Classifications() []ClassificationID {
	return append([]ClassificationID(nil), f.classifications...)
}

// ClassificationFor returns the first reference in the given scheme, if any.
func (f Finding) ClassificationFor(scheme string) (string, bool) {
	for _, c := range f.classifications {
		if c.Scheme == scheme {
			return c.ID, true
		}
	}
	return "", false
}

func (f Finding) Remediation() string {
	return f.remediation
}

func (f Finding) CVSSEstimate() float64 {
	return f.cvssEstimate
}
