// Package report renders a scored run as JSON, Markdown or PDF.
//
// Renderers are presentation only: they never re-score and never mutate the
// run. Evidence and details are truncated in the human-readable formats; the
// JSON report always carries them in full.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// Format is an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Filename returns the file written for f inside the output directory.
func (f Format) Filename() string {
	return "scan_report." + string(f)
}

// ParseFormat accepts json, md/markdown and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q (must be json, md, or pdf)", sharedErrors.ErrUnsupportedFormat, s)
}

// ParseFormats parses a list of formats, dropping duplicates and keeping order.
func ParseFormats(values []string) ([]Format, error) {
	seen := make(map[Format]bool, len(values))
	out := make([]Format, 0, len(values))
	for _, v := range values {
		f, err := ParseFormat(v)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// View is the flattened, display-ready form of a run shared by the Markdown
// and PDF renderers.
type View struct {
	ScannerVersion string
	Target         string
	RunID          string
	Status         string
	StartedAt      string
	CompletedAt    string

	Scored        bool
	Score         string
	Grade         string
	TestsTotal    int
	TestsPassed   int
	TestsFailed   int
	FindingsCount int
	Tally         scan.FindingTally
	Summary       string

	Categories []CategoryView
	Findings   []FindingView
	Results    []ResultView
}

type CategoryView struct {
	Name   string
	Score  string
	Passed int
	Total  int
	Mark   string
}

type FindingView struct {
	Index       int
	Severity    string
	Title       string
	Category    string
	Endpoint    string
	Description string
	MITRE       string
	OWASP       string
	CVSS        string
	Evidence    string
	Remediation string
}

type ResultView struct {
	Index    int
	TestName string
	Category string
	Passed   bool
	Requests int
	Details  string
}

// NewView flattens run and assessment for display.
func NewView(version string, run *scan.Run, a scan.Assessment) View {
	v := View{
		ScannerVersion: version,
		Target:         run.Target(),
		RunID:          run.ID(),
		Status:         string(run.Status()),
		StartedAt:      formatTimestamp(run.StartedAt()),
		CompletedAt:    formatTimestamp(run.CompletedAt()),
		Scored:         a.Scored,
		Score:          a.ConfidenceLabel(),
		Grade:          a.Grade.String(),
		TestsTotal:     a.TestsTotal,
		TestsPassed:    a.TestsPassed,
		TestsFailed:    a.TestsFailed,
		FindingsCount:  len(a.Findings),
		Tally:          a.Tally,
		Summary:        a.Summary,
	}

	for _, cs := range a.CategoryScores {
		v.Categories = append(v.Categories, CategoryView{
			Name:   string(cs.Category),
			Score:  fmt.Sprintf("%.1f", cs.Score),
			Passed: cs.Passed,
			Total:  cs.Total,
			Mark:   categoryMark(cs.Score),
		})
	}
	for i, f := range a.Findings {
		mitre, _ := f.ClassificationFor(scan.SchemeMITRE)
		owasp, _ := f.ClassificationFor(scan.SchemeOWASP)
		v.Findings = append(v.Findings, FindingView{
			Index:       i + 1,
			Severity:    f.Severity().String(),
			Title:       f.Title(),
			Category:    string(f.Category()),
			Endpoint:    f.Endpoint(),
			Description: f.Description(),
			MITRE:       mitre,
			OWASP:       owasp,
			CVSS:        fmt.Sprintf("%.1f", f.CVSSEstimate()),
			Evidence:    Truncate(f.Evidence(), consts.EvidenceDisplayLimit),
			Remediation: f.Remediation(),
		})
	}
	for i, r := range a.Results {
		v.Results = append(v.Results, ResultView{
			Index:    i + 1,
			TestName: r.TestName(),
			Category: string(r.Category()),
			Passed:   r.Passed(),
			Requests: r.RequestsSent(),
			Details:  Truncate(r.Details(), consts.DetailsDisplayLimit),
		})
	}
	return v
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func categoryMark(score float64) string {
	switch {
	case score >= 80:
		return "PASS"
	case score >= 60:
		return "WARN"
	default:
		return "FAIL"
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
