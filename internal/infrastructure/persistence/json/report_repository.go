package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/security"
	consts "github.com/khanhnv2901/apiprobe/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// ReportFilename is the name of the structured report inside the output directory.
const ReportFilename = "scan_report.json"

// reportDTO is the data transfer object for JSON serialization
type reportDTO struct {
	Run            runDTO             `json:"run"`
	Assessment     assessmentDTO      `json:"assessment"`
	CategoryScores []categoryScoreDTO `json:"category_scores"`
	Findings       []findingDTO       `json:"findings"`
	Results        []resultDTO        `json:"results"`
}

type runDTO struct {
	ID           string `json:"id"`
	Target       string `json:"target"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
	Status       string `json:"status"`
	RequestsSent int    `json:"requests_sent"`
}

type assessmentDTO struct {
	TestsTotal  int     `json:"tests_total"`
	TestsPassed int     `json:"tests_passed"`
	TestsFailed int     `json:"tests_failed"`
	BaseScore   float64 `json:"base_score"`
	RawPenalty  int     `json:"raw_penalty"`
	Penalty     int     `json:"penalty"`
	// ConfidenceScore and Grade are null for a run with no results.
	ConfidenceScore *float64 `json:"confidence_score"`
	Grade           *string  `json:"grade"`
	Findings        tallyDTO `json:"findings_by_severity"`
	Summary         string   `json:"summary"`
}

type tallyDTO struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

type categoryScoreDTO struct {
	Category string  `json:"category"`
	Passed   int     `json:"passed"`
	Total    int     `json:"total"`
	Score    float64 `json:"score"`
}

type findingDTO struct {
	Category        string              `json:"category"`
	Severity        scan.Severity       `json:"severity"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Endpoint        string              `json:"endpoint"`
	Evidence        string              `json:"evidence"`
	MitreID         string              `json:"mitre_id,omitempty"`
	OwaspID         string              `json:"owasp_id,omitempty"`
	Classifications []classificationDTO `json:"classifications"`
	Remediation     string              `json:"remediation"`
	CVSSEstimate    float64             `json:"cvss_estimate"`
}

type classificationDTO struct {
	Scheme string `json:"scheme"`
	ID     string `json:"id"`
}

type resultDTO struct {
	TestName     string  `json:"test_name"`
	Category     string  `json:"category"`
	Passed       bool    `json:"passed"`
	Details      string  `json:"details"`
	DurationMS   float64 `json:"duration_ms"`
	RequestsSent int     `json:"requests_sent"`
	StatusCodes  []int   `json:"status_codes"`
}

// ReportRepository implements the scan.Repository interface using JSON files
// confined to a single output directory.
type ReportRepository struct {
	dir string
	mu  sync.RWMutex
}

// NewReportRepository creates a repository writing into dir
func NewReportRepository(dir string) (*ReportRepository, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &ReportRepository{dir: dir}, nil
}

// Dir returns the output directory.
func (r *ReportRepository) Dir() string {
	return r.dir
}

// Save writes run and assessment to ReportFilename and returns its path
func (r *ReportRepository) Save(ctx context.Context, run *scan.Run, assessment scan.Assessment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := Encode(run, assessment)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path, err := security.WriteFileWithin(r.dir, ReportFilename, data, consts.DefaultFilePerm)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

// Load reads a report previously written by Save. location is resolved
// inside the output directory.
func (r *ReportRepository) Load(ctx context.Context, location string) (*scan.Run, scan.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, scan.Assessment{}, err
	}
	rel := location
	if filepath.IsAbs(location) {
		abs, err := filepath.Abs(r.dir)
		if err != nil {
			return nil, scan.Assessment{}, fmt.Errorf("resolve output directory: %w", err)
		}
		if rel, err = filepath.Rel(abs, location); err != nil {
			return nil, scan.Assessment{}, fmt.Errorf("relativize %s: %w", location, err)
		}
	}
	path, err := security.ResolveWithin(r.dir, rel)
	if err != nil {
		return nil, scan.Assessment{}, err
	}

	r.mu.RLock()
	data, err := os.ReadFile(path)
	r.mu.RUnlock()
	if err != nil {
		return nil, scan.Assessment{}, fmt.Errorf("failed to read report: %w", err)
	}
	return Decode(data)
}

// Encode renders the structured report. Output is deterministic: the same
// run and assessment always encode to the same bytes.
func Encode(run *scan.Run, assessment scan.Assessment) ([]byte, error) {
	data, err := json.MarshalIndent(toDTO(run, assessment), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return append(data, '\n'), nil
}

// Decode restores a run from a structured report and re-scores it. Derived
// fields stored in the report are ignored in favour of the recomputed values.
func Decode(data []byte) (*scan.Run, scan.Assessment, error) {
	var dto reportDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, scan.Assessment{}, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	run, err := fromDTO(dto)
	if err != nil {
		return nil, scan.Assessment{}, fmt.Errorf("%w: %w", sharedErrors.ErrDeserializationFailed, err)
	}
	assessment, err := scan.Score(run.Results(), run.Findings())
	if err != nil {
		return nil, scan.Assessment{}, fmt.Errorf("failed to re-score report: %w", err)
	}
	return run, assessment, nil
}

// Helper methods

func toDTO(run *scan.Run, a scan.Assessment) reportDTO {
	dto := reportDTO{
		Run: runDTO{
			ID:           run.ID(),
			Target:       run.Target(),
			StartedAt:    formatTime(run.StartedAt()),
			CompletedAt:  formatTime(run.CompletedAt()),
			Status:       string(run.Status()),
			RequestsSent: run.RequestsSent(),
		},
		Assessment: assessmentDTO{
			TestsTotal:  a.TestsTotal,
			TestsPassed: a.TestsPassed,
			TestsFailed: a.TestsFailed,
			BaseScore:   a.BaseScore,
			RawPenalty:  a.RawPenalty,
			Penalty:     a.Penalty,
			Findings: tallyDTO{
				Critical: a.Tally.Critical,
				High:     a.Tally.High,
				Medium:   a.Tally.Medium,
				Low:      a.Tally.Low,
				Info:     a.Tally.Info,
			},
			Summary: a.Summary,
		},
		CategoryScores: make([]categoryScoreDTO, 0, len(a.CategoryScores)),
		Findings:       make([]findingDTO, 0, len(a.Findings)),
		Results:        make([]resultDTO, 0, len(a.Results)),
	}
	if a.Scored {
		score := a.ConfidenceScore
		grade := string(a.Grade)
		dto.Assessment.ConfidenceScore = &score
		dto.Assessment.Grade = &grade
	}

	for _, cs := range a.CategoryScores {
		dto.CategoryScores = append(dto.CategoryScores, categoryScoreDTO{
			Category: string(cs.Category),
			Passed:   cs.Passed,
			Total:    cs.Total,
			Score:    cs.Score,
		})
	}
	for _, f := range a.Findings {
		dto.Findings = append(dto.Findings, findingToDTO(f))
	}
	for _, res := range a.Results {
		codes := res.StatusCodes()
		if codes == nil {
			codes = []int{}
		}
		dto.Results = append(dto.Results, resultDTO{
			TestName:     res.TestName(),
			Category:     string(res.Category()),
			Passed:       res.Passed(),
			Details:      res.Details(),
			DurationMS:   res.DurationMS(),
			RequestsSent: res.RequestsSent(),
			StatusCodes:  codes,
		})
	}
	return dto
}

func findingToDTO(f scan.Finding) findingDTO {
	dto := findingDTO{
		Category:        string(f.Category()),
		Severity:        f.Severity(),
		Title:           f.Title(),
		Description:     f.Description(),
		Endpoint:        f.Endpoint(),
		Evidence:        f.Evidence(),
		Classifications: make([]classificationDTO, 0),
		Remediation:     f.Remediation(),
		CVSSEstimate:    f.CVSSEstimate(),
	}
	dto.MitreID, _ = f.ClassificationFor(scan.SchemeMITRE)
	dto.OwaspID, _ = f.ClassificationFor(scan.SchemeOWASP)
	for _, c := range f.Classifications() {
		dto.Classifications = append(dto.Classifications, classificationDTO{Scheme: c.Scheme, ID: c.ID})
	}
	return dto
}

func fromDTO(dto reportDTO) (*scan.Run, error) {
	target, err := scan.NormalizeTarget(dto.Run.Target)
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(dto.Run.Status)
	if err != nil {
		return nil, err
	}
	startedAt, err := parseTime(dto.Run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started at time: %w", err)
	}
	completedAt, err := parseTime(dto.Run.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completed at time: %w", err)
	}

	results := make([]scan.Result, 0, len(dto.Results))
	for i, rd := range dto.Results {
		category, err := scan.ParseCategory(rd.Category)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		res, err := scan.NewResult(scan.ResultParams{
			TestName:     rd.TestName,
			Category:     category,
			Passed:       rd.Passed,
			Details:      rd.Details,
			DurationMS:   rd.DurationMS,
			RequestsSent: rd.RequestsSent,
			StatusCodes:  rd.StatusCodes,
		})
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, res)
	}

	findings := make([]scan.Finding, 0, len(dto.Findings))
	for i, fd := range dto.Findings {
		classes := make([]scan.ClassificationID, 0, len(fd.Classifications))
		for _, c := range fd.Classifications {
			classes = append(classes, scan.ClassificationID{Scheme: c.Scheme, ID: c.ID})
		}
		category, err := scan.ParseFindingCategory(fd.Category)
		if err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		f, err := scan.NewFinding(scan.FindingParams{
			Category:        category,
			Severity:        fd.Severity,
			Title:           fd.Title,
			Description:     fd.Description,
			Endpoint:        fd.Endpoint,
			Evidence:        fd.Evidence,
			Classifications: classes,
			Remediation:     fd.Remediation,
			CVSSEstimate:    fd.CVSSEstimate,
		})
		if err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		findings = append(findings, f)
	}

	return scan.Reconstruct(dto.Run.ID, target, startedAt, completedAt, status, results, findings), nil
}

func parseStatus(s string) (scan.RunStatus, error) {
	switch st := scan.RunStatus(s); st {
	case scan.RunStatusPending, scan.RunStatusRunning, scan.RunStatusCompleted, scan.RunStatusUnreachable:
		return st, nil
	}
	return "", fmt.Errorf("unknown run status %q", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
