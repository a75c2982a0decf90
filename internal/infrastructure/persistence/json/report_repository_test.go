package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/khanhnv2901/apiprobe/internal/domain/scan"
	"github.com/khanhnv2901/apiprobe/internal/security"
	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

func completedRun(t *testing.T) (*scan.Run, scan.Assessment) {
	t.Helper()
	run, err := scan.NewRun("https://api.example.test/")
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if err := run.Start(); err != nil {
		t.Fatal(err)
	}
	results := []scan.ResultParams{
		{TestName: "Brute force protection", Category: scan.CategoryAuth, Passed: true, Details: "Rate limited after 5 attempts", DurationMS: 812.25, RequestsSent: 6, StatusCodes: []int{401, 401, 401, 401, 401, 429}},
		{TestName: "JWT alg:none attack", Category: scan.CategoryJWT, Passed: false, Details: "Status: 200", DurationMS: 12.5, RequestsSent: 1, StatusCodes: []int{200}},
		{TestName: "Health endpoint reachability", Category: scan.CategoryRecon, Passed: true, Details: "no codes"},
	}
	for _, p := range results {
		if err := run.AddResult(scan.MustResult(p)); err != nil {
			t.Fatal(err)
		}
	}
	finding := scan.MustFinding(scan.FindingParams{
		Category:        scan.FindingAuthentication,
		Severity:        scan.SeverityCritical,
		Title:           "JWT 'none' algorithm accepted",
		Description:     "Server accepts unsigned tokens",
		Endpoint:        "/api/v1/users/me",
		Evidence:        "alg=none token returned 200 <script>\"quoted\"</script>",
		Classifications: []scan.ClassificationID{scan.MITRE("T1550.001"), scan.OWASP("API2:2023")},
		Remediation:     "Reject alg=none",
		CVSSEstimate:    9.8,
	})
	if err := run.AddFinding(finding); err != nil {
		t.Fatal(err)
	}
	if err := run.Complete(); err != nil {
		t.Fatal(err)
	}
	a, err := scan.Score(run.Results(), run.Findings())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	return run, a
}

func TestReportRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := NewReportRepository(dir)
	if err != nil {
		t.Fatalf("NewReportRepository: %v", err)
	}
	run, a := completedRun(t)

	path, err := repo.Save(ctx, run, a)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != ReportFilename {
		t.Errorf("unexpected report path %s", path)
	}

	loaded, la, err := repo.Load(ctx, ReportFilename)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID() != run.ID() || loaded.Target() != "https://api.example.test" {
		t.Errorf("run identity not restored: %s %s", loaded.ID(), loaded.Target())
	}
	if loaded.Status() != scan.RunStatusCompleted {
		t.Errorf("status = %s", loaded.Status())
	}
	if !loaded.StartedAt().Equal(run.StartedAt()) || !loaded.CompletedAt().Equal(run.CompletedAt()) {
		t.Error("timestamps not restored")
	}
	if la.ConfidenceScore != a.ConfidenceScore || la.Grade != a.Grade || la.Tally != a.Tally {
		t.Errorf("assessment mismatch: got %.1f %s, want %.1f %s", la.ConfidenceScore, la.Grade, a.ConfidenceScore, a.Grade)
	}

	f := loaded.Findings()[0]
	if f.Evidence() != run.Findings()[0].Evidence() {
		t.Errorf("evidence must be stored untruncated, got %q", f.Evidence())
	}
	if id, _ := f.ClassificationFor(scan.SchemeOWASP); id != "API2:2023" {
		t.Errorf("OWASP classification lost: %q", id)
	}
	if got := loaded.Results()[0].StatusCodes(); len(got) != 6 || got[5] != 429 {
		t.Errorf("status codes lost: %v", got)
	}

	// Absolute path inside the directory is accepted too.
	if _, _, err := repo.Load(ctx, path); err != nil {
		t.Errorf("Load by absolute path: %v", err)
	}
}

func TestEncode_IsDeterministic(t *testing.T) {
	run, a := completedRun(t)

	first, err := Encode(run, a)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	loaded, la, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, err := Encode(loaded, la)
	if err != nil {
		t.Fatalf("Encode after Decode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip changed the report:\n%s\n---\n%s", first, second)
	}
}

func TestEncode_Fields(t *testing.T) {
	run, a := completedRun(t)
	data, err := Encode(run, a)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	assessment := doc["assessment"].(map[string]any)
	// 2/3 passed = 66.7, minus 15 = 51.7
	if assessment["confidence_score"] != 51.7 || assessment["grade"] != "E" {
		t.Errorf("unexpected score fields: %v %v", assessment["confidence_score"], assessment["grade"])
	}
	finding := doc["findings"].([]any)[0].(map[string]any)
	if finding["severity"] != "CRITICAL" || finding["mitre_id"] != "T1550.001" || finding["owasp_id"] != "API2:2023" {
		t.Errorf("unexpected finding fields: %v", finding)
	}
	result := doc["results"].([]any)[2].(map[string]any)
	if codes, ok := result["status_codes"].([]any); !ok || len(codes) != 0 {
		t.Errorf("empty status codes must encode as [], got %v", result["status_codes"])
	}
}

func TestEncode_UnscoredRun(t *testing.T) {
	run, err := scan.NewRun("http://localhost:8080")
	if err != nil {
		t.Fatal(err)
	}
	_ = run.Start()
	_ = run.MarkUnreachable()
	a, _ := scan.Score(nil, nil)

	data, err := Encode(run, a)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var doc struct {
		Assessment struct {
			ConfidenceScore *float64 `json:"confidence_score"`
			Grade           *string  `json:"grade"`
		} `json:"assessment"`
		Results  []any `json:"results"`
		Findings []any `json:"findings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Assessment.ConfidenceScore != nil || doc.Assessment.Grade != nil {
		t.Error("unscored run must encode null score and grade")
	}
	if doc.Results == nil || doc.Findings == nil {
		t.Error("empty collections must encode as [] not null")
	}

	loaded, la, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if loaded.Status() != scan.RunStatusUnreachable || la.Scored {
		t.Errorf("unexpected restore: %s scored=%v", loaded.Status(), la.Scored)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "unknown severity", data: `{"run":{"id":"x","target":"http://a.test","status":"completed"},"findings":[{"category":"XSS","severity":"URGENT","title":"t"}]}`},
		{name: "unknown category", data: `{"run":{"id":"x","target":"http://a.test","status":"completed"},"results":[{"test_name":"t","category":"NOPE"}]}`},
		{name: "unknown finding category", data: `{"run":{"id":"x","target":"http://a.test","status":"completed"},"findings":[{"category":"Phishing","severity":"LOW","title":"t"}]}`},
		{name: "bad status", data: `{"run":{"id":"x","target":"http://a.test","status":"exploded"}}`},
		{name: "bad target", data: `{"run":{"id":"x","target":"ftp://a.test","status":"completed"}}`},
		{name: "bad time", data: `{"run":{"id":"x","target":"http://a.test","status":"completed","started_at":"yesterday"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Decode([]byte(tt.data)); !errors.Is(err, sharedErrors.ErrDeserializationFailed) {
				t.Errorf("expected ErrDeserializationFailed, got %v", err)
			}
		})
	}
}

func TestDecode_UnknownCategoryIsTyped(t *testing.T) {
	data := `{"run":{"id":"x","target":"http://a.test","status":"completed"},"results":[{"test_name":"t","category":"recon"}]}`
	if _, _, err := Decode([]byte(data)); !errors.Is(err, sharedErrors.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestReportRepository_LoadOutsideDir(t *testing.T) {
	base := t.TempDir()
	repo, err := NewReportRepository(filepath.Join(base, "out"))
	if err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(base, "other.json")
	if err := os.WriteFile(outside, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := repo.Load(context.Background(), outside); !errors.Is(err, security.ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
	if _, _, err := repo.Load(context.Background(), "../other.json"); !errors.Is(err, security.ErrPathEscape) {
		t.Errorf("expected ErrPathEscape, got %v", err)
	}
}

func TestNewReportRepository_EmptyDir(t *testing.T) {
	if _, err := NewReportRepository(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestReportRepository_SaveCancelled(t *testing.T) {
	repo, err := NewReportRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run, a := completedRun(t)
	if _, err := repo.Save(ctx, run, a); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
