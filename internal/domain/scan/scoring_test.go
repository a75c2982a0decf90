package scan

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

func makeResults(t *testing.T, category Category, passed, total int) []Result {
	t.Helper()
	out := make([]Result, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, MustResult(ResultParams{
			TestName: fmt.Sprintf("%s test %d", category, i),
			Category: category,
			Passed:   i < passed,
		}))
	}
	return out
}

func makeFindings(t *testing.T, severities ...Severity) []Finding {
	t.Helper()
	out := make([]Finding, 0, len(severities))
	for i, sev := range severities {
		out = append(out, MustFinding(FindingParams{
			Category: FindingInjection,
			Severity: sev,
			Title:    fmt.Sprintf("finding %d", i),
		}))
	}
	return out
}

func TestScore_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		passed      int
		total       int
		severities  []Severity
		wantBase    float64
		wantPenalty int
		wantScore   float64
		wantGrade   Grade
	}{
		{
			name: "all passed no findings", passed: 12, total: 12,
			wantBase: 100, wantPenalty: 0, wantScore: 100.0, wantGrade: GradeA,
		},
		{
			name: "eight of ten with one critical", passed: 8, total: 10,
			severities: []Severity{SeverityCritical},
			wantBase:   80, wantPenalty: 15, wantScore: 65.0, wantGrade: GradeD,
		},
		{
			name: "penalty under cap", passed: 5, total: 5,
			severities: []Severity{SeverityCritical, SeverityCritical, SeverityHigh, SeverityHigh},
			wantBase:   100, wantPenalty: 50, wantScore: 50.0, wantGrade: GradeE,
		},
		{
			name: "penalty capped at sixty", passed: 5, total: 5,
			severities: []Severity{
				SeverityCritical, SeverityCritical, SeverityCritical,
				SeverityCritical, SeverityCritical, SeverityCritical,
			},
			wantBase: 100, wantPenalty: 60, wantScore: 40.0, wantGrade: GradeF,
		},
		{
			name: "info findings are free", passed: 9, total: 10,
			severities: []Severity{SeverityInfo, SeverityInfo},
			wantBase:   90, wantPenalty: 0, wantScore: 90.0, wantGrade: GradeA,
		},
		{
			name: "score floors at zero", passed: 1, total: 4,
			severities: []Severity{SeverityHigh, SeverityHigh, SeverityHigh},
			wantBase:   25, wantPenalty: 30, wantScore: 0, wantGrade: GradeF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Score(makeResults(t, CategoryAuth, tt.passed, tt.total), makeFindings(t, tt.severities...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !a.Scored {
				t.Fatal("expected assessment to be scored")
			}
			if a.BaseScore != tt.wantBase {
				t.Errorf("base score: expected %.1f, got %.1f", tt.wantBase, a.BaseScore)
			}
			if a.Penalty != tt.wantPenalty {
				t.Errorf("penalty: expected %d, got %d", tt.wantPenalty, a.Penalty)
			}
			if a.ConfidenceScore != tt.wantScore {
				t.Errorf("confidence: expected %.1f, got %.1f", tt.wantScore, a.ConfidenceScore)
			}
			if a.Grade != tt.wantGrade {
				t.Errorf("grade: expected %s, got %s", tt.wantGrade, a.Grade)
			}
		})
	}
}

func TestScore_RawPenaltyIsKept(t *testing.T) {
	sevs := []Severity{SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical}
	a, err := Score(makeResults(t, CategoryJWT, 5, 5), makeFindings(t, sevs...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.RawPenalty != 90 {
		t.Errorf("expected raw penalty 90, got %d", a.RawPenalty)
	}
	if a.Tally.Critical != 6 || !a.HasCritical() {
		t.Errorf("expected 6 critical findings, got %+v", a.Tally)
	}
}

func TestScore_ConfidenceBounds(t *testing.T) {
	all := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
	for total := 1; total <= 6; total++ {
		for passed := 0; passed <= total; passed++ {
			for n := 0; n <= 12; n++ {
				sevs := make([]Severity, n)
				for i := range sevs {
					sevs[i] = all[(i+passed)%len(all)]
				}
				a, err := Score(makeResults(t, CategoryCORS, passed, total), makeFindings(t, sevs...))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if a.ConfidenceScore < 0 || a.ConfidenceScore > 100 {
					t.Fatalf("confidence %.1f out of range", a.ConfidenceScore)
				}
				if a.Penalty > MaxPenalty {
					t.Fatalf("penalty %d exceeds cap", a.Penalty)
				}
				if a.ConfidenceScore < round1(a.BaseScore-MaxPenalty) {
					t.Fatalf("confidence %.1f below base %.1f - %d", a.ConfidenceScore, a.BaseScore, MaxPenalty)
				}
			}
		}
	}
}

func TestScore_CategoryScores(t *testing.T) {
	results := append(makeResults(t, CategoryAuth, 1, 2), makeResults(t, CategoryRate, 3, 3)...)
	results = append(results, makeResults(t, CategoryAuth, 0, 1)...)

	a, err := Score(results, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.CategoryScores) != 2 {
		t.Fatalf("expected 2 categories, got %d: %+v", len(a.CategoryScores), a.CategoryScores)
	}
	if a.CategoryScores[0].Category != CategoryAuth || a.CategoryScores[1].Category != CategoryRate {
		t.Errorf("categories must keep first-seen order, got %+v", a.CategoryScores)
	}

	auth, _ := a.CategoryScore(CategoryAuth)
	if auth.Passed != 1 || auth.Total != 3 || auth.Score != 33.3 {
		t.Errorf("unexpected AUTH score %+v", auth)
	}
	rate, _ := a.CategoryScore(CategoryRate)
	if rate.Score != 100 {
		t.Errorf("unexpected RATE score %+v", rate)
	}

	if _, ok := a.CategoryScore(CategoryWebhook); ok {
		t.Error("category without results must be absent")
	}
}

func TestScore_GradeBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{100, GradeA}, {90.0, GradeA}, {89.9, GradeB}, {80.0, GradeB}, {79.9, GradeC},
		{70.0, GradeC}, {69.9, GradeD}, {60.0, GradeD}, {59.9, GradeE}, {50.0, GradeE},
		{49.9, GradeF}, {0, GradeF},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.score); got != tt.want {
			t.Errorf("GradeFor(%.1f) = %s, want %s", tt.score, got, tt.want)
		}
	}

	a, err := Score(makeResults(t, CategoryXSS, 9, 10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ConfidenceScore != 90.0 || a.Grade != GradeA {
		t.Errorf("expected 90.0/A, got %.1f/%s", a.ConfidenceScore, a.Grade)
	}
}

func TestScore_EmptyResultsIsUndefined(t *testing.T) {
	a, err := Score(nil, makeFindings(t, SeverityHigh))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Scored {
		t.Fatal("expected unscored assessment for zero results")
	}
	if a.Grade != GradeNone {
		t.Errorf("expected no grade, got %s", a.Grade)
	}
	if a.ConfidenceLabel() != "n/a" {
		t.Errorf("expected n/a label, got %s", a.ConfidenceLabel())
	}
	if len(a.CategoryScores) != 0 {
		t.Errorf("expected no category scores, got %+v", a.CategoryScores)
	}
}

func TestScore_UnknownSeverityIsRejected(t *testing.T) {
	bad := Finding{category: FindingCORS, severity: Severity(77), title: "forged"}
	_, err := Score(makeResults(t, CategoryCORS, 1, 1), []Finding{bad})
	if !errors.Is(err, sharedErrors.ErrUnknownSeverity) {
		t.Fatalf("expected ErrUnknownSeverity, got %v", err)
	}
}

func TestScore_Idempotent(t *testing.T) {
	results := append(makeResults(t, CategoryAuth, 3, 4), makeResults(t, CategoryHeaders, 0, 1)...)
	findings := makeFindings(t, SeverityHigh, SeverityLow, SeverityMedium)

	first, err := Score(results, findings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Score(results, findings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("scoring is not idempotent:\n%+v\n%+v", first, second)
	}
	if fmt.Sprintf("%#v", first) != fmt.Sprintf("%#v", second) {
		t.Fatal("scoring output differs in representation")
	}
}

func TestScore_DoesNotAliasInputs(t *testing.T) {
	results := makeResults(t, CategoryAuth, 1, 1)
	a, err := Score(results, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results[0] = MustResult(ResultParams{TestName: "replaced", Category: CategoryAuth})
	if a.Results[0].TestName() == "replaced" {
		t.Fatal("assessment must own a copy of the results")
	}
}

func TestScore_Summary(t *testing.T) {
	a, err := Score(makeResults(t, CategoryAuth, 8, 10), makeFindings(t, SeverityCritical))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Security scan completed: 10 tests, 8 passed, 2 failed. Findings: 1 Critical, 0 High, 0 Medium, 0 Low. Confidence Score: 65.0/100 (Grade: D)"
	if a.Summary != want {
		t.Errorf("unexpected summary:\n got: %s\nwant: %s", a.Summary, want)
	}
}

func TestScore_GradeUsesRoundedScore(t *testing.T) {
	// 2249/2500 = 89.96, reported as 90.0.
	a, err := Score(makeResults(t, CategoryAuth, 2249, 2500), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ConfidenceScore != 90.0 || a.Grade != GradeA {
		t.Errorf("got %.2f grade %s, want 90.0 grade A", a.ConfidenceScore, a.Grade)
	}
}
