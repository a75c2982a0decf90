package scan

import (
	"fmt"
	"math"
)

// MaxPenalty caps the total severity penalty applied to the base score.
const MaxPenalty = 60

// Score computes the Assessment for the given results and findings. It does
// not modify its inputs and returns the same value for the same inputs.
// An error is returned only when a finding carries an unknown severity.
func Score(results []Result, findings []Finding) (Assessment, error) {
	a := Assessment{
		Findings: append([]Finding{}, findings...),
		Results:  append([]Result{}, results...),
	}

	rawPenalty := 0
	for _, f := range findings {
		w, err := f.severity.Weight()
		if err != nil {
			return Assessment{}, fmt.Errorf("score finding %q: %w", f.title, err)
		}
		rawPenalty += w
		a.Tally.add(f.severity)
	}
	a.RawPenalty = rawPenalty
	a.Penalty = min(rawPenalty, MaxPenalty)

	a.CategoryScores = categoryScores(results)
	a.TestsTotal = len(results)
	for _, r := range results {
		if r.passed {
			a.TestsPassed++
		}
	}
	a.TestsFailed = a.TestsTotal - a.TestsPassed

	if a.TestsTotal > 0 {
		a.Scored = true
		a.BaseScore = 100 * float64(a.TestsPassed) / float64(a.TestsTotal)
		a.ConfidenceScore = round1(math.Max(0, a.BaseScore-float64(a.Penalty)))
		// Graded on the rounded score so a reported 90.0 is always an A.
		a.Grade = GradeFor(a.ConfidenceScore)
	}
	a.Summary = summarize(a)
	return a, nil
}

// categoryScores groups results by category in first-seen order.
func categoryScores(results []Result) []CategoryScore {
	index := make(map[Category]int)
	scores := make([]CategoryScore, 0)
	for _, r := range results {
		i, ok := index[r.category]
		if !ok {
			i = len(scores)
			index[r.category] = i
			scores = append(scores, CategoryScore{Category: r.category})
		}
		scores[i].Total++
		if r.passed {
			scores[i].Passed++
		}
	}
	for i := range scores {
		scores[i].Score = round1(100 * float64(scores[i].Passed) / float64(scores[i].Total))
	}
	return scores
}

func (t *FindingTally) add(s Severity) {
	switch s {
	case SeverityCritical:
		t.Critical++
	case SeverityHigh:
		t.High++
	case SeverityMedium:
		t.Medium++
	case SeverityLow:
		t.Low++
	case SeverityInfo:
		t.Info++
	}
}

func summarize(a Assessment) string {
	return fmt.Sprintf("Security scan completed: %d tests, %d passed, %d failed. "+
		"Findings: %d Critical, %d High, %d Medium, %d Low. Confidence Score: %s (Grade: %s)",
		a.TestsTotal, a.TestsPassed, a.TestsFailed,
		a.Tally.Critical, a.Tally.High, a.Tally.Medium, a.Tally.Low,
		a.ConfidenceLabel(), a.Grade)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
