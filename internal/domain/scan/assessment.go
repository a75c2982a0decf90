package scan

import "fmt"

// Grade is the letter grade derived from the confidence score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
	// GradeNone marks an assessment with no results to score.
	GradeNone Grade = ""
)

// gradeThresholds are inclusive lower bounds, highest first.
var gradeThresholds = []struct {
	min   float64
	grade Grade
}{
	{90, GradeA},
	{80, GradeB},
	{70, GradeC},
	{60, GradeD},
	{50, GradeE},
}

// GradeFor maps a confidence score onto a letter grade.
func GradeFor(score float64) Grade {
	for _, t := range gradeThresholds {
		if score >= t.min {
			return t.grade
		}
	}
	return GradeF
}

func (g Grade) String() string {
	if g == GradeNone {
		return "N/A"
	}
	return string(g)
}

// CategoryScore is the pass rate of one result category.
type CategoryScore struct {
	Category Category
	Passed   int
	Total    int
	Score    float64
}

// FindingTally counts findings per severity.
type FindingTally struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
}

// Total returns the number of findings counted.
func (t FindingTally) Total() int {
	return t.Critical + t.High + t.Medium + t.Low + t.Info
}

// Assessment is the scored aggregate of one run. It is computed once from the
// run's results and findings and owns copies of both sequences.
type Assessment struct {
	CategoryScores []CategoryScore
	TestsTotal     int
	TestsPassed    int
	TestsFailed    int
	BaseScore      float64
	RawPenalty     int
	Penalty        int
	// Scored is false when there were no results; ConfidenceScore and Grade
	// are then meaningless and must not be displayed as numbers.
	Scored          bool
	ConfidenceScore float64
	Grade           Grade
	Tally           FindingTally
	Findings        []Finding
	Results         []Result
	Summary         string
}

// HasCritical reports whether any finding is CRITICAL.
func (a Assessment) HasCritical() bool {
	return a.Tally.Critical > 0
}

// CategoryScore looks up the score for c. Categories without results are absent.
func (a Assessment) CategoryScore(c Category) (CategoryScore, bool) {
	for _, cs := range a.CategoryScores {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// ConfidenceLabel renders the confidence score, or "n/a" when unscored.
func (a Assessment) ConfidenceLabel() string {
	if !a.Scored {
		return "n/a"
	}
	return fmt.Sprintf("%.1f/100", a.ConfidenceScore)
}
