package scan

import (
	"fmt"
	"strings"

	sharedErrors "github.com/khanhnv2901/apiprobe/internal/shared/errors"
)

// ResultParams carries the fields needed to construct a Result.
type ResultParams struct {
	TestName     string
	Category     Category
	Passed       bool
	Details      string
	DurationMS   float64
	RequestsSent int
	StatusCodes  []int
}

// Result is the pass/fail outcome of one probe assertion.
type Result struct {
	testName     string
	category     Category
	passed       bool
	details      string
	durationMS   float64
	requestsSent int
	statusCodes  []int
}

// NewResult validates p and returns the Result it describes.
func NewResult(p ResultParams) (Result, error) {
	if strings.TrimSpace(p.TestName) == "" {
		return Result{}, fmt.Errorf("%w: test name is required", sharedErrors.ErrInvalidResult)
	}
	if !p.Category.Valid() {
		return Result{}, fmt.Errorf("%w: result %q has category %q", sharedErrors.ErrUnknownCategory, p.TestName, p.Category)
	}
	if p.DurationMS < 0 {
		return Result{}, fmt.Errorf("%w: negative duration %.2f", sharedErrors.ErrInvalidResult, p.DurationMS)
	}
	if p.RequestsSent < 0 {
		return Result{}, fmt.Errorf("%w: negative request count %d", sharedErrors.ErrInvalidResult, p.RequestsSent)
	}

	return Result{
		testName:     p.TestName,
		category:     p.Category,
		passed:       p.Passed,
		details:      p.Details,
		durationMS:   p.DurationMS,
		requestsSent: p.RequestsSent,
		statusCodes:  append([]int(nil), p.StatusCodes...),
	}, nil
}

// MustResult is NewResult for results built from static probe definitions.
func MustResult(p ResultParams) Result {
	r, err := NewResult(p)
	if err != nil {
		panic(err)
	}
	return r
}

// Getters

func (r Result) TestName() string {
	return r.testName
}

func (r Result) Category() Category {
	return r.category
}

func (r Result) Passed() bool {
	return r.passed
}

func (r Result) Details() string {
	return r.details
}

func (r Result) DurationMS() float64 {
	return r.durationMS
}

func (r Result) RequestsSent() int {
	return r.requestsSent
}

// StatusCodes returns the observed HTTP status codes in request order.
func (r Result) StatusCodes() []int {
	return append([]int(nil), r.statusCodes...)
}
