// Package dispatch fires bursts of identical requests with bounded concurrency.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/khanhnv2901/apiprobe/internal/infrastructure/httpclient"
)

// Doer is the subset of the HTTP facade a burst needs.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) httpclient.Response
}

// Batch holds the outcomes of one burst in submission order.
type Batch struct {
	// StatusCodes has exactly one entry per request; 0 marks a transport failure.
	StatusCodes []int
	Elapsed     time.Duration
}

// Count returns how many requests ended with code.
func (b Batch) Count(code int) int {
	n := 0
	for _, c := range b.StatusCodes {
		if c == code {
			n++
		}
	}
	return n
}

// Failures returns how many requests got no HTTP response.
func (b Batch) Failures() int {
	return b.Count(0)
}

// Any reports whether at least one request ended with code.
func (b Batch) Any(code int) bool {
	return b.Count(code) > 0
}

// Burst sends req n times with at most concurrency requests in flight and
// waits for every one of them. Requests bypass the client's rate limiter.
func Burst(ctx context.Context, doer Doer, req httpclient.Request, n, concurrency int) (Batch, error) {
	if n < 0 {
		return Batch{}, fmt.Errorf("burst size must be >= 0, got %d", n)
	}
	if concurrency < 1 {
		return Batch{}, fmt.Errorf("burst concurrency must be >= 1, got %d", concurrency)
	}

	req.Unpaced = true
	codes := make([]int, n)
	start := time.Now()

	p := pool.New().WithMaxGoroutines(concurrency)
	for i := 0; i < n; i++ {
		p.Go(func() {
			resp := doer.Do(ctx, req)
			if resp.Err != nil {
				codes[i] = 0
				return
			}
			codes[i] = resp.StatusCode
		})
	}
	p.Wait()

	return Batch{StatusCodes: codes, Elapsed: time.Since(start)}, nil
}
