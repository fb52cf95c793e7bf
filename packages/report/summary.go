// Package report renders batch results for humans. It is strictly a
// side-effect consumer: the dispatch core never blocks on it or depends on
// its completion.
package report

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// Summary aggregates latency and attempt counts across a batch. Safe for
// concurrent Add calls.
type Summary struct {
	mu sync.Mutex

	// Latency histogram in microseconds for precision.
	histogram *hdrhistogram.Histogram

	total    int
	failed   int
	attempts int64
	elapsed  time.Duration
}

func NewSummary() *Summary {
	return &Summary{
		// 1us to 60s range, 3 significant digits.
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// Add records a terminal result.
func (s *Summary) Add(r *wire.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.attempts += int64(r.Attempts)
	s.elapsed += r.Elapsed
	_ = s.histogram.RecordValue(r.Response.Duration.Microseconds())
}

// AddFailure records a request that produced no result.
func (s *Summary) AddFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.failed++
}

func (s *Summary) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Summary) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// TotalAttempts is the number of transport attempts across all recorded
// results, retries included.
func (s *Summary) TotalAttempts() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Summary) P50() time.Duration { return s.percentile(50) }
func (s *Summary) P95() time.Duration { return s.percentile(95) }
func (s *Summary) P99() time.Duration { return s.percentile(99) }

func (s *Summary) percentile(p float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.histogram.ValueAtQuantile(p)) * time.Microsecond
}
