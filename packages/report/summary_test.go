package report

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

func resultWithDuration(d time.Duration, attempts int) *wire.Result {
	return &wire.Result{
		SpecName: "r",
		Response: &wire.Response{StatusCode: 200, Duration: d},
		Attempts: attempts,
		Elapsed:  d,
	}
}

func TestSummary_Counts(t *testing.T) {
	s := NewSummary()
	s.Add(resultWithDuration(10*time.Millisecond, 1))
	s.Add(resultWithDuration(20*time.Millisecond, 3))
	s.AddFailure()

	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, int64(4), s.TotalAttempts())
}

func TestSummary_Percentiles(t *testing.T) {
	s := NewSummary()
	for i := 1; i <= 100; i++ {
		s.Add(resultWithDuration(time.Duration(i)*time.Millisecond, 1))
	}

	// Histogram precision is 3 significant digits; allow 1ms of slack.
	assert.InDelta(t, 50, s.P50().Milliseconds(), 1)
	assert.InDelta(t, 95, s.P95().Milliseconds(), 1)
	assert.InDelta(t, 99, s.P99().Milliseconds(), 1)
}

func TestSummary_ConcurrentAdd(t *testing.T) {
	s := NewSummary()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(resultWithDuration(5*time.Millisecond, 2))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Count())
	assert.Equal(t, int64(100), s.TotalAttempts())
}
