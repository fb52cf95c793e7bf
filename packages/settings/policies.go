package settings

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/salvo/packages/store"
)

// MaxRetryDelay is the upper clamp for any computed backoff delay.
const MaxRetryDelay = 5 * time.Minute

// progressiveSteps are the fixed backoff steps for attempt indices 0..4.
var progressiveSteps = []time.Duration{
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
}

// ProgressiveDelay is the default backoff policy: 10, 25, 50, 100, 200 ms
// for the first five attempts, then growing by 200 ms per attempt
// (400 ms for attempt 5, 600 ms for attempt 6, and so on).
func ProgressiveDelay() DelayFunc {
	return func(attempt int, _ store.Reader) time.Duration {
		if attempt < 0 {
			return 0
		}
		if attempt < len(progressiveSteps) {
			return progressiveSteps[attempt]
		}
		return time.Duration(attempt-3) * 200 * time.Millisecond
	}
}

// NoDelay retries immediately.
func NoDelay() DelayFunc {
	return func(int, store.Reader) time.Duration { return 0 }
}

// ConstantDelay retries after a fixed delay. Unlike function policies, whose
// results are clamped silently at run time, the constant constructor
// validates eagerly: a value outside [0, MaxRetryDelay] is an error.
func ConstantDelay(d time.Duration) (DelayFunc, error) {
	if d < 0 || d > MaxRetryDelay {
		return nil, fmt.Errorf("constant retry delay %v out of range [0, %v]", d, MaxRetryDelay)
	}
	return func(int, store.Reader) time.Duration { return d }, nil
}

// ClampDelay bounds a computed delay to [0, MaxRetryDelay].
func ClampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxRetryDelay {
		return MaxRetryDelay
	}
	return d
}
