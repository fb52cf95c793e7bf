package dispatch

import "fmt"

// PrepError is a fatal preparation failure: invalid URL, a setting attached
// at the wrong scope, a body that cannot be produced. It is raised before
// any network attempt and never retried.
type PrepError struct {
	Reason string
	Err    error
}

func (e *PrepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("preparing request: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("preparing request: %s", e.Reason)
}

func (e *PrepError) Unwrap() error { return e.Err }

// RetryExhaustedError is the terminal failure of a dispatch loop whose every
// attempt failed transiently. It carries the attempt count and the last
// underlying cause.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// RetryInterruptedError is the terminal failure of a dispatch loop whose
// backoff sleep was cut short by context cancellation. Unlike exhaustion the
// retry budget was not spent; it carries both the last transport error and
// the context cause.
type RetryInterruptedError struct {
	Attempts int
	Last     error // last transport error before the interrupted sleep
	Cause    error // the context error that interrupted it
}

func (e *RetryInterruptedError) Error() string {
	return fmt.Sprintf("retry interrupted after %d attempt(s): %v (last send error: %v)", e.Attempts, e.Cause, e.Last)
}

func (e *RetryInterruptedError) Unwrap() error { return e.Cause }

// ExecutionError wraps a non-assertion failure surfaced by the orchestrator
// after every task in the batch has finished.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
