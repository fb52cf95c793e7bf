package dispatch

import "context"

// limiter is the batch-wide counting semaphore bounding simultaneously
// executing attempts. Blocked acquirers are served in roughly FIFO order by
// the channel, so no request starves under sustained load.
type limiter struct {
	slots chan struct{}
}

func newLimiter(n int) *limiter {
	return &limiter{slots: make(chan struct{}, n)}
}

func (l *limiter) acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limiter) release() {
	<-l.slots
}
