package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// fakeTransport is a scriptable Transport that records call counts, request
// order and peak in-flight attempts.
type fakeTransport struct {
	mu      sync.Mutex
	calls   int
	order   []string
	lastReq *wire.Request

	failFirst int           // fail this many initial calls with a transport error
	status    int           // response status, 200 when zero
	body      []byte
	delay     time.Duration // simulated network latency

	// handler, when set, overrides the scripted behavior entirely.
	handler func(req *wire.Request, call int) (*wire.Response, error)

	inflight    int32
	maxInflight int32
}

func (f *fakeTransport) Send(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.order = append(f.order, req.URL)
	f.lastReq = req
	f.mu.Unlock()

	cur := atomic.AddInt32(&f.inflight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInflight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInflight, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.inflight, -1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.handler != nil {
		return f.handler(req, call)
	}

	if call <= f.failFirst {
		return nil, errors.New("connection refused")
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	body := f.body
	if body == nil {
		body = []byte(`{}`)
	}

	return &wire.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
		Duration:   f.delay,
	}, nil
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTransport) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

func (f *fakeTransport) last() *wire.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func okResponse(status int, body string) (*wire.Response, error) {
	return &wire.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       []byte(body),
	}, nil
}
