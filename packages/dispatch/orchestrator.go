package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// batchRun carries the state shared by every task in one Fire call.
type batchRun struct {
	sessionID uuid.UUID
	mode      settings.Mode
	limiter   *limiter
	throttle  *rate.Limiter
	pace      settings.PaceFunc
}

// Fire dispatches the given specs as one batch and returns their results in
// spec order (nil entries for requests that produced no result). It waits
// for every task to finish, never failing fast; if any task failed, one
// representative error is returned after the whole batch is done. Assertion
// failures are preferred and propagated verbatim; anything else comes back
// wrapped in an ExecutionError.
//
// Fire mode defaults to parallel, the concurrency limit to
// DefaultConcurrencyLimit. A configured pacing function forces sequential
// execution regardless of an explicit fire mode, since paced starts are
// strictly ordered by definition.
func (c *DispatchConfig) Fire(ctx context.Context, specs ...RequestSpec) ([]*wire.Result, error) {
	if err := settings.Validate(c.settings, settings.ScopeBatch); err != nil {
		return nil, &PrepError{Reason: "batch settings", Err: err}
	}

	mode := settings.LastOr(c.settings, settings.WithFireMode(settings.Parallel)).Mode

	limit := settings.LastOr(c.settings, settings.WithConcurrencyLimit(DefaultConcurrencyLimit)).Limit
	if limit < MinConcurrencyLimit || limit > MaxConcurrencyLimit {
		return nil, &PrepError{
			Reason: fmt.Sprintf("concurrency limit %d out of range [%d, %d]", limit, MinConcurrencyLimit, MaxConcurrencyLimit),
		}
	}

	var pace settings.PaceFunc
	if p, ok := settings.Last[settings.Pacing](c.settings); ok && p.Func != nil {
		pace = p.Func
		mode = settings.Sequential
	}

	var throttle *rate.Limiter
	if t, ok := settings.Last[settings.Throttle](c.settings); ok && t.RPS > 0 {
		throttle = rate.NewLimiter(rate.Limit(t.RPS), 1)
	}

	// A fresh session tier per batch, unless the config explicitly persists
	// it across batches for chaining.
	if !c.persistentSession() {
		c.store.ResetSession()
	}

	b := &batchRun{
		sessionID: uuid.New(),
		mode:      mode,
		limiter:   newLimiter(limit),
		throttle:  throttle,
		pace:      pace,
	}

	var outcomes []outcome
	if mode == settings.Sequential {
		outcomes = c.fireSequential(ctx, b, specs)
	} else {
		outcomes = c.fireParallel(ctx, b, specs)
	}

	results := make([]*wire.Result, len(specs))
	var firstFailure, firstAssertion error
	for i, o := range outcomes {
		results[i] = o.result
		if o.err == nil {
			continue
		}
		if firstFailure == nil {
			firstFailure = o.err
		}
		if o.assertion && firstAssertion == nil {
			firstAssertion = o.err
		}
	}

	if firstAssertion != nil {
		return results, firstAssertion
	}
	if firstFailure != nil {
		return results, &ExecutionError{Err: firstFailure}
	}
	return results, nil
}

// fireParallel spawns one task per spec. The concurrency limiter inside the
// dispatch loop bounds simultaneously executing attempts independently of
// the number of spawned tasks, and every task's outcome is collected before
// returning.
func (c *DispatchConfig) fireParallel(ctx context.Context, b *batchRun, specs []RequestSpec) []outcome {
	outcomes := make([]outcome, len(specs))
	var wg sync.WaitGroup

	for i, spec := range specs {
		wg.Add(1)
		go func(idx int, sp RequestSpec) {
			defer wg.Done()
			outcomes[idx] = c.dispatchOne(ctx, b, sp)
		}(i, spec)
	}

	wg.Wait()
	return outcomes
}

// fireSequential runs specs strictly in order. The pacing delay, when
// configured, is re-evaluated against the live context before each start
// after the first.
func (c *DispatchConfig) fireSequential(ctx context.Context, b *batchRun, specs []RequestSpec) []outcome {
	outcomes := make([]outcome, len(specs))

	for i, spec := range specs {
		if i > 0 && b.pace != nil {
			delay := settings.ClampDelay(b.pace(c.store))
			if delay > 0 {
				select {
				case <-ctx.Done():
					for j := i; j < len(specs); j++ {
						outcomes[j].err = ctx.Err()
					}
					return outcomes
				case <-time.After(delay):
				}
			}
		}
		outcomes[i] = c.dispatchOne(ctx, b, spec)
	}

	return outcomes
}
