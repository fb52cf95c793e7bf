package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/salvo/packages/expect"
	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// outcome is what one dispatch loop reports back to the orchestrator.
// assertion marks verification failures of the assertion kind, which the
// orchestrator propagates verbatim instead of wrapping.
type outcome struct {
	result    *wire.Result
	err       error
	assertion bool
}

// dispatchOne runs the full per-request state machine: resolve settings,
// materialize deferred context settings, then acquire/send/retry until a
// terminal state, followed by captures and verification.
//
// Permit discipline differs by mode. In sequential mode one permit is held
// across every attempt, backoff sleeps included. In parallel mode a fresh
// permit is taken per attempt and released before the backoff sleep so the
// slot is usable while this request waits.
func (c *DispatchConfig) dispatchOne(ctx context.Context, b *batchRun, spec RequestSpec) outcome {
	var out outcome

	if err := settings.Validate(spec.settings, settings.ScopeRequest); err != nil {
		out.err = &PrepError{Reason: "request settings", Err: err}
		return out
	}

	merged := settings.Merge(c.settings, spec.settings)

	// Materialize deferred settings against the live context, once per
	// request, immediately before dispatch.
	for _, r := range settings.All[settings.ContextResolver](merged) {
		if r.Func == nil {
			continue
		}
		if st, ok := r.Func(c.store); ok && st != nil {
			merged = append(merged, st)
		}
	}

	eff := resolveEffective(merged)

	req, err := c.buildRequest(spec, eff)
	if err != nil {
		out.err = err
		return out
	}

	if b.mode == settings.Sequential {
		if err := b.limiter.acquire(ctx); err != nil {
			out.err = err
			return out
		}
		defer b.limiter.release()
	}

	start := time.Now()
	attempts := 0
	var resp *wire.Response

	for {
		// The rate token is taken before the permit so a throttled attempt
		// does not occupy a concurrency slot while it waits.
		if b.throttle != nil {
			if err := b.throttle.Wait(ctx); err != nil {
				out.err = err
				return out
			}
		}

		if b.mode == settings.Parallel {
			if err := b.limiter.acquire(ctx); err != nil {
				out.err = err
				return out
			}
		}

		attempts++
		r, sendErr := c.transport.Send(ctx, req)

		if b.mode == settings.Parallel {
			b.limiter.release()
		}

		if sendErr == nil {
			// Any delivered response is a success here; the status code is
			// an application-level concern for the expectations, never a
			// retry signal.
			resp = r
			break
		}

		if attempts > eff.retryLimit {
			out.err = &RetryExhaustedError{Attempts: attempts, Last: sendErr}
			return out
		}

		delay := settings.ClampDelay(eff.delay(attempts-1, c.store))
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				// An interrupted sleep means stop retrying and fail, never
				// retry immediately. The budget was not spent, so this is
				// an interruption, not exhaustion.
				out.err = &RetryInterruptedError{Attempts: attempts, Last: sendErr, Cause: ctx.Err()}
				return out
			}
		}
	}

	result := wire.NewResult(b.sessionID, spec.Name(), req, resp, attempts, time.Since(start))
	out.result = result

	// Captures run after the terminal outcome is known and before the
	// result reaches the expectations. A write to an unattached global tier
	// is fatal for this request.
	for _, cpt := range eff.captures {
		if cpt.Func == nil {
			continue
		}
		value := cpt.Func(result, c.store)
		if err := c.store.Set(cpt.Key, value, cpt.Tier); err != nil {
			out.err = fmt.Errorf("capture %q: %w", cpt.Key, err)
			return out
		}
	}

	for _, ex := range eff.expectations {
		if ex.Verifier == nil {
			continue
		}
		if err := ex.Verifier.Verify(result); err != nil {
			out.err = err
			out.assertion = expect.IsAssertion(err)
			return out
		}
	}

	return out
}
