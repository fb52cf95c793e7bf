package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/salvo/packages/expect"
	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/store"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

func specsNumbered(n int) []RequestSpec {
	specs := make([]RequestSpec, n)
	for i := range specs {
		specs[i] = NewSpec("GET", fmt.Sprintf("/item/%d", i))
	}
	return specs
}

func TestFire_ParallelRespectsConcurrencyLimit(t *testing.T) {
	ft := &fakeTransport{delay: 20 * time.Millisecond}
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithConcurrencyLimit(3)))

	results, err := cfg.Fire(context.Background(), specsNumbered(12)...)
	require.NoError(t, err)
	assert.Equal(t, 12, ft.callCount())
	assert.LessOrEqual(t, ft.maxInflight, int32(3))

	for _, r := range results {
		assert.NotNil(t, r)
	}
}

func TestFire_SequentialNeverOverlaps(t *testing.T) {
	ft := &fakeTransport{delay: 10 * time.Millisecond}
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithFireMode(settings.Sequential)))

	_, err := cfg.Fire(context.Background(), specsNumbered(5)...)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ft.maxInflight)

	order := ft.callOrder()
	require.Len(t, order, 5)
	for i, url := range order {
		assert.True(t, strings.HasSuffix(url, fmt.Sprintf("/item/%d", i)))
	}
}

func TestFire_SequentialHoldsPermitAcrossRetries(t *testing.T) {
	// Every call fails once before succeeding; in sequential mode the retry
	// of one request must finish before the next request starts.
	ft := &fakeTransport{}
	ft.handler = func(req *wire.Request, call int) (*wire.Response, error) {
		if call%2 == 1 {
			return nil, fmt.Errorf("transient")
		}
		return okResponse(200, `{}`)
	}

	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(
			settings.WithFireMode(settings.Sequential),
			settings.WithRetryLimit(1),
			settings.WithRetryDelay(settings.NoDelay()),
		))

	results, err := cfg.Fire(context.Background(), specsNumbered(3)...)
	require.NoError(t, err)
	assert.Equal(t, 6, ft.callCount())
	assert.Equal(t, int32(1), ft.maxInflight)

	order := ft.callOrder()
	// Both attempts of each request are adjacent.
	for i := 0; i < 6; i += 2 {
		assert.Equal(t, order[i], order[i+1])
	}
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 2, r.Attempts)
	}
}

func TestFire_PacingForcesSequentialOrder(t *testing.T) {
	ft := &fakeTransport{}
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(
			// An explicit parallel mode loses to a configured pace.
			settings.WithFireMode(settings.Parallel),
			settings.WithPaceEvery(30*time.Millisecond),
		))

	start := time.Now()
	_, err := cfg.Fire(context.Background(), specsNumbered(3)...)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Equal(t, int32(1), ft.maxInflight)

	order := ft.callOrder()
	for i, url := range order {
		assert.True(t, strings.HasSuffix(url, fmt.Sprintf("/item/%d", i)))
	}
}

func TestFire_PacingReconsultsContextBeforeEachStart(t *testing.T) {
	ft := &fakeTransport{}
	var consulted int
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithPacing(func(ctx store.Reader) time.Duration {
			consulted++
			if d, ok := store.Get[time.Duration](ctx, "pace"); ok {
				return d
			}
			return 0
		})))

	_, err := cfg.Fire(context.Background(), specsNumbered(4)...)
	require.NoError(t, err)
	// No pace before the first start.
	assert.Equal(t, 3, consulted)
}

func TestFire_WaitsForAllTasks(t *testing.T) {
	ft := &fakeTransport{delay: 5 * time.Millisecond}
	ft.handler = func(req *wire.Request, call int) (*wire.Response, error) {
		if strings.HasSuffix(req.URL, "/bad") {
			return okResponse(500, `{}`)
		}
		return okResponse(200, `{}`)
	}

	cfg := NewConfig("http://api.test", WithTransport(ft))

	ok200 := settings.WithExpectation(expect.StatusIs(200))
	specs := []RequestSpec{
		NewSpec("GET", "/a").With(ok200),
		NewSpec("GET", "/bad").With(ok200),
		NewSpec("GET", "/b").With(ok200),
		NewSpec("GET", "/c").With(ok200),
	}

	results, err := cfg.Fire(context.Background(), specs...)
	require.Error(t, err)
	assert.True(t, expect.IsAssertion(err))

	// The failure did not short-circuit the rest of the batch.
	assert.Equal(t, 4, ft.callCount())
	for _, r := range results {
		assert.NotNil(t, r)
	}
}

func TestFire_PrefersAssertionFailureAsRepresentative(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *wire.Request, call int) (*wire.Response, error) {
		if strings.HasSuffix(req.URL, "/boom") {
			return nil, fmt.Errorf("connection reset")
		}
		return okResponse(404, `{}`)
	}

	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithFireMode(settings.Sequential)))

	// The infrastructure failure happens first in batch order; the assertion
	// failure still wins as the representative error.
	specs := []RequestSpec{
		NewSpec("GET", "/boom"),
		NewSpec("GET", "/missing").With(settings.WithExpectation(expect.StatusIs(200))),
	}

	_, err := cfg.Fire(context.Background(), specs...)
	require.Error(t, err)
	assert.True(t, expect.IsAssertion(err))
}

func TestFire_FirstFailureWrappedWhenNoAssertions(t *testing.T) {
	ft := &fakeTransport{}
	ft.handler = func(req *wire.Request, call int) (*wire.Response, error) {
		if strings.HasSuffix(req.URL, "/boom") {
			return nil, fmt.Errorf("connection reset")
		}
		return okResponse(200, `{}`)
	}

	cfg := NewConfig("http://api.test", WithTransport(ft))

	results, err := cfg.Fire(context.Background(),
		NewSpec("GET", "/ok"),
		NewSpec("GET", "/boom"),
	)
	require.Error(t, err)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	var ree *RetryExhaustedError
	require.ErrorAs(t, err, &ree)

	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
}

func TestFire_ConcurrencyLimitOutOfRange(t *testing.T) {
	for _, limit := range []int{0, -1, 1001} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			ft := &fakeTransport{}
			cfg := NewConfig("http://api.test",
				WithTransport(ft),
				WithSettings(settings.WithConcurrencyLimit(limit)))

			results, err := cfg.Fire(context.Background(), NewSpec("GET", "/x"))
			require.Error(t, err)
			assert.Nil(t, results)

			var pe *PrepError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 0, ft.callCount())
		})
	}
}

func TestFire_SessionResetsBetweenBatches(t *testing.T) {
	ft := &fakeTransport{body: []byte(`{"token": "t1"}`)}
	cfg := NewConfig("http://api.test", WithTransport(ft))

	login := NewSpec("POST", "/login").With(
		settings.WithCapture("token", store.TierSession, expect.CaptureBodyPath("token")),
	)

	_, err := cfg.Fire(context.Background(), login)
	require.NoError(t, err)
	_, ok := store.Get[string](cfg.Store(), "token")
	require.True(t, ok)

	// The next batch starts with a fresh session tier.
	_, err = cfg.Fire(context.Background(), NewSpec("GET", "/other"))
	require.NoError(t, err)
	_, ok = store.Get[string](cfg.Store(), "token")
	assert.False(t, ok)
}

func TestFire_PersistentSessionSurvivesBatches(t *testing.T) {
	ft := &fakeTransport{body: []byte(`{"token": "t1"}`)}
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithPersistentSession()))

	login := NewSpec("POST", "/login").With(
		settings.WithCapture("token", store.TierSession, expect.CaptureBodyPath("token")),
	)

	_, err := cfg.Fire(context.Background(), login)
	require.NoError(t, err)

	me := NewSpec("GET", "/me").With(
		settings.HeaderFromContext("Authorization", "token", "Bearer %v"),
	)
	_, err = cfg.Fire(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t1", ft.last().Headers["Authorization"])
}

func TestFire_GlobalTierSurvivesDerivedConfigs(t *testing.T) {
	ft := &fakeTransport{body: []byte(`{"token": "g1"}`)}
	base := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithGlobalContext()))

	login := NewSpec("POST", "/login").With(
		settings.WithCapture("token", store.TierGlobal, expect.CaptureBodyPath("token")),
	)
	_, err := base.Fire(context.Background(), login)
	require.NoError(t, err)

	derived := base.With(settings.WithHeader("X-Suite", "smoke"))
	me := NewSpec("GET", "/me").With(
		settings.HeaderFromContext("Authorization", "token", "Bearer %v"),
	)
	_, err = derived.Fire(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, "Bearer g1", ft.last().Headers["Authorization"])
}

func TestFire_ThrottleBoundsSendRate(t *testing.T) {
	ft := &fakeTransport{}
	cfg := NewConfig("http://api.test",
		WithTransport(ft),
		WithSettings(settings.WithThrottle(100)))

	start := time.Now()
	_, err := cfg.Fire(context.Background(), specsNumbered(4)...)
	elapsed := time.Since(start)

	require.NoError(t, err)
	// 100 rps with a burst of one means at least ~10ms between sends.
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
}

func TestFire_ResultsShareOneSessionID(t *testing.T) {
	ft := &fakeTransport{}
	cfg := NewConfig("http://api.test", WithTransport(ft))

	results, err := cfg.Fire(context.Background(), specsNumbered(3)...)
	require.NoError(t, err)

	sid := results[0].SessionID
	for _, r := range results {
		assert.Equal(t, sid, r.SessionID)
	}

	// A second batch gets a new session identity.
	again, err := cfg.Fire(context.Background(), NewSpec("GET", "/x"))
	require.NoError(t, err)
	assert.NotEqual(t, sid, again[0].SessionID)
}

func TestFire_EmptyBatch(t *testing.T) {
	cfg := NewConfig("http://api.test", WithTransport(&fakeTransport{}))

	results, err := cfg.Fire(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}
