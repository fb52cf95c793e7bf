package settings

import (
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/salvo/packages/store"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// Mode selects how a batch fires its requests.
type Mode int

const (
	Parallel Mode = iota
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "parallel"
}

// Level controls reporting verbosity.
type Level int

const (
	LevelQuiet Level = iota
	LevelNormal
	LevelVerbose
)

// DelayFunc computes the backoff delay before retry attempt+1, given the
// zero-based index of the attempt that just failed and the current context.
// Results are clamped to [0, MaxRetryDelay] by the dispatch loop.
type DelayFunc func(attempt int, ctx store.Reader) time.Duration

// PaceFunc computes the delay inserted before starting the next request in
// a paced batch. It is re-consulted against the live context before each
// start.
type PaceFunc func(ctx store.Reader) time.Duration

// ResolveFunc synthesizes a setting from current context, evaluated once per
// request immediately before dispatch. Returning false adds nothing. It must
// be side-effect free apart from its return value.
type ResolveFunc func(ctx store.Reader) (Setting, bool)

// CaptureFunc derives a value from a terminal result and the current
// context. It runs once per request, after the terminal outcome is known and
// before verification.
type CaptureFunc func(r *wire.Result, ctx store.Reader) any

// Verifier is the expectation contract. An assertion-kind failure must be
// distinguishable from other verification errors by the caller; see the
// expect package.
type Verifier interface {
	Verify(r *wire.Result) error
}

type FireMode struct{ Mode Mode }

func (FireMode) Kind() Kind { return KindFireMode }

func WithFireMode(m Mode) FireMode { return FireMode{Mode: m} }

type ConcurrencyLimit struct{ Limit int }

func (ConcurrencyLimit) Kind() Kind { return KindConcurrencyLimit }

func WithConcurrencyLimit(n int) ConcurrencyLimit { return ConcurrencyLimit{Limit: n} }

type RetryLimit struct{ Limit int }

func (RetryLimit) Kind() Kind { return KindRetryLimit }

func WithRetryLimit(n int) RetryLimit { return RetryLimit{Limit: n} }

type RetryDelay struct{ Func DelayFunc }

func (RetryDelay) Kind() Kind { return KindRetryDelay }

func WithRetryDelay(fn DelayFunc) RetryDelay { return RetryDelay{Func: fn} }

type Timeout struct{ Duration time.Duration }

func (Timeout) Kind() Kind { return KindTimeout }

func WithTimeout(d time.Duration) Timeout { return Timeout{Duration: d} }

type Pacing struct{ Func PaceFunc }

func (Pacing) Kind() Kind { return KindPacing }

func WithPacing(fn PaceFunc) Pacing { return Pacing{Func: fn} }

// WithPaceEvery paces with a constant interval between request starts.
func WithPaceEvery(d time.Duration) Pacing {
	return Pacing{Func: func(store.Reader) time.Duration { return d }}
}

// Throttle caps the client-side send rate across the whole batch, in
// requests per second. Zero means unlimited.
type Throttle struct{ RPS float64 }

func (Throttle) Kind() Kind { return KindThrottle }

func WithThrottle(rps float64) Throttle { return Throttle{RPS: rps} }

type LogLevel struct{ Level Level }

func (LogLevel) Kind() Kind { return KindLogLevel }

func WithLogLevel(l Level) LogLevel { return LogLevel{Level: l} }

// Comment attaches free-form commentary surfaced by the reporter.
type Comment struct{ Text string }

func (Comment) Kind() Kind { return KindComment }

func WithComment(text string) Comment { return Comment{Text: text} }

type QueryParam struct{ Key, Value string }

func (QueryParam) Kind() Kind { return KindQueryParam }

func WithQueryParam(key, value string) QueryParam { return QueryParam{Key: key, Value: value} }

type Header struct{ Key, Value string }

func (Header) Kind() Kind { return KindHeader }

func WithHeader(key, value string) Header { return Header{Key: key, Value: value} }

type Expectation struct{ Verifier Verifier }

func (Expectation) Kind() Kind { return KindExpectation }

func WithExpectation(v Verifier) Expectation { return Expectation{Verifier: v} }

// GlobalContext attaches a global context tier to the dispatch config it is
// added to. The tier persists across batches and derived configs.
type GlobalContext struct{}

func (GlobalContext) Kind() Kind { return KindGlobalContext }

func WithGlobalContext() GlobalContext { return GlobalContext{} }

// PersistentSession keeps the session tier alive across batches fired
// through the same config, enabling explicit chaining.
type PersistentSession struct{}

func (PersistentSession) Kind() Kind { return KindPersistentSession }

func WithPersistentSession() PersistentSession { return PersistentSession{} }

type ContextResolver struct{ Func ResolveFunc }

func (ContextResolver) Kind() Kind { return KindContextResolver }

func WithContextResolver(fn ResolveFunc) ContextResolver { return ContextResolver{Func: fn} }

type Capture struct {
	Key  string
	Tier store.Tier
	Func CaptureFunc
}

func (Capture) Kind() Kind { return KindCapture }

func WithCapture(key string, tier store.Tier, fn CaptureFunc) Capture {
	return Capture{Key: key, Tier: tier, Func: fn}
}

// HeaderFromContext resolves a header value from the context at send time.
// format is applied with fmt.Sprintf to the stored value; empty format means
// plain "%v". No header is added if the key is absent.
func HeaderFromContext(name, key, format string) ContextResolver {
	if format == "" {
		format = "%v"
	}
	return WithContextResolver(func(ctx store.Reader) (Setting, bool) {
		v, ok := ctx.Lookup(key)
		if !ok {
			return nil, false
		}
		return WithHeader(name, fmt.Sprintf(format, v)), true
	})
}

// QueryParamFromContext resolves a query parameter from the context at send
// time, with the same format semantics as HeaderFromContext.
func QueryParamFromContext(name, key, format string) ContextResolver {
	if format == "" {
		format = "%v"
	}
	return WithContextResolver(func(ctx store.Reader) (Setting, bool) {
		v, ok := ctx.Lookup(key)
		if !ok {
			return nil, false
		}
		return WithQueryParam(name, fmt.Sprintf(format, v)), true
	})
}
