// Package dispatch is the coordination core: it decides when, how many
// times, how fast, and under what shared context each request attempt is
// issued. The batch orchestrator fires a list of request specs under a
// resolved fire mode; the per-request dispatch loop interleaves concurrency
// permits, retry backoff and context propagation around a Transport it never
// looks inside.
//
// A DispatchConfig is the reusable base (base URL, batch settings, transport
// handle, context store). A RequestSpec is one declarative request with its
// own settings. Both are immutable; derived copies are produced with With.
package dispatch
