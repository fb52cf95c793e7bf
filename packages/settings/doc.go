// Package settings defines the closed set of configuration values that can
// be attached to a dispatch config (batch scope) or to an individual request
// spec (request scope), plus the resolver that merges the two lists into an
// effective per-request view.
//
// Every setting is one of two arities. Singular settings (fire mode,
// concurrency limit, timeout, retry limit/delay, pacing, throttle, log
// level) follow last-one-wins over the merged list, so a request-level
// setting overrides the batch-level one. Accumulating settings (headers,
// query parameters, expectations, captures, context resolvers, comments)
// all apply, in order.
package settings
