// Package expect implements the expectation mechanism run against a
// terminal result. The dispatch loop only cares about the error taxonomy:
// an AssertionError means the response failed a declared check, anything
// else is a verification fault. Neither ever triggers a retry.
package expect
