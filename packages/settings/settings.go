package settings

import "fmt"

// Kind tags each setting variant. The set is closed: the resolver and the
// dispatch engine switch on kinds rather than on runtime type inspection.
type Kind int

const (
	KindFireMode Kind = iota
	KindConcurrencyLimit
	KindRetryLimit
	KindRetryDelay
	KindTimeout
	KindPacing
	KindThrottle
	KindLogLevel
	KindComment
	KindQueryParam
	KindHeader
	KindExpectation
	KindGlobalContext
	KindPersistentSession
	KindContextResolver
	KindCapture
)

var kindNames = map[Kind]string{
	KindFireMode:          "fire mode",
	KindConcurrencyLimit:  "concurrency limit",
	KindRetryLimit:        "retry limit",
	KindRetryDelay:        "retry delay",
	KindTimeout:           "timeout",
	KindPacing:            "pacing",
	KindThrottle:          "throttle",
	KindLogLevel:          "log level",
	KindComment:           "comment",
	KindQueryParam:        "query parameter",
	KindHeader:            "header",
	KindExpectation:       "expectation",
	KindGlobalContext:     "global context",
	KindPersistentSession: "persistent session",
	KindContextResolver:   "context resolver",
	KindCapture:           "capture",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Scope is a bitmask of the levels a setting may be attached to.
type Scope uint8

const (
	ScopeRequest Scope = 1 << iota
	ScopeBatch
)

const ScopeBoth = ScopeRequest | ScopeBatch

// Setting is the closed tagged union. Concrete variants live in this
// package; nothing outside it should implement the interface.
type Setting interface {
	Kind() Kind
}

// scopes is the capability table: where each variant may be attached.
var scopes = map[Kind]Scope{
	KindFireMode:          ScopeBatch,
	KindConcurrencyLimit:  ScopeBatch,
	KindPacing:            ScopeBatch,
	KindThrottle:          ScopeBatch,
	KindGlobalContext:     ScopeBatch,
	KindPersistentSession: ScopeBatch,
	KindRetryLimit:        ScopeBoth,
	KindRetryDelay:        ScopeBoth,
	KindTimeout:           ScopeBoth,
	KindLogLevel:          ScopeBoth,
	KindComment:           ScopeBoth,
	KindQueryParam:        ScopeBoth,
	KindHeader:            ScopeBoth,
	KindExpectation:       ScopeBoth,
	KindContextResolver:   ScopeBoth,
	KindCapture:           ScopeRequest,
}

// singular marks the variants where only the last occurrence in the merged
// list takes effect. Everything else accumulates.
var singular = map[Kind]bool{
	KindFireMode:          true,
	KindConcurrencyLimit:  true,
	KindRetryLimit:        true,
	KindRetryDelay:        true,
	KindTimeout:           true,
	KindPacing:            true,
	KindThrottle:          true,
	KindLogLevel:          true,
	KindGlobalContext:     true,
	KindPersistentSession: true,
}

// ScopeOf returns the levels the given kind may be attached to.
func ScopeOf(k Kind) Scope {
	return scopes[k]
}

// Singular reports whether only the last occurrence of the kind applies.
func Singular(k Kind) bool {
	return singular[k]
}

// AllowedAt reports whether a setting of kind k may be attached at scope s.
func AllowedAt(k Kind, s Scope) bool {
	return ScopeOf(k)&s != 0
}
