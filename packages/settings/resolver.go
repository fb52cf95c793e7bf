package settings

import "fmt"

// Merge concatenates batch-level settings with request-level settings.
// Request settings come last and therefore win ties for singular kinds.
// The result is a fresh slice; neither input is modified.
func Merge(batch, request []Setting) []Setting {
	merged := make([]Setting, 0, len(batch)+len(request))
	merged = append(merged, batch...)
	merged = append(merged, request...)
	return merged
}

// Last returns the last occurrence of variant T in the list, scanning the
// merged order. Used for singular settings.
func Last[T Setting](list []Setting) (T, bool) {
	var zero T
	for i := len(list) - 1; i >= 0; i-- {
		if v, ok := list[i].(T); ok {
			return v, true
		}
	}
	return zero, false
}

// LastOr returns the last occurrence of T, or fallback if none is present.
func LastOr[T Setting](list []Setting, fallback T) T {
	if v, ok := Last[T](list); ok {
		return v
	}
	return fallback
}

// All returns every occurrence of variant T, preserving list order. Used for
// accumulating settings.
func All[T Setting](list []Setting) []T {
	var out []T
	for _, s := range list {
		if v, ok := s.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that every setting in the list may be attached at the
// given scope.
func Validate(list []Setting, at Scope) error {
	for _, s := range list {
		if !AllowedAt(s.Kind(), at) {
			return fmt.Errorf("%s setting is not applicable at %s scope", s.Kind(), scopeName(at))
		}
	}
	return nil
}

func scopeName(s Scope) string {
	switch s {
	case ScopeRequest:
		return "request"
	case ScopeBatch:
		return "batch"
	default:
		return "any"
	}
}
