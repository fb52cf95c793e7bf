package expect

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// AssertionError reports a declared expectation that the response did not
// meet. It is distinguished from other verification errors so callers can
// propagate it verbatim instead of wrapping it as an execution failure.
type AssertionError struct {
	Subject  string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("assertion failed: %s: %s", e.Subject, e.Message)
	}
	return fmt.Sprintf("assertion failed: %s: expected %v, got %v", e.Subject, e.Expected, e.Actual)
}

// IsAssertion reports whether err is (or wraps) an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Expectation checks one aspect of a result. Implementations return nil on
// success, *AssertionError when the check fails, and any other error when
// the check itself could not be evaluated.
type Expectation interface {
	Verify(r *wire.Result) error
}

type expectationFunc func(r *wire.Result) error

func (f expectationFunc) Verify(r *wire.Result) error { return f(r) }

// StatusIs expects an exact HTTP status code.
func StatusIs(code int) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		if r.Response.StatusCode != code {
			return &AssertionError{
				Subject:  "status",
				Expected: code,
				Actual:   r.Response.StatusCode,
			}
		}
		return nil
	})
}

// StatusSuccess expects any 2xx status.
func StatusSuccess() Expectation {
	return expectationFunc(func(r *wire.Result) error {
		if !r.Response.IsSuccess() {
			return &AssertionError{
				Subject:  "status",
				Expected: "2xx",
				Actual:   r.Response.StatusCode,
			}
		}
		return nil
	})
}

// BodyPathEquals expects the JSON body value at path to equal want. An empty
// path compares the whole body. Non-JSON bodies fail the assertion.
func BodyPathEquals(path string, want any) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		actual, ok := bodyValue(r.Response, path)
		if !ok {
			return &AssertionError{
				Subject:  "body." + path,
				Expected: want,
				Actual:   nil,
				Message:  "path not found in response body",
			}
		}
		if !looseEqual(actual, want) {
			return &AssertionError{
				Subject:  "body." + path,
				Expected: want,
				Actual:   actual,
			}
		}
		return nil
	})
}

// BodyPathContains expects the string value at path to contain substr.
func BodyPathContains(path, substr string) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		actual, ok := bodyValue(r.Response, path)
		if !ok {
			return &AssertionError{
				Subject:  "body." + path,
				Expected: substr,
				Actual:   nil,
				Message:  "path not found in response body",
			}
		}
		s := fmt.Sprintf("%v", actual)
		if !strings.Contains(s, substr) {
			return &AssertionError{
				Subject:  "body." + path,
				Expected: substr,
				Actual:   s,
				Message:  "value does not contain expected substring",
			}
		}
		return nil
	})
}

// HeaderEquals expects a response header (case-insensitive name) to equal
// want exactly.
func HeaderEquals(name, want string) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		got := r.Response.Header(name)
		if got != want {
			return &AssertionError{
				Subject:  "header." + name,
				Expected: want,
				Actual:   got,
			}
		}
		return nil
	})
}

// DurationUnder expects the response time of the final attempt to be below
// the limit.
func DurationUnder(limit time.Duration) Expectation {
	return expectationFunc(func(r *wire.Result) error {
		if r.Response.Duration > limit {
			return &AssertionError{
				Subject:  "duration",
				Expected: fmt.Sprintf("< %v", limit),
				Actual:   r.Response.Duration,
			}
		}
		return nil
	})
}

func bodyValue(resp *wire.Response, path string) (any, bool) {
	body := gjson.ParseBytes(resp.Body)
	if !body.Exists() {
		if path == "" {
			return resp.BodyString(), true
		}
		return nil, false
	}
	if path == "" {
		return body.Value(), true
	}
	result := body.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// looseEqual compares with numeric tolerance: gjson decodes every JSON
// number as float64, so an int on the expected side must still match.
func looseEqual(actual, want any) bool {
	if af, aok := toFloat(actual); aok {
		if wf, wok := toFloat(want); wok {
			return af == wf
		}
	}
	if reflect.DeepEqual(actual, want) {
		return true
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
