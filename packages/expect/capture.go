package expect

import (
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/store"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// CaptureBodyPath builds a capture function that extracts the JSON body
// value at path from the terminal result. Missing paths capture nil, which
// the store treats as a present-but-nil value.
func CaptureBodyPath(path string) settings.CaptureFunc {
	return func(r *wire.Result, _ store.Reader) any {
		body := gjson.ParseBytes(r.Response.Body)
		if !body.Exists() {
			return nil
		}
		if path == "" {
			return body.Value()
		}
		result := body.Get(path)
		if !result.Exists() {
			return nil
		}
		return result.Value()
	}
}

// CaptureHeader builds a capture function for a response header value.
func CaptureHeader(name string) settings.CaptureFunc {
	return func(r *wire.Result, _ store.Reader) any {
		return r.Response.Header(name)
	}
}

// CaptureStatus builds a capture function for the response status code.
func CaptureStatus() settings.CaptureFunc {
	return func(r *wire.Result, _ store.Reader) any {
		return r.Response.StatusCode
	}
}
