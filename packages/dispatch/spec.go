package dispatch

import (
	"github.com/abdul-hamid-achik/salvo/packages/settings"
)

// BodySource supplies an already-encoded request body. The engine never
// inspects or transforms the content; serialization is the caller's concern.
type BodySource interface {
	Content() (body []byte, contentType string, err error)
}

type rawBody struct {
	body        []byte
	contentType string
}

func (b rawBody) Content() ([]byte, string, error) {
	return b.body, b.contentType, nil
}

// RawBody wraps pre-encoded bytes as a BodySource.
func RawBody(body []byte, contentType string) BodySource {
	return rawBody{body: body, contentType: contentType}
}

// JSONBody wraps a pre-encoded JSON document.
func JSONBody(body []byte) BodySource {
	return RawBody(body, "application/json")
}

// RequestSpec is one declarative request: method, path relative to the
// config's base URL, optional body, and an ordered list of request-scoped
// settings. Values are immutable; With-style transforms return copies.
type RequestSpec struct {
	name     string
	method   string
	path     string
	body     BodySource
	settings []settings.Setting
}

func NewSpec(method, path string) RequestSpec {
	return RequestSpec{method: method, path: path}
}

// Named returns a copy with a display name used in results and reports.
func (s RequestSpec) Named(name string) RequestSpec {
	s.name = name
	return s
}

// WithBody returns a copy carrying the given body source.
func (s RequestSpec) WithBody(src BodySource) RequestSpec {
	s.body = src
	return s
}

// With returns a copy with the settings appended after the existing ones, so
// later additions win ties for singular settings.
func (s RequestSpec) With(st ...settings.Setting) RequestSpec {
	merged := make([]settings.Setting, 0, len(s.settings)+len(st))
	merged = append(merged, s.settings...)
	merged = append(merged, st...)
	s.settings = merged
	return s
}

func (s RequestSpec) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.method + " " + s.path
}

func (s RequestSpec) Method() string { return s.method }

func (s RequestSpec) Path() string { return s.path }

// Settings returns a copy of the request-scoped setting list.
func (s RequestSpec) Settings() []settings.Setting {
	out := make([]settings.Setting, len(s.settings))
	copy(out, s.settings)
	return out
}
