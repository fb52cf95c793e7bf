package dispatch

import (
	"time"

	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

// effectiveConfig is the merged, per-request view of batch and request
// settings. It is derived fresh for every request and never cached.
type effectiveConfig struct {
	timeout      time.Duration
	retryLimit   int
	delay        settings.DelayFunc
	headers      []settings.Header
	query        []settings.QueryParam
	expectations []settings.Expectation
	captures     []settings.Capture
	comments     []settings.Comment
	logLevel     settings.Level
}

func resolveEffective(merged []settings.Setting) *effectiveConfig {
	eff := &effectiveConfig{
		retryLimit: DefaultRetryLimit,
		delay:      settings.ProgressiveDelay(),
		logLevel:   settings.LevelNormal,
	}

	if t, ok := settings.Last[settings.Timeout](merged); ok {
		eff.timeout = t.Duration
	}
	if r, ok := settings.Last[settings.RetryLimit](merged); ok && r.Limit >= 0 {
		eff.retryLimit = r.Limit
	}
	if d, ok := settings.Last[settings.RetryDelay](merged); ok && d.Func != nil {
		eff.delay = d.Func
	}
	if l, ok := settings.Last[settings.LogLevel](merged); ok {
		eff.logLevel = l.Level
	}

	eff.headers = settings.All[settings.Header](merged)
	eff.query = settings.All[settings.QueryParam](merged)
	eff.expectations = settings.All[settings.Expectation](merged)
	eff.captures = settings.All[settings.Capture](merged)
	eff.comments = settings.All[settings.Comment](merged)

	return eff
}

// buildRequest prepares the outgoing wire request from a spec and its
// effective configuration. Any failure here is a preparation error.
func (c *DispatchConfig) buildRequest(spec RequestSpec, eff *effectiveConfig) (*wire.Request, error) {
	joined, err := wire.JoinURL(c.baseURL, spec.path)
	if err != nil {
		return nil, &PrepError{Reason: "joining URL", Err: err}
	}
	if err := wire.ValidateURL(joined); err != nil {
		return nil, &PrepError{Reason: "validating URL", Err: err}
	}

	req := wire.NewRequest(spec.method, joined)

	for _, h := range eff.headers {
		req.SetHeader(h.Key, h.Value)
	}
	for _, q := range eff.query {
		req.SetQueryParam(q.Key, q.Value)
	}

	if spec.body != nil {
		body, contentType, err := spec.body.Content()
		if err != nil {
			return nil, &PrepError{Reason: "encoding body", Err: err}
		}
		req.SetBody(body, contentType)
	}

	if eff.timeout > 0 {
		req.SetTimeout(eff.timeout)
	}

	return req, nil
}
