// Package batchfile loads declarative batch definitions from YAML files and
// turns them into dispatch configs and request specs.
package batchfile

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/salvo/packages/dispatch"
	"github.com/abdul-hamid-achik/salvo/packages/expect"
	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/store"
)

// Duration decodes Go duration strings ("500ms", "5s") from YAML scalars.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// File is the YAML document shape.
type File struct {
	Name     string         `yaml:"name"`
	BaseURL  string         `yaml:"base_url"`
	Settings BatchSettings  `yaml:"settings"`
	Requests []RequestEntry `yaml:"requests"`
}

// BatchSettings are the batch-scoped knobs.
type BatchSettings struct {
	Mode              string            `yaml:"mode"` // "parallel" (default) or "sequential"
	Concurrency       int               `yaml:"concurrency"`
	Timeout           Duration          `yaml:"timeout"`
	Retries           *int              `yaml:"retries"`
	RetryDelay        Duration          `yaml:"retry_delay"` // constant; zero keeps the progressive default
	Pace              Duration          `yaml:"pace"`
	Throttle          float64           `yaml:"throttle"` // requests per second
	GlobalContext     bool              `yaml:"global_context"`
	PersistentSession bool              `yaml:"persistent_session"`
	Headers           map[string]string `yaml:"headers"`
	Query             map[string]string `yaml:"query"`
	Comment           string            `yaml:"comment"`
}

// RequestEntry is one request in the batch.
type RequestEntry struct {
	Name        string            `yaml:"name"`
	Method      string            `yaml:"method"`
	Path        string            `yaml:"path"`
	Body        string            `yaml:"body"`
	ContentType string            `yaml:"content_type"`
	Headers     map[string]string `yaml:"headers"`
	Query       map[string]string `yaml:"query"`
	Timeout     Duration          `yaml:"timeout"`
	Retries     *int              `yaml:"retries"`
	Expect      *ExpectEntry      `yaml:"expect"`
	Capture     []CaptureEntry    `yaml:"capture"`
	Inject      []InjectEntry     `yaml:"inject"`
	Comment     string            `yaml:"comment"`
}

// ExpectEntry declares response expectations.
type ExpectEntry struct {
	Status      int               `yaml:"status"`
	Success     bool              `yaml:"success"` // any 2xx
	Body        map[string]any    `yaml:"body"`    // gjson path -> expected value
	Contains    map[string]string `yaml:"contains"`
	Headers     map[string]string `yaml:"headers"`
	MaxDuration Duration          `yaml:"max_duration"`
	Schema      string            `yaml:"schema"` // inline JSON schema
}

// CaptureEntry stores part of a response into the context.
type CaptureEntry struct {
	Key   string `yaml:"key"`
	From  string `yaml:"from"` // "body" (default), "header", "status"
	Path  string `yaml:"path"` // gjson path or header name
	Scope string `yaml:"scope"` // "session" (default) or "global"
}

// InjectEntry resolves a context value into the request at send time.
type InjectEntry struct {
	Header string `yaml:"header"`
	Query  string `yaml:"query"`
	Key    string `yaml:"key"`
	Format string `yaml:"format"`
}

// Batch is a loaded, ready-to-fire batch.
type Batch struct {
	Name     string
	BaseURL  string
	Settings []settings.Setting
	Specs    []dispatch.RequestSpec
}

// Load reads and compiles one batch file.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read batch file: %w", err)
	}
	return Parse(data)
}

// Parse compiles YAML content into a batch.
func Parse(data []byte) (*Batch, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid batch file: %w", err)
	}

	if f.BaseURL == "" {
		return nil, fmt.Errorf("batch file must set base_url")
	}
	if len(f.Requests) == 0 {
		return nil, fmt.Errorf("batch file has no requests")
	}

	batchSettings, err := compileBatchSettings(f.Settings)
	if err != nil {
		return nil, err
	}

	specs := make([]dispatch.RequestSpec, 0, len(f.Requests))
	for i, entry := range f.Requests {
		spec, err := compileRequest(entry)
		if err != nil {
			return nil, fmt.Errorf("request %d (%s): %w", i, entry.Name, err)
		}
		specs = append(specs, spec)
	}

	return &Batch{
		Name:     f.Name,
		BaseURL:  f.BaseURL,
		Settings: batchSettings,
		Specs:    specs,
	}, nil
}

func compileBatchSettings(bs BatchSettings) ([]settings.Setting, error) {
	var out []settings.Setting

	switch bs.Mode {
	case "", "parallel":
	case "sequential":
		out = append(out, settings.WithFireMode(settings.Sequential))
	default:
		return nil, fmt.Errorf("unknown fire mode %q", bs.Mode)
	}

	if bs.Concurrency > 0 {
		out = append(out, settings.WithConcurrencyLimit(bs.Concurrency))
	}
	if bs.Timeout > 0 {
		out = append(out, settings.WithTimeout(time.Duration(bs.Timeout)))
	}
	if bs.Retries != nil {
		out = append(out, settings.WithRetryLimit(*bs.Retries))
	}
	if bs.RetryDelay > 0 {
		delay, err := settings.ConstantDelay(time.Duration(bs.RetryDelay))
		if err != nil {
			return nil, err
		}
		out = append(out, settings.WithRetryDelay(delay))
	}
	if bs.Pace > 0 {
		out = append(out, settings.WithPaceEvery(time.Duration(bs.Pace)))
	}
	if bs.Throttle > 0 {
		out = append(out, settings.WithThrottle(bs.Throttle))
	}
	if bs.GlobalContext {
		out = append(out, settings.WithGlobalContext())
	}
	if bs.PersistentSession {
		out = append(out, settings.WithPersistentSession())
	}
	for k, v := range bs.Headers {
		out = append(out, settings.WithHeader(k, v))
	}
	for k, v := range bs.Query {
		out = append(out, settings.WithQueryParam(k, v))
	}
	if bs.Comment != "" {
		out = append(out, settings.WithComment(bs.Comment))
	}

	return out, nil
}

func compileRequest(entry RequestEntry) (dispatch.RequestSpec, error) {
	var zero dispatch.RequestSpec

	if entry.Method == "" {
		return zero, fmt.Errorf("missing method")
	}
	if entry.Path == "" {
		return zero, fmt.Errorf("missing path")
	}

	spec := dispatch.NewSpec(entry.Method, entry.Path)
	if entry.Name != "" {
		spec = spec.Named(entry.Name)
	}

	if entry.Body != "" {
		contentType := entry.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		spec = spec.WithBody(dispatch.RawBody([]byte(entry.Body), contentType))
	}

	var st []settings.Setting
	for k, v := range entry.Headers {
		st = append(st, settings.WithHeader(k, v))
	}
	for k, v := range entry.Query {
		st = append(st, settings.WithQueryParam(k, v))
	}
	if entry.Timeout > 0 {
		st = append(st, settings.WithTimeout(time.Duration(entry.Timeout)))
	}
	if entry.Retries != nil {
		st = append(st, settings.WithRetryLimit(*entry.Retries))
	}
	if entry.Comment != "" {
		st = append(st, settings.WithComment(entry.Comment))
	}

	if entry.Expect != nil {
		st = append(st, compileExpectations(entry.Expect)...)
	}

	for _, c := range entry.Capture {
		capture, err := compileCapture(c)
		if err != nil {
			return zero, err
		}
		st = append(st, capture)
	}

	for _, inj := range entry.Inject {
		resolver, err := compileInject(inj)
		if err != nil {
			return zero, err
		}
		st = append(st, resolver)
	}

	return spec.With(st...), nil
}

func compileExpectations(e *ExpectEntry) []settings.Setting {
	var st []settings.Setting

	if e.Status > 0 {
		st = append(st, settings.WithExpectation(expect.StatusIs(e.Status)))
	} else if e.Success {
		st = append(st, settings.WithExpectation(expect.StatusSuccess()))
	}
	for path, want := range e.Body {
		st = append(st, settings.WithExpectation(expect.BodyPathEquals(path, want)))
	}
	for path, substr := range e.Contains {
		st = append(st, settings.WithExpectation(expect.BodyPathContains(path, substr)))
	}
	for name, want := range e.Headers {
		st = append(st, settings.WithExpectation(expect.HeaderEquals(name, want)))
	}
	if e.MaxDuration > 0 {
		st = append(st, settings.WithExpectation(expect.DurationUnder(time.Duration(e.MaxDuration))))
	}
	if e.Schema != "" {
		st = append(st, settings.WithExpectation(expect.BodyMatchesSchema(e.Schema)))
	}

	return st
}

func compileCapture(c CaptureEntry) (settings.Setting, error) {
	if c.Key == "" {
		return nil, fmt.Errorf("capture missing key")
	}

	tier := store.TierSession
	switch c.Scope {
	case "", "session":
	case "global":
		tier = store.TierGlobal
	default:
		return nil, fmt.Errorf("unknown capture scope %q", c.Scope)
	}

	var fn settings.CaptureFunc
	switch c.From {
	case "", "body":
		fn = expect.CaptureBodyPath(c.Path)
	case "header":
		if c.Path == "" {
			return nil, fmt.Errorf("header capture missing path")
		}
		fn = expect.CaptureHeader(c.Path)
	case "status":
		fn = expect.CaptureStatus()
	default:
		return nil, fmt.Errorf("unknown capture source %q", c.From)
	}

	return settings.WithCapture(c.Key, tier, fn), nil
}

func compileInject(inj InjectEntry) (settings.Setting, error) {
	if inj.Key == "" {
		return nil, fmt.Errorf("inject missing key")
	}

	switch {
	case inj.Header != "" && inj.Query != "":
		return nil, fmt.Errorf("inject %q sets both header and query", inj.Key)
	case inj.Header != "":
		return settings.HeaderFromContext(inj.Header, inj.Key, inj.Format), nil
	case inj.Query != "":
		return settings.QueryParamFromContext(inj.Query, inj.Key, inj.Format), nil
	default:
		return nil, fmt.Errorf("inject %q sets neither header nor query", inj.Key)
	}
}
