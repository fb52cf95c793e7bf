package dispatch

import (
	"github.com/abdul-hamid-achik/salvo/packages/settings"
	"github.com/abdul-hamid-achik/salvo/packages/store"
	"github.com/abdul-hamid-achik/salvo/packages/wire"
)

const (
	// DefaultConcurrencyLimit bounds simultaneously executing attempts when
	// no limit setting is present.
	DefaultConcurrencyLimit = 500
	// MinConcurrencyLimit and MaxConcurrencyLimit are the accepted range for
	// an explicit concurrency limit setting.
	MinConcurrencyLimit = 1
	MaxConcurrencyLimit = 1000
	// DefaultRetryLimit means a single attempt with no retries.
	DefaultRetryLimit = 0
)

// DispatchConfig is the reusable base configuration for firing batches:
// base URL, ordered batch-scoped settings, the transport handle and the
// context store. Settings are appended copy-on-write; the store and
// transport are shared by derived copies, which is what lets a global
// context tier persist across them.
type DispatchConfig struct {
	baseURL   string
	settings  []settings.Setting
	transport wire.Transport
	store     *store.Store
}

type Option func(*DispatchConfig)

// WithTransport replaces the default HTTP transport.
func WithTransport(t wire.Transport) Option {
	return func(c *DispatchConfig) {
		c.transport = t
	}
}

// WithSettings seeds the batch-scoped setting list.
func WithSettings(st ...settings.Setting) Option {
	return func(c *DispatchConfig) {
		c.settings = append(c.settings, st...)
	}
}

func NewConfig(baseURL string, opts ...Option) *DispatchConfig {
	c := &DispatchConfig{
		baseURL: baseURL,
		store:   store.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = wire.NewHTTPTransport()
	}
	c.applyContextSettings()
	return c
}

// With returns a new config with the settings appended after the existing
// ones. The store and transport are shared with the parent, so the global
// tier (if any) persists across derived copies.
func (c *DispatchConfig) With(st ...settings.Setting) *DispatchConfig {
	merged := make([]settings.Setting, 0, len(c.settings)+len(st))
	merged = append(merged, c.settings...)
	merged = append(merged, st...)

	derived := &DispatchConfig{
		baseURL:   c.baseURL,
		settings:  merged,
		transport: c.transport,
		store:     c.store,
	}
	derived.applyContextSettings()
	return derived
}

// applyContextSettings attaches the global tier when a global-context
// setting is present. Attaching is idempotent.
func (c *DispatchConfig) applyContextSettings() {
	if _, ok := settings.Last[settings.GlobalContext](c.settings); ok {
		c.store.AttachGlobal()
	}
}

func (c *DispatchConfig) BaseURL() string { return c.baseURL }

// Store exposes the context store, mainly for inspection in tests and for
// seeding values before a batch.
func (c *DispatchConfig) Store() *store.Store { return c.store }

// Settings returns a copy of the batch-scoped setting list.
func (c *DispatchConfig) Settings() []settings.Setting {
	out := make([]settings.Setting, len(c.settings))
	copy(out, c.settings)
	return out
}

func (c *DispatchConfig) persistentSession() bool {
	_, ok := settings.Last[settings.PersistentSession](c.settings)
	return ok
}
