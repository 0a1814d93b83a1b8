package llm

import (
	"fmt"
	"sync"
)

// DialectKind identifies the wire shape a provider speaks natively, which
// determines how an inbound OpenAI-dialect request is translated before the
// dispatcher forwards it (spec 4.F).
type DialectKind string

const (
	DialectAnthropic    DialectKind = "anthropic"
	DialectGemini       DialectKind = "gemini"
	DialectOpenAICompat DialectKind = "openai_compat" // openai, xai, moonshot, local: model substituted, no translation
)

// Provider describes one upstream's endpoint shape, auth, and model set.
// Each upstream package (anthropic, gemini, openaicompat) registers a
// factory via RegisterFactory in its own init().
type Provider interface {
	// Name is the provider identifier used in canonical "provider:model" ids.
	Name() string

	// Dialect reports the wire shape this provider speaks natively.
	Dialect() DialectKind

	// Endpoint returns the full upstream URL for a call. model is the
	// resolved upstream model name (some providers, e.g. Gemini, embed it
	// in the path); auth is included so a provider whose key travels as a
	// query parameter rather than a header (Gemini) can assemble it here.
	Endpoint(model string, streaming bool, auth ResolvedAuth) string

	// SetAuthHeaders mutates headers in place with this provider's auth
	// scheme, given the resolved API key/token material (spec 4.G).
	SetAuthHeaders(headers map[string]string, auth ResolvedAuth)

	// Models lists the provider's statically known model names.
	Models() []string

	// SupportsModel reports whether model is one this provider recognizes.
	SupportsModel(model string) bool
}

// ResolvedAuth carries the credential material the dispatcher assembled
// for one request, before handing off to Provider.SetAuthHeaders.
type ResolvedAuth struct {
	APIKey         string // e.g. Anthropic sk-ant-api* or a bearer-style provider key
	MaxToken       string // Anthropic sk-ant-oat* OAuth-style token, when present
	PreferMaxToken bool   // true when config.auth.useMaxForModels matched and a MAX token is present
	PassthroughRaw string // raw incoming Authorization/x-api-key header, for OAuth passthrough mode
}

// ProviderConfig holds the per-upstream configuration supplied by the
// normalized gateway config (routing/auth sections), keyed by provider name.
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Models  []string
}

// ProviderFactory creates a Provider from config.
type ProviderFactory func(cfg ProviderConfig) Provider

var (
	factoryMu sync.RWMutex
	factories = map[string]ProviderFactory{}
)

// RegisterFactory registers a provider factory for the given provider name.
// Called from init() in each provider sub-package.
func RegisterFactory(name string, factory ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = factory
}

// CreateProvider creates a Provider using the registered factory for cfg.Name.
func CreateProvider(cfg ProviderConfig) (Provider, error) {
	factoryMu.RLock()
	factory, ok := factories[cfg.Name]
	factoryMu.RUnlock()

	if !ok {
		available := make([]string, 0, len(factories))
		factoryMu.RLock()
		for k := range factories {
			available = append(available, k)
		}
		factoryMu.RUnlock()
		return nil, fmt.Errorf("unknown provider %q (available: %v)", cfg.Name, available)
	}

	return factory(cfg), nil
}
