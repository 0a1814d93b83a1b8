package gemini

import (
	"strings"

	llm "github.com/relayplane/gateway/internal/infrastructure/llm"
)

func init() {
	llm.RegisterFactory("google", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg)
	})
}

// Provider describes the Gemini generateContent endpoint and auth scheme.
type Provider struct {
	name    string
	baseURL string
	models  []string
}

// New creates a Gemini provider descriptor.
func New(cfg llm.ProviderConfig) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &Provider{name: cfg.Name, baseURL: baseURL, models: cfg.Models}
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string            { return p.name }
func (p *Provider) Dialect() llm.DialectKind { return llm.DialectGemini }
func (p *Provider) Models() []string        { return p.models }

// Endpoint varies by call shape: streamGenerateContent for SSE,
// generateContent otherwise. Gemini keys travel via the "?key=" query
// parameter rather than a header, so it is assembled here instead of in
// SetAuthHeaders (spec 4.G).
func (p *Provider) Endpoint(model string, streaming bool, auth llm.ResolvedAuth) string {
	verb := "generateContent"
	sep := "?"
	if streaming {
		verb = "streamGenerateContent"
		sep = "?alt=sse&"
	}
	url := p.baseURL + "/models/" + model + ":" + verb

	key := auth.APIKey
	if auth.PassthroughRaw != "" {
		key = auth.PassthroughRaw
	}
	if key != "" {
		url += sep + "key=" + key
	}
	return url
}

func (p *Provider) SupportsModel(model string) bool {
	if len(p.models) == 0 {
		return true
	}
	for _, m := range p.models {
		if m == model {
			return true
		}
	}
	return false
}

// SetAuthHeaders is a no-op for Gemini: its key travels in the endpoint's
// query parameter, not as a header.
func (p *Provider) SetAuthHeaders(headers map[string]string, auth llm.ResolvedAuth) {}
