// Package openaicompat registers the upstreams whose wire dialect is
// already OpenAI Chat Completions (openai, xai, moonshot, and a local
// endpoint), so an inbound OpenAI-dialect request is re-encoded with only
// the model field substituted (spec 4.F, "OpenAI → xAI/Moonshot/OpenAI").
package openaicompat

import (
	"strings"

	llm "github.com/relayplane/gateway/internal/infrastructure/llm"
)

func init() {
	llm.RegisterFactory("openai", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg, "https://api.openai.com/v1")
	})
	llm.RegisterFactory("xai", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg, "https://api.x.ai/v1")
	})
	llm.RegisterFactory("moonshot", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg, "https://api.moonshot.cn/v1")
	})
	llm.RegisterFactory("local", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg, "http://127.0.0.1:11434/v1")
	})
}

// Provider describes one OpenAI-wire-compatible upstream. No request or
// response translation is needed: the pipeline re-encodes the inbound
// openai.Request with the resolved model name substituted (fields that type
// does not carry are not forwarded), and responses, including streaming SSE
// chunks, are forwarded unchanged.
type Provider struct {
	name    string
	baseURL string
	models  []string
}

// New creates an OpenAI-compatible provider descriptor with defaultBaseURL
// used when cfg.BaseURL is unset (e.g. for a self-hosted/local endpoint
// override).
func New(cfg llm.ProviderConfig, defaultBaseURL string) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{name: cfg.Name, baseURL: baseURL, models: cfg.Models}
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string            { return p.name }
func (p *Provider) Dialect() llm.DialectKind { return llm.DialectOpenAICompat }
func (p *Provider) Models() []string        { return p.models }

func (p *Provider) Endpoint(model string, streaming bool, auth llm.ResolvedAuth) string {
	return p.baseURL + "/chat/completions"
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

// SetAuthHeaders implements the single-bearer-token scheme shared by
// OpenAI, xAI, and Moonshot (spec 4.G).
func (p *Provider) SetAuthHeaders(headers map[string]string, auth llm.ResolvedAuth) {
	key := auth.APIKey
	if auth.PassthroughRaw != "" {
		key = auth.PassthroughRaw
	}
	if key == "" {
		return
	}
	if strings.HasPrefix(key, "Bearer ") {
		headers["Authorization"] = key
	} else {
		headers["Authorization"] = "Bearer " + key
	}
}
