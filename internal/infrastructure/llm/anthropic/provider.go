package anthropic

import (
	"strings"

	llm "github.com/relayplane/gateway/internal/infrastructure/llm"
)

func init() {
	llm.RegisterFactory("anthropic", func(cfg llm.ProviderConfig) llm.Provider {
		return New(cfg)
	})
}

// Provider describes the Anthropic Messages API endpoint and auth scheme.
// Unlike the other upstream packages it is also the gateway's *native*
// dialect: /v1/messages traffic to an anthropic target is forwarded
// without any request/response translation.
type Provider struct {
	name    string
	baseURL string
	models  []string
}

// New creates an Anthropic provider descriptor.
func New(cfg llm.ProviderConfig) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Provider{name: cfg.Name, baseURL: baseURL, models: cfg.Models}
}

var _ llm.Provider = (*Provider)(nil)

func (p *Provider) Name() string           { return p.name }
func (p *Provider) Dialect() llm.DialectKind { return llm.DialectAnthropic }
func (p *Provider) Models() []string       { return p.models }

func (p *Provider) Endpoint(model string, streaming bool, auth llm.ResolvedAuth) string {
	return p.baseURL + "/v1/messages"
}

// CountTokensEndpoint is the Anthropic token-counting sibling endpoint,
// forwarded verbatim by the /v1/messages/count_tokens route (spec 4.J).
func (p *Provider) CountTokensEndpoint() string {
	return p.baseURL + "/v1/messages/count_tokens"
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

// SetAuthHeaders implements the hybrid Anthropic auth scheme (spec 4.G):
// API keys go via x-api-key, MAX OAuth tokens via Authorization: Bearer,
// and an incoming request's own Authorization/x-api-key header is honored
// verbatim in passthrough mode (consumer OAuth billing), taking priority
// over env/config-sourced credentials.
func (p *Provider) SetAuthHeaders(headers map[string]string, auth llm.ResolvedAuth) {
	headers["anthropic-version"] = Version

	if auth.PassthroughRaw != "" {
		if strings.HasPrefix(auth.PassthroughRaw, "Bearer ") || IsMaxToken(auth.PassthroughRaw) {
			headers["Authorization"] = normalizeBearer(auth.PassthroughRaw)
		} else {
			headers["x-api-key"] = auth.PassthroughRaw
		}
		return
	}

	if auth.PreferMaxToken && auth.MaxToken != "" {
		headers["Authorization"] = "Bearer " + auth.MaxToken
		return
	}
	if auth.APIKey != "" {
		headers["x-api-key"] = auth.APIKey
		return
	}
	if auth.MaxToken != "" {
		headers["Authorization"] = "Bearer " + auth.MaxToken
	}
}

func normalizeBearer(raw string) string {
	if strings.HasPrefix(raw, "Bearer ") {
		return raw
	}
	return "Bearer " + raw
}
