package llm

import (
	"path/filepath"
	"strings"
)

// anthropicAPIKeyPrefix and anthropicMaxTokenPrefix distinguish a direct
// Anthropic API key from a MAX OAuth-style bearer token, so a single
// configured credential string can be routed to the right auth header
// (spec 4.G). Kept local to avoid an import of the anthropic package,
// which itself imports this one.
const (
	anthropicAPIKeyPrefix   = "sk-ant-api"
	anthropicMaxTokenPrefix = "sk-ant-oat"
)

// ResolveAuth assembles the credential material for one dispatch call
// (spec 4.G): an incoming request's own Authorization/x-api-key header
// takes priority (OAuth passthrough mode), then a configured MAX token
// when the model matches config.auth.useMaxForModels, then the provider's
// configured API key.
func ResolveAuth(provider, model, incomingAuthorization, incomingAPIKeyHeader, configuredKey string, useMaxForModels []string) ResolvedAuth {
	if provider == "anthropic" {
		if incomingAPIKeyHeader != "" {
			return ResolvedAuth{PassthroughRaw: incomingAPIKeyHeader}
		}
		if incomingAuthorization != "" {
			return ResolvedAuth{PassthroughRaw: incomingAuthorization}
		}

		apiKey, maxToken := classifyAnthropicKey(configuredKey)
		return ResolvedAuth{
			APIKey:         apiKey,
			MaxToken:       maxToken,
			PreferMaxToken: maxToken != "" && matchesAnyPattern(useMaxForModels, model),
		}
	}

	if incomingAuthorization != "" {
		return ResolvedAuth{PassthroughRaw: incomingAuthorization}
	}
	return ResolvedAuth{APIKey: configuredKey}
}

func classifyAnthropicKey(key string) (apiKey, maxToken string) {
	switch {
	case strings.HasPrefix(key, anthropicMaxTokenPrefix):
		return "", key
	case key != "":
		return key, ""
	default:
		return "", ""
	}
}

// matchesAnyPattern reports whether model matches any of patterns, each a
// shell-style glob (e.g. "claude-opus-*"); a bare model name is also
// matched as an exact string.
func matchesAnyPattern(patterns []string, model string) bool {
	for _, pattern := range patterns {
		if pattern == model {
			return true
		}
		if ok, err := filepath.Match(pattern, model); err == nil && ok {
			return true
		}
	}
	return false
}
