// Package valueobject holds the gateway's small, immutable value types:
// model identifiers, routing modes, task types, and complexity tiers.
package valueobject

import "strings"

// Provider is one of the closed set of upstream providers.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderXAI       Provider = "xai"
	ProviderMoonshot  Provider = "moonshot"
	ProviderLocal     Provider = "local"
)

// ValidProviders is the closed provider set, in declaration order.
var ValidProviders = []Provider{
	ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderXAI, ProviderMoonshot, ProviderLocal,
}

// IsValidProvider reports whether p is in the closed provider set.
func IsValidProvider(p Provider) bool {
	for _, v := range ValidProviders {
		if v == p {
			return true
		}
	}
	return false
}

// ModelID is a resolved (provider, model) pair in canonical "provider:model" form.
type ModelID struct {
	Provider Provider
	Model    string
}

// String renders the canonical "provider:model" form.
func (m ModelID) String() string {
	return string(m.Provider) + ":" + m.Model
}

// ParseModelID parses a canonical "provider:model" string. It does not
// consult alias tables; see service.Registry for alias resolution.
func ParseModelID(s string) (ModelID, bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return ModelID{}, false
	}
	provider := Provider(s[:idx])
	if !IsValidProvider(provider) {
		return ModelID{}, false
	}
	return ModelID{Provider: provider, Model: s[idx+1:]}, true
}

// SplitSuffix splits a name of the form "<base>:cost|fast|quality" into
// (base, suffix). The namespace form "relayplane:auto|cost|fast|quality" is
// never split here — callers must check for that prefix first.
func SplitSuffix(name string) (base string, suffix string, ok bool) {
	if strings.HasPrefix(name, "relayplane:") {
		return name, "", false
	}
	for _, s := range []string{"cost", "fast", "quality"} {
		suf := ":" + s
		if strings.HasSuffix(name, suf) && len(name) > len(suf) {
			return name[:len(name)-len(suf)], s, true
		}
	}
	return name, "", false
}
