package service

import (
	"sort"
	"strings"

	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// namespaceAliases map the relayplane:* namespace form to either a routing
// mode tag (consumed separately by routing.go's mode selection) or to an
// rp:* smart alias (spec §3, §4.D, §4.E).
var namespaceAliases = map[string]string{
	"relayplane:auto":    "rp:balanced",
	"relayplane:cost":    "rp:cheap",
	"relayplane:fast":    "rp:fast",
	"relayplane:quality": "rp:best",
}

// smartAliasNormalize folds non-canonical rp:* spellings into the four
// canonical smart-alias names consumed by resolve_explicit.
var smartAliasNormalize = map[string]string{
	"rp:auto":    "rp:balanced",
	"rp:quality": "rp:best",
}

// smartAliasTargets is the canonical smart-alias table: each resolves
// directly to a concrete (provider, model) pair.
var smartAliasTargets = map[string]ResolvedModel{
	"rp:best":     {Provider: "anthropic", Model: "claude-opus-4-20250514"},
	"rp:fast":     {Provider: "anthropic", Model: "claude-3-5-haiku-20241022"},
	"rp:cheap":    {Provider: "anthropic", Model: "claude-3-5-haiku-20241022"},
	"rp:balanced": {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
}

// staticAliasTable is a small set of common friendly names mapped to
// concrete models, consulted after the smart alias table and before the
// provider-prefix heuristics.
var staticAliasTable = map[string]ResolvedModel{
	"sonnet":  {Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
	"haiku":   {Provider: "anthropic", Model: "claude-3-5-haiku-20241022"},
	"opus":    {Provider: "anthropic", Model: "claude-opus-4-20250514"},
	"gpt-4o":  {Provider: "openai", Model: "gpt-4o"},
	"gpt-4":   {Provider: "openai", Model: "gpt-4"},
	"gemini":  {Provider: "google", Model: "gemini-1.5-pro"},
	"grok":    {Provider: "xai", Model: "grok-2"},
	"moonshot": {Provider: "moonshot", Model: "moonshot-v1-8k"},
}

// prefixHeuristics maps a model-name prefix to its provider, per spec 4.D.
var prefixHeuristics = []struct {
	prefix   string
	provider string
}{
	{"claude-", "anthropic"},
	{"gpt-", "openai"},
	{"o1-", "openai"},
	{"o3-", "openai"},
	{"chatgpt-", "openai"},
	{"text-", "openai"},
	{"dall-e", "openai"},
	{"whisper", "openai"},
	{"tts-", "openai"},
	{"gemini-", "google"},
	{"palm-", "google"},
	{"grok-", "xai"},
	{"moonshot-", "moonshot"},
}

// ResolvedModel is a concrete (provider, model) pair produced by alias resolution.
type ResolvedModel struct {
	Provider string
	Model    string
}

// Registry resolves friendly names, smart aliases, and provider-prefixed
// model names into concrete (provider, model) pairs (spec 4.D). KnownModels
// feeds the "unknown model" error's suggestion list.
type Registry struct {
	KnownModels []string
}

// NewRegistry builds a Registry seeded with the smart-alias and
// static-alias targets plus any additional provider-configured model names.
func NewRegistry(additionalModels ...string) *Registry {
	known := make(map[string]bool)
	for _, rm := range smartAliasTargets {
		known[rm.Provider+":"+rm.Model] = true
	}
	for _, rm := range staticAliasTable {
		known[rm.Provider+":"+rm.Model] = true
	}
	for _, m := range additionalModels {
		known[m] = true
	}
	names := make([]string, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	sort.Strings(names)
	return &Registry{KnownModels: names}
}

// ResolveAlias applies namespace aliases then smart-alias normalization,
// leaving unmatched names unchanged. It is idempotent:
// ResolveAlias(ResolveAlias(x)) == ResolveAlias(x) (invariant 1).
func (r *Registry) ResolveAlias(name string) string {
	if mapped, ok := namespaceAliases[name]; ok {
		name = mapped
	}
	if mapped, ok := smartAliasNormalize[name]; ok {
		name = mapped
	}
	return name
}

// ResolveExplicit resolves name to a concrete (provider, model) pair via
// the smart alias table, the static alias table, provider-prefix
// heuristics, and finally "provider/model" explicit form (spec 4.D). It
// returns ok=false when nothing matches.
func (r *Registry) ResolveExplicit(name string) (ResolvedModel, bool) {
	normalized := r.ResolveAlias(name)

	if rm, ok := smartAliasTargets[normalized]; ok {
		return rm, true
	}
	if rm, ok := staticAliasTable[strings.ToLower(normalized)]; ok {
		return rm, true
	}
	lower := strings.ToLower(normalized)
	for _, h := range prefixHeuristics {
		if strings.HasPrefix(lower, h.prefix) {
			return ResolvedModel{Provider: h.provider, Model: normalized}, true
		}
	}
	if idx := strings.Index(normalized, "/"); idx > 0 {
		provider := normalized[:idx]
		model := normalized[idx+1:]
		if isKnownProvider(provider) {
			return ResolvedModel{Provider: provider, Model: model}, true
		}
	}
	return ResolvedModel{}, false
}

// ParseSuffix splits "<base>:cost|fast|quality" into (base, suffix). The
// relayplane:* namespace form is never split here.
func (r *Registry) ParseSuffix(name string) (base string, suffix string, ok bool) {
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

func isKnownProvider(p string) bool {
	switch p {
	case "anthropic", "openai", "google", "xai", "moonshot", "local":
		return true
	default:
		return false
	}
}

// UnknownModelError builds an `unknown_model` error carrying the full
// known-names list and a "did you mean" suggestion list via prefix and
// substring matching.
func (r *Registry) UnknownModelError(requested string) *gwerrors.RelayError {
	var suggestions []string
	lower := strings.ToLower(requested)
	for _, known := range r.KnownModels {
		kl := strings.ToLower(known)
		if strings.Contains(kl, lower) || strings.Contains(lower, kl) || sharesPrefix(lower, kl, 4) {
			suggestions = append(suggestions, known)
		}
	}
	return gwerrors.UnknownModel(requested, r.KnownModels, suggestions)
}

// sharesPrefix reports whether a and b share a common prefix of at least n
// characters; used as a cheap "did you mean" heuristic.
func sharesPrefix(a, b string, n int) bool {
	if len(a) < n || len(b) < n {
		return false
	}
	return a[:n] == b[:n]
}
