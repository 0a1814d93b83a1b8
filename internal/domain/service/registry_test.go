package service

import "testing"

func TestResolveAlias_Namespace(t *testing.T) {
	r := NewRegistry()
	if got := r.ResolveAlias("relayplane:auto"); got != "rp:balanced" {
		t.Fatalf("relayplane:auto => %s, want rp:balanced", got)
	}
	if got := r.ResolveAlias("rp:auto"); got != "rp:balanced" {
		t.Fatalf("rp:auto => %s, want rp:balanced", got)
	}
	if got := r.ResolveAlias("claude-sonnet-4"); got != "claude-sonnet-4" {
		t.Fatalf("unmatched name changed: %s", got)
	}
}

func TestResolveAlias_Idempotent(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"relayplane:auto", "rp:auto", "rp:fast", "claude-sonnet-4", "gpt-4o"} {
		once := r.ResolveAlias(name)
		twice := r.ResolveAlias(once)
		if once != twice {
			t.Fatalf("resolve_alias not idempotent for %q: %q vs %q", name, once, twice)
		}
	}
}

func TestResolveExplicit_SmartAlias(t *testing.T) {
	r := NewRegistry()
	rm, ok := r.ResolveExplicit("rp:fast")
	if !ok {
		t.Fatal("expected rp:fast to resolve")
	}
	if rm.Model != "claude-3-5-haiku-20241022" {
		t.Fatalf("rp:fast => %s, want claude-3-5-haiku-20241022", rm.Model)
	}
}

func TestResolveExplicit_ProviderPrefix(t *testing.T) {
	r := NewRegistry()
	rm, ok := r.ResolveExplicit("gpt-4-turbo")
	if !ok || rm.Provider != "openai" {
		t.Fatalf("expected gpt-4-turbo => openai, got %+v ok=%v", rm, ok)
	}
	rm, ok = r.ResolveExplicit("gemini-1.5-flash")
	if !ok || rm.Provider != "google" {
		t.Fatalf("expected gemini-1.5-flash => google, got %+v ok=%v", rm, ok)
	}
}

func TestResolveExplicit_ProviderSlashForm(t *testing.T) {
	r := NewRegistry()
	rm, ok := r.ResolveExplicit("anthropic/claude-3-opus-20240229")
	if !ok || rm.Provider != "anthropic" || rm.Model != "claude-3-opus-20240229" {
		t.Fatalf("unexpected resolution: %+v ok=%v", rm, ok)
	}
}

func TestResolveExplicit_Unknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.ResolveExplicit("totally-unknown-model-xyz")
	if ok {
		t.Fatal("expected unresolved model to fail")
	}
	err := r.UnknownModelError("totally-unknown-model-xyz")
	if err.Kind != "unknown_model" {
		t.Fatalf("expected unknown_model kind, got %s", err.Kind)
	}
}

func TestParseSuffix(t *testing.T) {
	r := NewRegistry()
	base, suffix, ok := r.ParseSuffix("claude-sonnet-4:cost")
	if !ok || base != "claude-sonnet-4" || suffix != "cost" {
		t.Fatalf("unexpected split: base=%s suffix=%s ok=%v", base, suffix, ok)
	}
	_, _, ok = r.ParseSuffix("relayplane:quality")
	if ok {
		t.Fatal("namespace form must not be split")
	}
}
