package service

import (
	"testing"

	"github.com/relayplane/gateway/internal/domain/entity"
	"github.com/relayplane/gateway/internal/domain/valueobject"
)

func TestSelectMode_Bypass(t *testing.T) {
	reg := NewRegistry()
	if got := SelectMode(reg, "claude-sonnet-4", true); got != valueobject.RoutingPassthrough {
		t.Fatalf("bypass should force passthrough, got %s", got)
	}
}

func TestSelectMode_Suffix(t *testing.T) {
	reg := NewRegistry()
	if got := SelectMode(reg, "claude-sonnet-4:cost", false); got != valueobject.RoutingCost {
		t.Fatalf("suffix :cost should set cost mode, got %s", got)
	}
}

func TestSelectMode_Namespace(t *testing.T) {
	reg := NewRegistry()
	if got := SelectMode(reg, "relayplane:auto", false); got != valueobject.RoutingAuto {
		t.Fatalf("relayplane:auto should set auto mode, got %s", got)
	}
}

func TestSelectMode_SmartAliasPassthroughFallback(t *testing.T) {
	reg := NewRegistry()
	if got := SelectMode(reg, "rp:balanced", false); got != valueobject.RoutingPassthrough {
		t.Fatalf("other rp:* should fall back to passthrough, got %s", got)
	}
}

func TestSelectTarget_Passthrough(t *testing.T) {
	reg := NewRegistry()
	target, err := SelectTarget(reg, RoutingConfig{}, valueobject.RoutingPassthrough, "claude-sonnet-4", valueobject.TaskGeneral, valueobject.ComplexitySimple, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Single == nil || target.Single.Provider != "anthropic" {
		t.Fatalf("expected anthropic target, got %+v", target)
	}
}

func TestSelectTarget_StreamingDisablesCascade(t *testing.T) {
	reg := NewRegistry()
	cfg := RoutingConfig{
		Mode:           "cascade",
		CascadeEnabled: true,
		CascadeModels:  []string{"anthropic:claude-3-5-haiku-20241022", "anthropic:claude-sonnet-4-20250514"},
		MaxEscalations: 1,
	}
	target, err := SelectTarget(reg, cfg, valueobject.RoutingAuto, "relayplane:auto", valueobject.TaskGeneral, valueobject.ComplexityComplex, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Cascade != nil {
		t.Fatal("streaming requests must never receive a cascade plan")
	}
	if target.Single == nil {
		t.Fatal("expected a single target for streaming auto mode")
	}
}

func TestSelectTarget_CascadeBuiltForNonStreamingAuto(t *testing.T) {
	reg := NewRegistry()
	cfg := RoutingConfig{
		Mode:           "cascade",
		CascadeEnabled: true,
		CascadeModels:  []string{"anthropic:claude-3-5-haiku-20241022", "anthropic:claude-sonnet-4-20250514"},
		MaxEscalations: 1,
	}
	target, err := SelectTarget(reg, cfg, valueobject.RoutingAuto, "relayplane:auto", valueobject.TaskGeneral, valueobject.ComplexityComplex, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Cascade == nil {
		t.Fatal("expected cascade plan for non-streaming auto+cascade config")
	}
}

func TestRejectNonAnthropicForMessagesDialect(t *testing.T) {
	err := RejectNonAnthropicForMessagesDialect(entity.DialectAnthropicMessages, ResolvedModel{Provider: "openai", Model: "gpt-4o"})
	if err == nil {
		t.Fatal("expected rejection of non-anthropic target on /v1/messages")
	}
	err = RejectNonAnthropicForMessagesDialect(entity.DialectAnthropicMessages, ResolvedModel{Provider: "anthropic", Model: "claude-sonnet-4-20250514"})
	if err != nil {
		t.Fatalf("anthropic target should be allowed: %v", err)
	}
}
