package service

import (
	"errors"
	"testing"

	"github.com/relayplane/gateway/internal/domain/entity"
)

type alwaysAvailable struct{}

func (alwaysAvailable) IsAvailable(string) bool { return true }

func TestRunCascade_S6Escalation(t *testing.T) {
	plan := entity.CascadePlan{
		Models:         []string{"haiku", "sonnet", "opus"},
		Trigger:        entity.TriggerUncertainty,
		MaxEscalations: 1,
	}
	calls := 0
	resolve := func(modelRef string) (ResolvedModel, bool) {
		return ResolvedModel{Provider: "anthropic", Model: modelRef}, true
	}
	dispatch := func(modelRef string) (DispatchResult, error) {
		calls++
		switch modelRef {
		case "haiku":
			return DispatchResult{ResponseText: "I'm not entirely sure", Provider: "anthropic", Model: "haiku"}, nil
		case "sonnet":
			return DispatchResult{ResponseText: "42", Provider: "anthropic", Model: "sonnet"}, nil
		default:
			t.Fatalf("opus must never be called")
			return DispatchResult{}, nil
		}
	}

	result, escalations, err := RunCascade(plan, alwaysAvailable{}, resolve, dispatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Model != "sonnet" {
		t.Fatalf("expected sonnet to win, got %s", result.Model)
	}
	if escalations != 1 {
		t.Fatalf("expected 1 escalation, got %d", escalations)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 dispatch calls, got %d", calls)
	}
}

func TestRunCascade_AllExhausted(t *testing.T) {
	plan := entity.CascadePlan{
		Models:         []string{"haiku", "sonnet"},
		Trigger:        entity.TriggerUncertainty,
		MaxEscalations: 1,
	}
	resolve := func(modelRef string) (ResolvedModel, bool) {
		return ResolvedModel{Provider: "anthropic", Model: modelRef}, true
	}
	dispatch := func(modelRef string) (DispatchResult, error) {
		return DispatchResult{Provider: "anthropic", Model: modelRef}, errors.New("upstream failure")
	}
	_, _, err := RunCascade(plan, alwaysAvailable{}, resolve, dispatch)
	if err == nil {
		t.Fatal("expected cascade_exhausted error")
	}
	if err.Kind != "cascade_exhausted" {
		t.Fatalf("expected cascade_exhausted kind, got %s", err.Kind)
	}
}

func TestRunCascade_CooldownSkip(t *testing.T) {
	plan := entity.CascadePlan{
		Models:         []string{"haiku", "sonnet"},
		Trigger:        entity.TriggerUncertainty,
		MaxEscalations: 1,
	}
	resolve := func(modelRef string) (ResolvedModel, bool) {
		return ResolvedModel{Provider: modelRef, Model: modelRef}, true
	}
	checker := cooldownStub{cooled: map[string]bool{"haiku": true}}
	calls := 0
	dispatch := func(modelRef string) (DispatchResult, error) {
		calls++
		return DispatchResult{ResponseText: "ok", Provider: modelRef, Model: modelRef}, nil
	}
	result, _, err := RunCascade(plan, checker, resolve, dispatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Model != "sonnet" {
		t.Fatalf("expected cooled haiku to be skipped in favor of sonnet, got %s", result.Model)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 dispatch call (haiku skipped), got %d", calls)
	}
}

type cooldownStub struct {
	cooled map[string]bool
}

func (c cooldownStub) IsAvailable(provider string) bool {
	return !c.cooled[provider]
}
