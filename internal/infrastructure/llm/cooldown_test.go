package llm

import (
	"testing"

	"github.com/relayplane/gateway/internal/domain/service"
)

func TestCooldownManager_TripsAfterAllowedFails(t *testing.T) {
	clock := service.NewFakeClock(0)
	cm := NewCooldownManager(clock, 60, 3, 30)

	cm.RecordFailure("anthropic", "timeout")
	cm.RecordFailure("anthropic", "timeout")
	if !cm.IsAvailable("anthropic") {
		t.Fatal("should remain available before reaching allowed_fails")
	}
	cm.RecordFailure("anthropic", "timeout")
	if cm.IsAvailable("anthropic") {
		t.Fatal("should cool down at the 3rd failure")
	}
}

func TestCooldownManager_ClearsAfterCooldownElapses(t *testing.T) {
	clock := service.NewFakeClock(0)
	cm := NewCooldownManager(clock, 60, 1, 30)
	cm.RecordFailure("anthropic", "timeout")
	if cm.IsAvailable("anthropic") {
		t.Fatal("expected cooldown to trip on first failure with allowed_fails=1")
	}
	clock.Advance(30*1000 + 1)
	if !cm.IsAvailable("anthropic") {
		t.Fatal("expected cooldown to clear after cooldown_seconds elapses")
	}
}

func TestCooldownManager_SuccessClears(t *testing.T) {
	clock := service.NewFakeClock(0)
	cm := NewCooldownManager(clock, 60, 1, 30)
	cm.RecordFailure("anthropic", "timeout")
	cm.RecordSuccess("anthropic")
	if !cm.IsAvailable("anthropic") {
		t.Fatal("success should clear cooldown immediately")
	}
}

func TestCooldownManager_Isolation(t *testing.T) {
	clock := service.NewFakeClock(0)
	cm := NewCooldownManager(clock, 60, 1, 30)
	cm.RecordFailure("anthropic", "timeout")
	if !cm.IsAvailable("openai") {
		t.Fatal("cooling one provider must not affect another (invariant 10)")
	}
}

func TestCooldownManager_WindowPruning(t *testing.T) {
	clock := service.NewFakeClock(0)
	cm := NewCooldownManager(clock, 10, 2, 30)
	cm.RecordFailure("anthropic", "timeout")
	clock.Advance(11 * 1000)
	cm.RecordFailure("anthropic", "timeout")
	if !cm.IsAvailable("anthropic") {
		t.Fatal("first failure should have been pruned outside the 10s window, leaving only 1 recent failure")
	}
}
