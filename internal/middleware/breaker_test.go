package middleware

import (
	"testing"

	"github.com/relayplane/gateway/internal/domain/service"
)

func TestBreaker_S1TripSequence(t *testing.T) {
	clock := service.NewFakeClock(0)
	b := NewBreaker(clock, 3, 30_000, 1_000)

	var transitions []StateChange
	b.SetObserver(func(sc StateChange) { transitions = append(transitions, sc) })

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != BreakerOpen {
		t.Fatalf("expected OPEN after 3 failures, got %s", b.State())
	}
	if b.IsHealthy() {
		t.Fatal("OPEN breaker must not be healthy")
	}

	clock.Advance(30_000)
	if b.State() != BreakerHalfOpen {
		t.Fatalf("expected HALF-OPEN after reset timeout elapses, got %s", b.State())
	}
	if !b.IsHealthy() {
		t.Fatal("HALF-OPEN breaker must be healthy")
	}

	b.RecordSuccess()
	if b.State() != BreakerClosed {
		t.Fatalf("expected CLOSED after success in HALF-OPEN, got %s", b.State())
	}

	want := []StateChange{
		{From: BreakerClosed, To: BreakerOpen},
		{From: BreakerOpen, To: BreakerHalfOpen},
		{From: BreakerHalfOpen, To: BreakerClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %d: %+v", len(want), len(transitions), transitions)
	}
	for i, w := range want {
		if transitions[i] != w {
			t.Fatalf("transition %d: got %+v, want %+v", i, transitions[i], w)
		}
	}
}

func TestBreaker_MonotonicTrip(t *testing.T) {
	clock := service.NewFakeClock(0)
	b := NewBreaker(clock, 5, 30_000, 1_000)
	for i := 0; i < 4; i++ {
		b.RecordFailure()
		if b.State() != BreakerClosed {
			t.Fatalf("breaker tripped early at failure %d", i+1)
		}
	}
	b.RecordFailure()
	if b.State() != BreakerOpen {
		t.Fatal("expected breaker to trip at exactly the threshold-th failure")
	}
}

func TestBreaker_SuccessClearsFailures(t *testing.T) {
	clock := service.NewFakeClock(0)
	b := NewBreaker(clock, 3, 30_000, 1_000)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != BreakerClosed {
		t.Fatal("success should reset the failure count, preventing an early trip")
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := service.NewFakeClock(0)
	b := NewBreaker(clock, 2, 10_000, 1_000)
	b.RecordFailure()
	b.RecordFailure()
	clock.Advance(10_000)
	if b.State() != BreakerHalfOpen {
		t.Fatal("expected HALF-OPEN")
	}
	b.RecordFailure()
	if b.State() != BreakerOpen {
		t.Fatal("any failure in HALF-OPEN must reopen immediately")
	}
}
