package middleware

import (
	"testing"
	"time"

	"github.com/relayplane/gateway/internal/domain/service"
)

func TestSupervisor_RestartsUntilMaxAttemptsExceeded(t *testing.T) {
	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 100, 30_000, 1000)

	s := NewSupervisor("/bin/sh", []string{"-c", "exit 1"}, nil, breaker, clock, nil,
		2, 60_000, 5*time.Millisecond, 20*time.Millisecond)

	events := make(chan SupervisorEvent, 32)
	s.SetObserver(func(ev SupervisorEvent) { events <- ev })

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(3 * time.Second)
	var sawMaxExceeded bool
	crashes := 0
	for !sawMaxExceeded {
		select {
		case ev := <-events:
			switch ev.Kind {
			case EventCrash:
				crashes++
			case EventMaxRestartsExceeded:
				sawMaxExceeded = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for max-restarts-exceeded (saw %d crashes)", crashes)
		}
	}

	if crashes < 2 {
		t.Fatalf("crashes = %d, want at least maxAttempts (2) before giving up", crashes)
	}
	// With a high threshold the breaker may still be counting, but every
	// crash must have been recorded as a failure.
	breaker.mu.Lock()
	failures := breaker.failureCount
	breaker.mu.Unlock()
	if failures != crashes {
		t.Fatalf("breaker failures = %d, want one per crash (%d)", failures, crashes)
	}
}

func TestSupervisor_ManualStopDoesNotRestart(t *testing.T) {
	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 100, 30_000, 1000)

	s := NewSupervisor("/bin/sh", []string{"-c", "sleep 5"}, nil, breaker, clock, nil,
		5, 60_000, 5*time.Millisecond, 20*time.Millisecond)

	events := make(chan SupervisorEvent, 32)
	s.SetObserver(func(ev SupervisorEvent) { events <- ev })

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != EventStarted && ev.Kind != EventStopped {
			t.Fatalf("unexpected event after manual stop: %+v", ev)
		}
	case <-time.After(500 * time.Millisecond):
	}
}
