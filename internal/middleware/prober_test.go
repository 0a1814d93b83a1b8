package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relayplane/gateway/internal/domain/service"
)

func TestHealthProber_RecordsSuccessOnHealthyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(probeResponse{OK: true})
	}))
	defer srv.Close()

	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 1, 30_000, 1000)
	breaker.RecordFailure() // trip to OPEN

	if breaker.State() != BreakerOpen {
		t.Fatalf("precondition: breaker should be Open")
	}

	prober := NewHealthProber(srv.URL+"/health", breaker, nil)
	prober.probeOnce()

	if breaker.State() != BreakerClosed {
		t.Fatalf("breaker state = %v after healthy probe, want Closed", breaker.State())
	}
}

func TestHealthProber_IgnoresUnhealthyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(probeResponse{OK: false})
	}))
	defer srv.Close()

	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 1, 30_000, 1000)
	breaker.RecordFailure()

	prober := NewHealthProber(srv.URL+"/health", breaker, nil)
	prober.probeOnce()

	if breaker.State() != BreakerOpen {
		t.Fatalf("breaker state = %v after unhealthy probe, want still Open", breaker.State())
	}
}

func TestHealthProber_StartStopDoesNotBlock(t *testing.T) {
	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 1, 30_000, 1000)
	prober := NewHealthProber("http://127.0.0.1:19999/health", breaker, nil)

	prober.Start()
	time.Sleep(10 * time.Millisecond)
	prober.Stop()
}
