package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/relayplane/gateway/internal/domain/service"
)

func directSendStub(ctx context.Context) (RouteResult, error) {
	return RouteResult{StatusCode: 200, Body: []byte(`{"direct":true}`)}, nil
}

func TestRouter_S3Fallback(t *testing.T) {
	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 2, 30_000, 1000)
	stats := NewStatsCollector(clock, 3_600_000)
	router := NewRouter("http://127.0.0.1:19999", time.Second, breaker, stats, clock, nil, true)

	for i := 0; i < 2; i++ {
		result, err := router.Route(context.Background(), "/v1/messages", []byte(`{}`), directSendStub)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if result.ViaProxy {
			t.Fatalf("call %d: viaProxy = true, want false", i)
		}
		if string(result.Body) != `{"direct":true}` {
			t.Fatalf("call %d: body = %s, want direct fallback body", i, result.Body)
		}
	}

	if breaker.State() != BreakerOpen {
		t.Fatalf("breaker state = %v after 2 proxy failures, want Open", breaker.State())
	}

	result, err := router.Route(context.Background(), "/v1/messages", []byte(`{}`), directSendStub)
	if err != nil {
		t.Fatalf("third call: unexpected error: %v", err)
	}
	if result.ViaProxy {
		t.Fatalf("third call: viaProxy = true, want false (breaker open, no proxy attempt)")
	}

	final := stats.GetStats()
	if final.TotalRequests != 3 || final.DirectRequests != 3 || final.ProxiedRequests != 0 {
		t.Fatalf("final stats = %+v, want {total:3 direct:3 proxied:0}", final)
	}
}

func TestRouter_DisabledAlwaysDirect(t *testing.T) {
	clock := service.NewFakeClock(0)
	breaker := NewBreaker(clock, 2, 30_000, 1000)
	stats := NewStatsCollector(clock, 3_600_000)
	router := NewRouter("http://127.0.0.1:19999", time.Second, breaker, stats, clock, nil, false)

	result, err := router.Route(context.Background(), "/v1/messages", []byte(`{}`), directSendStub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ViaProxy {
		t.Fatalf("viaProxy = true, want false when middleware disabled")
	}
	if breaker.State() != BreakerClosed {
		t.Fatalf("breaker state = %v, want Closed (no proxy attempted at all)", breaker.State())
	}
}
