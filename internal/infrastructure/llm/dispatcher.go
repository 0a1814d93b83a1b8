package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// DispatchResponse is the upstream's raw reply: status, headers, and
// either a fully-read body (non-streaming) or a still-open body reader
// (streaming; caller must Close it).
type DispatchResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	BodyReader io.ReadCloser

	// cancel releases the per-request timeout context; Close must call it.
	cancel context.CancelFunc
}

// Close releases the request's timeout context and, for a streaming
// response, closes the underlying body reader.
func (r *DispatchResponse) Close() error {
	if r.cancel != nil {
		defer r.cancel()
	}
	if r.BodyReader != nil {
		return r.BodyReader.Close()
	}
	return nil
}

// Dispatcher builds outbound requests and assembles per-provider auth,
// enforcing a per-request timeout and recording cooldown failures on
// network error/timeout (spec 4.G). It never inspects or translates the
// request/response body — that is the translate.go functions' job.
type Dispatcher struct {
	client   *http.Client
	cooldown *CooldownManager
}

// NewDispatcher builds a Dispatcher sharing one connection-pooled client
// across all providers.
func NewDispatcher(cooldown *CooldownManager) *Dispatcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 300 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return &Dispatcher{
		client:   &http.Client{Transport: transport},
		cooldown: cooldown,
	}
}

// Do issues one upstream call against the resolved upstream model. streaming
// requests get a body reader left open for the caller to consume
// incrementally; non-streaming requests are fully buffered. requestTimeout
// of 0 means no additional deadline beyond ctx's own.
func (d *Dispatcher) Do(ctx context.Context, p Provider, model string, auth ResolvedAuth, body []byte, streaming bool, requestTimeout time.Duration) (*DispatchResponse, *gwerrors.RelayError) {
	var cancel context.CancelFunc
	if requestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
	}
	releaseOnError := func() {
		if cancel != nil {
			cancel()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint(model, streaming, auth), bytes.NewReader(body))
	if err != nil {
		releaseOnError()
		return nil, gwerrors.Wrap(gwerrors.KindInternal, "build upstream request", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	p.SetAuthHeaders(headers, auth)
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.recordFailure(p.Name())
		releaseOnError()
		if ctx.Err() != nil {
			return nil, gwerrors.Wrap(gwerrors.KindNetworkError, "provider error: request timed out", err)
		}
		return nil, gwerrors.Wrap(gwerrors.KindNetworkError, "provider error: "+err.Error(), err)
	}

	d.recordSuccess(p.Name())

	if streaming {
		return &DispatchResponse{StatusCode: resp.StatusCode, Header: resp.Header, BodyReader: resp.Body, cancel: cancel}, nil
	}

	defer resp.Body.Close()
	defer releaseOnError()
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		d.recordFailure(p.Name())
		return nil, gwerrors.Wrap(gwerrors.KindNetworkError, "provider error: "+readErr.Error(), readErr)
	}
	return &DispatchResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func (d *Dispatcher) recordFailure(provider string) {
	if d.cooldown != nil {
		d.cooldown.RecordFailure(provider, "dispatch error")
	}
}

func (d *Dispatcher) recordSuccess(provider string) {
	if d.cooldown != nil {
		d.cooldown.RecordSuccess(provider)
	}
}
