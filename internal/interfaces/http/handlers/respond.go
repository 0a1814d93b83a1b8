// Package handlers adapts application.Pipeline results onto gin, one file
// per route group (spec 4.J).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/relayplane/gateway/internal/application"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
)

// hopByHopHeaders are stripped from an upstream's response before copying
// the rest onto the client connection.
var hopByHopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding":  true,
	"Content-Length":    true,
	"Content-Encoding":  true,
}

// writeResult renders a pipeline Result, buffered or streamed, or maps a
// RelayError to its JSON error shape (spec §7).
func writeResult(c *gin.Context, result *application.Result, rerr *gwerrors.RelayError) {
	if rerr != nil {
		writeError(c, rerr)
		return
	}

	for k, vs := range result.Header {
		if hopByHopHeaders[k] {
			continue
		}
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}

	if result.Stream {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(result.StatusCode)

		flusher, ok := c.Writer.(http.Flusher)
		flush := func() {
			if ok {
				flusher.Flush()
			}
		}
		// Client disconnect aborts the upstream read on a best-effort basis;
		// the transcoder finishes silently (spec §5 "cancellation").
		_ = result.StreamTo(c.Request.Context(), c.Writer, flush)
		return
	}

	contentType := result.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(result.StatusCode, contentType, result.Body)
}

// writeError maps a RelayError onto its HTTP status and JSON body (spec
// §7). provider_error forwards the upstream body verbatim, never re-wrapped.
func writeError(c *gin.Context, rerr *gwerrors.RelayError) {
	if rerr.Kind == gwerrors.KindProviderError && len(rerr.Upstream) > 0 {
		c.Data(rerr.HTTPStatus(), "application/json", rerr.Upstream)
		return
	}

	body := gin.H{
		"type":    string(rerr.Kind),
		"message": rerr.Message,
	}
	if len(rerr.Suggestions) > 0 {
		body["suggestions"] = rerr.Suggestions
	}
	c.JSON(rerr.HTTPStatus(), gin.H{"error": body})
}
