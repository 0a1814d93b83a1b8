package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/relayplane/gateway/internal/application"
	"github.com/relayplane/gateway/internal/domain/entity"
	gwerrors "github.com/relayplane/gateway/pkg/errors"
	"go.uber.org/zap"
)

// requestContext builds an entity.RequestContext from the inbound gin
// request, stamping a fresh request id (spec §3 ADD: request id threading).
func requestContext(c *gin.Context) entity.RequestContext {
	return entity.NewRequestContext(uuid.NewString(), c.Request.Header)
}

// readBoundedBody enforces the 10 MiB body cap (spec 4.J).
func readBoundedBody(c *gin.Context) ([]byte, *gwerrors.RelayError) {
	limited := io.LimitReader(c.Request.Body, entity.MaxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, gwerrors.Wrap(gwerrors.KindInvalidRequest, "failed to read request body", err)
	}
	if int64(len(body)) > entity.MaxBodyBytes {
		return nil, &gwerrors.RelayError{Kind: gwerrors.KindInvalidRequest, Message: "request body exceeds 10 MiB limit", Status: http.StatusRequestEntityTooLarge}
	}
	return body, nil
}

// MessagesHandler serves the Anthropic-native /v1/messages dialect.
type MessagesHandler struct {
	pipeline *application.Pipeline
	logger   *zap.Logger
}

// NewMessagesHandler builds a MessagesHandler.
func NewMessagesHandler(pipeline *application.Pipeline, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{pipeline: pipeline, logger: logger}
}

// Messages handles POST /v1/messages.
func (h *MessagesHandler) Messages(c *gin.Context) {
	body, rerr := readBoundedBody(c)
	if rerr != nil {
		writeError(c, rerr)
		return
	}
	result, rerr := h.pipeline.HandleAnthropicMessages(c.Request.Context(), requestContext(c), body)
	writeResult(c, result, rerr)
}

// CountTokens handles POST /v1/messages/count_tokens.
func (h *MessagesHandler) CountTokens(c *gin.Context) {
	body, rerr := readBoundedBody(c)
	if rerr != nil {
		writeError(c, rerr)
		return
	}
	result, rerr := h.pipeline.CountTokens(c.Request.Context(), requestContext(c), body)
	writeResult(c, result, rerr)
}
