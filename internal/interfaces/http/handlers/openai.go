package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/relayplane/gateway/internal/application"
	"go.uber.org/zap"
)

// OpenAIHandler serves the OpenAI-compatible /v1/chat/completions dialect
// and the synthetic /v1/models listing.
type OpenAIHandler struct {
	pipeline *application.Pipeline
	logger   *zap.Logger
}

// NewOpenAIHandler builds an OpenAIHandler.
func NewOpenAIHandler(pipeline *application.Pipeline, logger *zap.Logger) *OpenAIHandler {
	return &OpenAIHandler{pipeline: pipeline, logger: logger}
}

// ChatCompletions handles POST /v1/chat/completions.
func (h *OpenAIHandler) ChatCompletions(c *gin.Context) {
	body, rerr := readBoundedBody(c)
	if rerr != nil {
		writeError(c, rerr)
		return
	}
	result, rerr := h.pipeline.HandleOpenAIChat(c.Request.Context(), requestContext(c), body)
	writeResult(c, result, rerr)
}

// ListModels handles GET /v1/models.
func (h *OpenAIHandler) ListModels(c *gin.Context) {
	result, rerr := h.pipeline.ListModels(c.Request.Context())
	writeResult(c, result, rerr)
}
