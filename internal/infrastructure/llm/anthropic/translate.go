package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/relayplane/gateway/internal/infrastructure/llm/openai"
)

const Version = "2023-06-01"

// FromOpenAIRequest translates an OpenAI-shaped chat completion request
// into the Anthropic Messages request shape (spec 4.F, "OpenAI →
// Anthropic"). The client's own model string is not consulted here — the
// caller substitutes the resolved upstream model name.
func FromOpenAIRequest(req openai.Request, upstreamModel string) *Request {
	out := &Request{
		Model:       upstreamModel,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}
	if out.MaxTokens == 0 {
		out.MaxTokens = 8192 // Anthropic requires an explicit max_tokens
	}

	var messages []Message
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if out.System != "" {
				out.System += "\n" + msg.Content.PlainText()
			} else {
				out.System = msg.Content.PlainText()
			}

		case "assistant":
			blocks := contentBlocksFromOpenAI(msg.Content)
			for _, tc := range msg.ToolCalls {
				var input map[string]interface{}
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
				blocks = append(blocks, ContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Function.Name,
					Input: input,
				})
			}
			if len(blocks) > 0 {
				messages = append(messages, Message{Role: "assistant", Content: blocks})
			}

		case "tool":
			messages = append(messages, Message{
				Role: "user",
				Content: []ContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Content.PlainText(),
				}},
			})

		default: // user
			messages = append(messages, Message{
				Role:    "user",
				Content: contentBlocksFromOpenAI(msg.Content),
			})
		}
	}
	out.Messages = messages

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, Tool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: ConvertSchema(t.Function.Parameters),
		})
	}

	out.ToolChoice = translateToolChoice(req.ToolChoice)

	return out
}

// contentBlocksFromOpenAI converts an inbound OpenAI content field (plain
// string or typed-part array) into Anthropic content blocks, preserving
// part order (spec 4.F, "OpenAI → Anthropic").
func contentBlocksFromOpenAI(content openai.Content) []ContentBlock {
	if content.Parts == nil {
		if content.Text == "" {
			return nil
		}
		return []ContentBlock{{Type: "text", Text: content.Text}}
	}

	var blocks []ContentBlock
	for _, p := range content.Parts {
		switch p.Type {
		case openai.ContentPartText:
			if p.Text != "" {
				blocks = append(blocks, ContentBlock{Type: "text", Text: p.Text})
			}
		case openai.ContentPartImageURL:
			if p.ImageURL == nil {
				continue
			}
			blocks = append(blocks, imageBlockFromURL(p.ImageURL.URL))
		}
	}
	return blocks
}

// imageBlockFromURL builds an Anthropic "image" block from an OpenAI
// image_url part's url: a data URI becomes an inline base64 source,
// anything else is forwarded as a url source (spec 4.F).
func imageBlockFromURL(url string) ContentBlock {
	if mediaType, data, ok := parseDataURI(url); ok {
		return ContentBlock{Type: "image", Source: &ImageSource{Type: "base64", MediaType: mediaType, Data: data}}
	}
	return ContentBlock{Type: "image", Source: &ImageSource{Type: "url", URL: url}}
}

// parseDataURI splits a "data:<mime>;base64,<data>" URI into its media
// type and base64 payload.
func parseDataURI(uri string) (mediaType, data string, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", false
	}
	rest := uri[len(prefix):]
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(";base64,"):], true
}

// AnthropicToolChoice is the {"type": ..., "name": ...} shape Anthropic
// expects for tool_choice.
type AnthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

func translateToolChoice(tc interface{}) *AnthropicToolChoice {
	switch v := tc.(type) {
	case string:
		switch v {
		case "auto":
			return &AnthropicToolChoice{Type: "auto"}
		case "none":
			return &AnthropicToolChoice{Type: "none"}
		case "required":
			return &AnthropicToolChoice{Type: "any"}
		}
	case map[string]interface{}:
		if v["type"] == "function" {
			if fn, ok := v["function"].(map[string]interface{}); ok {
				if name, ok := fn["name"].(string); ok {
					return &AnthropicToolChoice{Type: "tool", Name: name}
				}
			}
		}
	}
	return nil
}

// ToOpenAIResponse translates an Anthropic Messages response into an
// OpenAI-shaped chat completion response (spec 4.F, "Anthropic → OpenAI").
func ToOpenAIResponse(resp *Response) *openai.Response {
	out := &openai.Response{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: openai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.Total(),
		},
	}

	msg := openai.Message{Role: "assistant"}
	var text string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			argsJSON, _ := json.Marshal(block.Input)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: openai.ToolCallFunc{
					Name:      block.Name,
					Arguments: string(argsJSON),
				},
			})
		}
	}
	msg.Content = openai.TextContent(text)

	out.Choices = []openai.Choice{{
		Message:      msg,
		FinishReason: mapStopReason(resp.StopReason),
	}}
	return out
}

func mapStopReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return "tool_calls"
	case "end_turn":
		return "stop"
	default:
		if stopReason == "" {
			return "stop"
		}
		return stopReason
	}
}

// IsAPIKey reports whether key looks like an Anthropic direct API key
// (sk-ant-api*), as opposed to a MAX OAuth bearer token (sk-ant-oat*).
func IsAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-ant-api")
}

// IsMaxToken reports whether key is an Anthropic MAX OAuth-style token.
func IsMaxToken(key string) bool {
	return strings.HasPrefix(key, "sk-ant-oat")
}
