package gemini

import (
	"encoding/json"
	"strings"

	"github.com/relayplane/gateway/internal/infrastructure/llm/openai"
)

// FromOpenAIRequest translates an OpenAI-shaped chat completion request
// into a Gemini generateContent request (spec 4.F, "OpenAI → Gemini").
// Image parts of the "data:<mime>;base64,<data>" form map to inline_data;
// any other URL form degrades to a "[Image: <url>]" text part.
func FromOpenAIRequest(req openai.Request) *Request {
	out := &Request{}

	genConfig := &GenerationConfig{MaxOutputTokens: 4096}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		genConfig.Temperature = req.Temperature
	}
	out.GenerationConfig = genConfig

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			text := msg.Content.PlainText()
			if out.SystemInstruction == nil {
				out.SystemInstruction = &Content{Parts: []Part{{Text: text}}}
			} else {
				out.SystemInstruction.Parts = append(out.SystemInstruction.Parts, Part{Text: text})
			}

		case "assistant":
			parts := partsFromOpenAIContent(msg.Content)
			for _, tc := range msg.ToolCalls {
				var args map[string]interface{}
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				parts = append(parts, Part{FunctionCall: &FunctionCall{Name: tc.Function.Name, Args: args}})
			}
			if len(parts) > 0 {
				out.Contents = append(out.Contents, Content{Role: "model", Parts: parts})
			}

		case "tool":
			out.Contents = append(out.Contents, Content{
				Role: "user",
				Parts: []Part{{
					FunctionResponse: &FunctionResponse{
						Name:     msg.Name,
						Response: map[string]interface{}{"result": msg.Content.PlainText()},
					},
				}},
			})

		default: // user
			out.Contents = append(out.Contents, Content{
				Role:  "user",
				Parts: partsFromOpenAIContent(msg.Content),
			})
		}
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, ToolDeclaration{
			FunctionDeclarations: []FunctionDeclarationSpec{{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  ConvertSchema(t.Function.Parameters),
			}},
		})
	}

	return out
}

// partsFromOpenAIContent converts an inbound OpenAI content field (plain
// string or typed-part array) into Gemini parts, preserving part order
// (spec 4.F, "OpenAI → Gemini").
func partsFromOpenAIContent(content openai.Content) []Part {
	if content.Parts == nil {
		if content.Text == "" {
			return nil
		}
		return []Part{{Text: content.Text}}
	}

	var parts []Part
	for _, p := range content.Parts {
		switch p.Type {
		case openai.ContentPartText:
			if p.Text != "" {
				parts = append(parts, Part{Text: p.Text})
			}
		case openai.ContentPartImageURL:
			if p.ImageURL == nil {
				continue
			}
			parts = append(parts, imagePartFromURL(p.ImageURL.URL))
		}
	}
	return parts
}

// imagePartFromURL builds a Gemini part from an OpenAI image_url part's
// url: a data URI becomes inline_data, anything else degrades to a
// "[Image: <url>]" text part (spec 4.F).
func imagePartFromURL(url string) Part {
	if mimeType, data, ok := parseDataURI(url); ok {
		return Part{InlineData: &Blob{MimeType: mimeType, Data: data}}
	}
	return Part{Text: "[Image: " + url + "]"}
}

// parseDataURI splits a "data:<mime>;base64,<data>" URI into its media
// type and base64 payload.
func parseDataURI(uri string) (mimeType, data string, ok bool) {
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

// ToOpenAIResponse translates a Gemini generateContent response into an
// OpenAI-shaped chat completion response (spec 4.F, "Gemini → OpenAI").
func ToOpenAIResponse(resp *Response, model string) *openai.Response {
	out := &openai.Response{Model: model}
	if resp.UsageMetadata != nil {
		out.Usage = openai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.Total(),
		}
	}

	if len(resp.Candidates) == 0 {
		out.Choices = []openai.Choice{{Message: openai.Message{Role: "assistant"}, FinishReason: "stop"}}
		return out
	}

	cand := resp.Candidates[0]
	var content string
	for _, p := range cand.Content.Parts {
		content += p.Text
	}

	out.Choices = []openai.Choice{{
		Message:      openai.Message{Role: "assistant", Content: openai.TextContent(content)},
		FinishReason: mapFinishReason(cand.FinishReason),
	}}
	return out
}

func mapFinishReason(reason string) string {
	switch reason {
	case "MAX_TOKENS":
		return "length"
	case "SAFETY":
		return "content_filter"
	default:
		return "stop"
	}
}
