package anthropic

import (
	"testing"

	"github.com/relayplane/gateway/internal/infrastructure/llm/openai"
)

func openaiRequestFixture() openai.Request {
	return openai.Request{
		Model: "gpt-4o",
		Messages: []openai.Message{
			{Role: "system", Content: openai.TextContent("be terse")},
			{Role: "user", Content: openai.TextContent("hello")},
		},
	}
}

func TestToOpenAIResponse_S5ToolUseConversion(t *testing.T) {
	resp := &Response{
		ID:         "msg_abc",
		Model:      "claude-sonnet-4-20250514",
		StopReason: "tool_use",
		Content: []ContentBlock{
			{Type: "text", Text: "hi"},
			{Type: "tool_use", ID: "abc", Name: "search", Input: map[string]interface{}{"q": "x"}},
		},
		Usage: Usage{InputTokens: 10, OutputTokens: 5},
	}

	out := ToOpenAIResponse(resp)

	if len(out.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(out.Choices))
	}
	choice := out.Choices[0]
	if choice.Message.Content.PlainText() != "hi" {
		t.Fatalf("content = %q, want %q", choice.Message.Content.PlainText(), "hi")
	}
	if len(choice.Message.ToolCalls) != 1 {
		t.Fatalf("tool_calls = %d, want 1", len(choice.Message.ToolCalls))
	}
	tc := choice.Message.ToolCalls[0]
	if tc.Function.Name != "search" {
		t.Fatalf("tool name = %q, want %q", tc.Function.Name, "search")
	}
	if tc.Function.Arguments != `{"q":"x"}` {
		t.Fatalf("tool arguments = %q, want %q", tc.Function.Arguments, `{"q":"x"}`)
	}
	if choice.FinishReason != "tool_calls" {
		t.Fatalf("finish_reason = %q, want %q", choice.FinishReason, "tool_calls")
	}
	if out.Usage.PromptTokens != 10 || out.Usage.CompletionTokens != 5 || out.Usage.TotalTokens != 15 {
		t.Fatalf("usage = %+v, want {10 5 15}", out.Usage)
	}
}

func TestToOpenAIResponse_TextOnlyStopReason(t *testing.T) {
	resp := &Response{
		Model:      "claude-3-5-haiku-20241022",
		StopReason: "end_turn",
		Content:    []ContentBlock{{Type: "text", Text: "done"}},
		Usage:      Usage{InputTokens: 3, OutputTokens: 2},
	}
	out := ToOpenAIResponse(resp)
	if out.Choices[0].FinishReason != "stop" {
		t.Fatalf("finish_reason = %q, want %q", out.Choices[0].FinishReason, "stop")
	}
}

func TestFromOpenAIRequest_SystemAndToolTranslation(t *testing.T) {
	req := openaiRequestFixture()
	out := FromOpenAIRequest(req, "claude-sonnet-4-20250514")

	if out.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("model = %q, want resolved upstream model", out.Model)
	}
	if out.System != "be terse" {
		t.Fatalf("system = %q, want %q", out.System, "be terse")
	}
	if len(out.Messages) != 1 || out.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v, want single user message", out.Messages)
	}
}
