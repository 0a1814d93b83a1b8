package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relayplane/gateway/internal/infrastructure/llm/openai"
)

// EmitFunc receives one OpenAI-shaped stream chunk, in production writing
// it to the client as an SSE "data:" line. Returning an error aborts the
// transcode.
type EmitFunc func(openai.StreamChunkData) error

// TranscodeSSE reads an Anthropic event-based SSE stream and emits it as
// OpenAI "chat.completion.chunk" objects (spec 4.F streaming transcoding).
//
// Parser state is a two-line buffer ("event:" then "data:"), flushed on
// each data line; malformed JSON is skipped silently (best-effort
// continuation, spec 4.F "Failure semantics"). Caller is responsible for
// writing the terminal "data: [DONE]" line once this returns without error.
func TranscodeSSE(ctx context.Context, reader io.Reader, model string, emit EmitFunc) error {
	idleTimeout := 60 * time.Second
	tReader := &timedReader{r: reader, timeout: idleTimeout}

	scanner := bufio.NewScanner(tReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEventType string
	openingChunkSent := false
	chunkID := "chatcmpl-" + model

	sendOpeningChunk := func() error {
		if openingChunkSent {
			return nil
		}
		openingChunkSent = true
		return emit(openai.StreamChunkData{
			ID:    chunkID,
			Model: model,
			Choices: []openai.StreamChoice{{
				Delta: openai.StreamDelta{Role: "assistant"},
			}},
		})
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEventType = strings.TrimPrefix(line, "event: ")
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		eventType := currentEventType
		currentEventType = ""

		switch eventType {
		case "message_start":
			if err := sendOpeningChunk(); err != nil {
				return err
			}

		case "content_block_start":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				continue
			}
			if evt.ContentBlock != nil && evt.ContentBlock.Type == "tool_use" {
				if err := emit(openai.StreamChunkData{
					ID:    chunkID,
					Model: model,
					Choices: []openai.StreamChoice{{
						Delta: openai.StreamDelta{
							ToolCalls: []openai.ToolCall{{
								Index:    evt.Index,
								ID:       evt.ContentBlock.ID,
								Type:     "function",
								Function: openai.ToolCallFunc{Name: evt.ContentBlock.Name},
							}},
						},
					}},
				}); err != nil {
					return err
				}
			}

		case "content_block_delta":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				continue
			}
			if evt.Delta == nil {
				continue
			}
			switch evt.Delta.Type {
			case "text_delta":
				if evt.Delta.Text == "" {
					continue
				}
				if err := emit(openai.StreamChunkData{
					ID:    chunkID,
					Model: model,
					Choices: []openai.StreamChoice{{
						Delta: openai.StreamDelta{Content: evt.Delta.Text},
					}},
				}); err != nil {
					return err
				}
			case "input_json_delta":
				if evt.Delta.PartialJSON == "" {
					continue
				}
				if err := emit(openai.StreamChunkData{
					ID:    chunkID,
					Model: model,
					Choices: []openai.StreamChoice{{
						Delta: openai.StreamDelta{
							ToolCalls: []openai.ToolCall{{
								Index:    evt.Index,
								Function: openai.ToolCallFunc{Arguments: evt.Delta.PartialJSON},
							}},
						},
					}},
				}); err != nil {
					return err
				}
			}

		case "message_delta":
			var evt StreamEvent
			if err := json.Unmarshal([]byte(data), &evt); err != nil {
				continue
			}
			if evt.Delta != nil && evt.Delta.StopReason != "" {
				reason := mapStopReason(evt.Delta.StopReason)
				if err := emit(openai.StreamChunkData{
					ID:    chunkID,
					Model: model,
					Choices: []openai.StreamChoice{{
						FinishReason: &reason,
					}},
				}); err != nil {
					return err
				}
			}

		case "message_stop":
			return nil

		case "ping", "content_block_stop":
			// no-op

		default:
			// unknown event type, ignore
		}
	}

	if err := scanner.Err(); err != nil {
		if isIdleTimeoutErr(err) {
			return fmt.Errorf("SSE stream stalled: no data for %v", idleTimeout)
		}
		return fmt.Errorf("SSE scan error: %w", err)
	}
	return nil
}

var errIdleTimeout = fmt.Errorf("SSE read idle timeout")

type timedReader struct {
	r       io.Reader
	timeout time.Duration
}

func (t *timedReader) Read(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := t.r.Read(p)
		ch <- result{n, err}
	}()
	select {
	case res := <-ch:
		return res.n, res.err
	case <-time.After(t.timeout):
		return 0, errIdleTimeout
	}
}

func isIdleTimeoutErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SSE read idle timeout")
}
