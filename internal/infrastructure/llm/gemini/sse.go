package gemini

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

// EmitFunc receives one OpenAI-shaped stream chunk.
type EmitFunc func(openai.StreamChunkData) error

// TranscodeSSE reads Gemini's streaming generateContent response (one JSON
// object per "data:" line) and emits OpenAI "chat.completion.chunk"
// objects. The first chunk carries delta.role=assistant; subsequent
// chunks carry delta.content text; a terminal finishReason sets
// finish_reason (spec 4.F streaming transcoding, "Gemini SSE").
func TranscodeSSE(ctx context.Context, reader io.Reader, model string, emit EmitFunc) error {
	idleTimeout := 60 * time.Second
	tReader := &timedReader{r: reader, timeout: idleTimeout}

	scanner := bufio.NewScanner(tReader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	chunkID := "chatcmpl-" + model
	first := true

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "" || data == "[DONE]" {
			continue
		}

		var resp Response
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			continue // malformed upstream JSON: drop, best-effort continuation
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		cand := resp.Candidates[0]

		var text string
		for _, p := range cand.Content.Parts {
			text += p.Text
		}

		delta := openai.StreamDelta{Content: text}
		if first {
			delta.Role = "assistant"
			first = false
		}

		chunk := openai.StreamChunkData{
			ID:      chunkID,
			Model:   model,
			Choices: []openai.StreamChoice{{Delta: delta}},
		}
		if cand.FinishReason != "" {
			reason := mapFinishReason(cand.FinishReason)
			chunk.Choices[0].FinishReason = &reason
		}
		if err := emit(chunk); err != nil {
			return err
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
