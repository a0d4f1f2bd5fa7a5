package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/vllmctl/pkg/api"
	"github.com/rhuss/vllmctl/pkg/observability"
	"github.com/rhuss/vllmctl/pkg/openaicompat"
)

// StreamEventType identifies the kind of a StreamEvent.
type StreamEventType int

const (
	// StreamDelta carries a non-empty text fragment.
	StreamDelta StreamEventType = iota
	// StreamDone signals normal end of stream ([DONE] sentinel or EOF).
	StreamDone
	// StreamError signals a mid-stream read failure.
	StreamError
)

// StreamEvent is one element of a streaming chat response.
type StreamEvent struct {
	Type  StreamEventType
	Delta string
	Err   error
}

// StreamChat sends a single-turn chat message with stream=true and returns a
// channel of events. Text fragments arrive as StreamDelta events; the stream
// ends with exactly one StreamDone or StreamError event, after which the
// channel is closed. HTTP and network errors are returned before any event
// is produced.
//
// The HTTP client timeout is not applied to the streaming request because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead: cancelling ctx drops the
// underlying connection.
func (c *Client) StreamChat(ctx context.Context, message string, opts ChatOptions) (<-chan StreamEvent, error) {
	start := time.Now()
	chatReq := c.buildRequest(message, opts, true)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	// Use a client without timeout for streaming. The context controls
	// the request lifetime instead.
	streamClient := &http.Client{Transport: c.client.Transport}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		observability.ClientRequestsTotal.WithLabelValues("stream_chat", "error").Inc()
		return nil, openaicompat.MapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		httpResp.Body.Close()
		observability.ClientRequestsTotal.WithLabelValues("stream_chat", "error").Inc()
		return nil, openaicompat.MapHTTPError(httpResp)
	}

	observability.ClientRequestsTotal.WithLabelValues("stream_chat", "ok").Inc()

	ch := make(chan StreamEvent, 16)

	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseSSEStream(ctx, httpResp.Body, ch)
		observability.ClientRequestDuration.WithLabelValues("stream_chat").Observe(time.Since(start).Seconds())
	}()

	return ch, nil
}

// parseSSEStream reads Chat Completions SSE chunks from body one line at a
// time and sends events on ch. The channel is NOT closed by this function;
// the caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Only chunks whose first choice carries a non-empty delta.content produce a
// StreamDelta event. Malformed chunks are logged and skipped. Context
// cancellation stops reading immediately.
func parseSSEStream(ctx context.Context, body io.Reader, ch chan<- StreamEvent) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		// Check for context cancellation between lines.
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// SSE lines that don't start with "data: " are ignored
		// (e.g., empty lines, comments starting with ":").
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		payload := strings.TrimPrefix(line, "data: ")

		// Handle the [DONE] sentinel.
		if payload == "[DONE]" {
			ch <- StreamEvent{Type: StreamDone}
			return
		}

		var chunk openaicompat.ChatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", truncate(payload, 200),
			)
			continue
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		if content := chunk.Choices[0].Delta.Content; content != nil && *content != "" {
			ch <- StreamEvent{Type: StreamDelta, Delta: *content}
		}
	}

	// Scanner error (e.g., connection dropped).
	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		ch <- StreamEvent{
			Type: StreamError,
			Err:  api.NewServerError("SSE stream read error: " + err.Error()),
		}
		return
	}

	// Connection closed without a [DONE] sentinel.
	ch <- StreamEvent{Type: StreamDone}
}

// truncate limits a string to maxLen characters for log output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
