package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/vllmctl/pkg/api"
	"github.com/rhuss/vllmctl/pkg/openaicompat"
)

// collectEvents runs parseSSEStream over sseData and returns all events.
func collectEvents(t *testing.T, sseData string) []StreamEvent {
	t.Helper()
	ch := make(chan StreamEvent, 64)

	go func() {
		defer close(ch)
		parseSSEStream(context.Background(), strings.NewReader(sseData), ch)
	}()

	var events []StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestParseSSEStream_TextDeltas(t *testing.T) {
	sseData := `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"He"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"llo"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]
`
	events := collectEvents(t, sseData)

	// Role-only and finish_reason chunks carry no content, so exactly two
	// deltas and the terminal done event are expected.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != StreamDelta || events[0].Delta != "He" {
		t.Errorf("event 0 = %+v, want delta \"He\"", events[0])
	}
	if events[1].Type != StreamDelta || events[1].Delta != "llo" {
		t.Errorf("event 1 = %+v, want delta \"llo\"", events[1])
	}
	if events[2].Type != StreamDone {
		t.Errorf("event 2 = %+v, want done", events[2])
	}
}

func TestParseSSEStream_EOFWithoutDone(t *testing.T) {
	sseData := `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hi"},"finish_reason":null}]}
`
	events := collectEvents(t, sseData)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[1].Type != StreamDone {
		t.Errorf("expected done after connection close, got %+v", events[1])
	}
}

func TestParseSSEStream_MalformedChunkSkipped(t *testing.T) {
	sseData := `data: {this is not valid json}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"!"},"finish_reason":null}]}

data: [DONE]
`
	events := collectEvents(t, sseData)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != StreamDelta || events[0].Delta != "!" {
		t.Errorf("event 0 = %+v, want delta \"!\"", events[0])
	}
}

func TestParseSSEStream_IgnoresNonDataLines(t *testing.T) {
	sseData := `: keep-alive comment

event: ping

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"ok"},"finish_reason":null}]}

data: [DONE]
`
	events := collectEvents(t, sseData)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Delta != "ok" {
		t.Errorf("event 0 = %+v, want delta \"ok\"", events[0])
	}
}

func TestStreamChat_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			modelsHandler("stream-model")(w, r)
			return
		}

		var chatReq openaicompat.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if !chatReq.Stream {
			t.Error("expected stream to be true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, token := range []string{"str", "eam", "ing"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", token)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	defer c.Close()

	ch, err := c.StreamChat(context.Background(), "Hello", ChatOptions{})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var got strings.Builder
	var sawDone bool
	for ev := range ch {
		switch ev.Type {
		case StreamDelta:
			got.WriteString(ev.Delta)
		case StreamDone:
			sawDone = true
		case StreamError:
			t.Fatalf("unexpected stream error: %v", ev.Err)
		}
	}

	if got.String() != "streaming" {
		t.Errorf("assembled stream = %q, want \"streaming\"", got.String())
	}
	if !sawDone {
		t.Error("expected a terminal done event")
	}
}

func TestStreamChat_HTTPErrorBeforeFirstChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			modelsHandler("stream-model")(w, r)
			return
		}
		http.Error(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL + "/v1")
	defer c.Close()

	ch, err := c.StreamChat(context.Background(), "Hello", ChatOptions{})
	if err == nil {
		t.Fatal("expected error before any chunk")
	}
	if ch != nil {
		t.Error("expected nil channel on error")
	}

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.APIError, got %T", err)
	}
	if apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected type %q, got %q", api.ErrorTypeInvalidRequest, apiErr.Type)
	}
}

func TestStreamChat_ContextCancellation(t *testing.T) {
	blockStream := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			modelsHandler("stream-model")(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"first\"},\"finish_reason\":null}]}\n\n")
		flusher.Flush()
		// Hold the stream open until the test finishes.
		<-blockStream
	}))
	defer srv.Close()
	// Unblock the handler before srv.Close waits on it (defers run LIFO).
	defer close(blockStream)

	c := New(srv.URL + "/v1")
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.StreamChat(ctx, "Hello", ChatOptions{})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	// Read the first delta, then cancel and drain: the channel must close.
	first := <-ch
	if first.Type != StreamDelta || first.Delta != "first" {
		t.Fatalf("first event = %+v, want delta \"first\"", first)
	}
	cancel()

	for range ch {
		// Drain remaining events; cancellation must terminate the stream.
	}
}
