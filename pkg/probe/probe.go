// Package probe provides stateless diagnostics for a vLLM server exposing
// the OpenAI-compatible API: health check, readiness wait, status query, and
// an inference smoke test.
//
// Probe functions never return errors. Every failure is folded into the
// returned value so callers embedded in monitoring loops only ever inspect
// fields. This is deliberately the opposite of the chat client, which
// propagates failures immediately.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rhuss/vllmctl/pkg/observability"
	"github.com/rhuss/vllmctl/pkg/openaicompat"
)

// State classifies the reachability of a server.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
	StateUnknown State = "unknown"
	StateError   State = "error"
)

// Status is the transient result of a status query. It is never persisted.
type Status struct {
	State   State
	Model   string
	Created int64
	OwnedBy string
	Err     string
}

// InferenceResult is the transient result of an inference smoke test.
type InferenceResult struct {
	Success  bool
	Response string
	Usage    *openaicompat.ChatUsage
	Err      string
}

// TestOptions controls TestInference. The zero value applies the defaults:
// prompt "Hello! How are you?", 30s timeout, model discovered via /models.
type TestOptions struct {
	Prompt    string
	Timeout   time.Duration
	ModelName string
}

// CheckServerHealth reports whether the server behind serverURL (expected to
// end in /v1) answers GET /models with HTTP 200. Any connection error,
// timeout, or unexpected status yields false; it never returns an error.
// A zero timeout defaults to 5s.
func CheckServerHealth(ctx context.Context, serverURL string, timeout time.Duration) bool {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, serverURL+"/models", nil)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("models", "unreachable").Inc()
		return false
	}

	httpClient := &http.Client{Timeout: timeout}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("models", "unreachable").Inc()
		return false
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		observability.ProbeRequestsTotal.WithLabelValues("models", "http_error").Inc()
		return false
	}

	observability.ProbeRequestsTotal.WithLabelValues("models", "ok").Inc()
	return true
}

// GetServerStatus queries GET /models and classifies the result:
//
//   - HTTP 200 with at least one model: StateOnline with the first entry's
//     id, creation time, and owner.
//   - HTTP 200 with an empty list, or any other status code: StateUnknown
//     with a diagnostic error string.
//   - Connection error or timeout: StateOffline with the error text.
//   - Anything else (unreadable or malformed body): StateError.
//
// It never returns a Go error. A zero timeout defaults to 5s.
func GetServerStatus(ctx context.Context, serverURL string, timeout time.Duration) Status {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, serverURL+"/models", nil)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("models", "unreachable").Inc()
		return Status{State: StateError, Err: err.Error()}
	}

	httpClient := &http.Client{Timeout: timeout}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("models", "unreachable").Inc()
		if isConnectionError(err) {
			return Status{State: StateOffline, Err: err.Error()}
		}
		return Status{State: StateError, Err: err.Error()}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		observability.ProbeRequestsTotal.WithLabelValues("models", "http_error").Inc()
		return Status{
			State: StateUnknown,
			Err:   fmt.Sprintf("unexpected response: HTTP %d", httpResp.StatusCode),
		}
	}

	var modelsResp openaicompat.ChatModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("models", "http_error").Inc()
		return Status{State: StateError, Err: "parsing models response: " + err.Error()}
	}

	if len(modelsResp.Data) == 0 {
		observability.ProbeRequestsTotal.WithLabelValues("models", "http_error").Inc()
		return Status{State: StateUnknown, Err: "server reported no models (HTTP 200)"}
	}

	observability.ProbeRequestsTotal.WithLabelValues("models", "ok").Inc()

	model := modelsResp.Data[0]
	return Status{
		State:   StateOnline,
		Model:   model.ID,
		Created: model.Created,
		OwnedBy: model.OwnedBy,
	}
}

// TestInference sends a single-turn chat completion (max_tokens 100,
// temperature 0.1) to verify the server can actually generate. When no model
// name is supplied it is resolved via /models with a 5s timeout, falling back
// to "default" exactly as the chat client does. It never returns a Go error.
func TestInference(ctx context.Context, serverURL string, opts TestOptions) InferenceResult {
	if opts.Prompt == "" {
		opts.Prompt = "Hello! How are you?"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ModelName == "" {
		opts.ModelName = openaicompat.ResolveModelName(ctx, serverURL, "", 5*time.Second)
	}

	temperature := 0.1
	maxTokens := 100
	chatReq := openaicompat.ChatCompletionRequest{
		Model: opts.ModelName,
		Messages: []openaicompat.ChatMessage{
			{Role: "user", Content: opts.Prompt},
		},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return InferenceResult{Err: "marshaling request: " + err.Error()}
	}

	reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, serverURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return InferenceResult{Err: "creating request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: opts.Timeout}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("chat_completions", "unreachable").Inc()
		return InferenceResult{Err: err.Error()}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		observability.ProbeRequestsTotal.WithLabelValues("chat_completions", "http_error").Inc()
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		return InferenceResult{
			Err: fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode, string(respBody)),
		}
	}

	var chatResp openaicompat.ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		observability.ProbeRequestsTotal.WithLabelValues("chat_completions", "http_error").Inc()
		return InferenceResult{Err: "parsing response: " + err.Error()}
	}

	if len(chatResp.Choices) == 0 {
		observability.ProbeRequestsTotal.WithLabelValues("chat_completions", "http_error").Inc()
		return InferenceResult{Err: "backend returned no choices"}
	}

	observability.ProbeRequestsTotal.WithLabelValues("chat_completions", "ok").Inc()

	return InferenceResult{
		Success:  true,
		Response: chatResp.Choices[0].Message.Content,
		Usage:    chatResp.Usage,
	}
}

// isConnectionError reports whether err is a transport-level failure
// (connection refused, timeout, DNS) as opposed to a request-building or
// protocol problem.
func isConnectionError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
