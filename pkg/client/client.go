// Package client provides a thin chat client for a vLLM server exposing the
// OpenAI-compatible Chat Completions API. It resolves the served model name
// once at construction and offers blocking and streaming chat calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/vllmctl/pkg/api"
	"github.com/rhuss/vllmctl/pkg/observability"
	"github.com/rhuss/vllmctl/pkg/openaicompat"
)

// Default sampling parameters applied when ChatOptions leaves them unset.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
)

// Client is a chat client bound to one server base URL and one resolved
// model name. It is safe for concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
	model  string
}

// ChatOptions controls a single chat call. The zero value applies the
// defaults: MaxTokens 512, Temperature 0.7, no system prompt.
type ChatOptions struct {
	// MaxTokens limits the generated completion length. Values <= 0 use
	// DefaultMaxTokens.
	MaxTokens int

	// Temperature is the sampling temperature. Nil uses DefaultTemperature;
	// an explicit pointer to 0 requests deterministic sampling.
	Temperature *float64

	// SystemPrompt, when non-empty, is sent as a system message before the
	// user message.
	SystemPrompt string
}

// New creates a Client for the given base URL (expected to end in /v1) with
// default configuration. It queries /models to discover the served model and
// silently falls back to "default" on any failure; construction never fails.
func New(baseURL string) *Client {
	return NewWithConfig(DefaultConfig(baseURL))
}

// NewWithConfig creates a Client with explicit configuration.
func NewWithConfig(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ModelTimeout == 0 {
		cfg.ModelTimeout = 5 * time.Second
	}

	model := openaicompat.ResolveModelName(context.Background(), cfg.BaseURL, cfg.APIKey, cfg.ModelTimeout)
	status := "ok"
	if model == openaicompat.DefaultModelName {
		status = "error"
	}
	observability.ClientRequestsTotal.WithLabelValues("resolve_model", status).Inc()

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		model:  model,
	}
}

// ModelName returns the model id resolved at construction.
func (c *Client) ModelName() string {
	return c.model
}

// Chat sends a single-turn chat message and returns the first choice's
// message content. HTTP and network failures are propagated as *api.APIError.
func (c *Client) Chat(ctx context.Context, message string, opts ChatOptions) (string, error) {
	start := time.Now()
	text, err := c.chat(ctx, message, opts)

	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ClientRequestsTotal.WithLabelValues("chat", status).Inc()
	observability.ClientRequestDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())

	return text, err
}

func (c *Client) chat(ctx context.Context, message string, opts ChatOptions) (string, error) {
	chatReq := c.buildRequest(message, opts, false)

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.cfg.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", openaicompat.MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", openaicompat.MapHTTPError(httpResp)
	}

	var chatResp openaicompat.ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	if len(chatResp.Choices) == 0 {
		return "", api.NewModelError("backend returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// buildRequest assembles the Chat Completions request body: optional system
// message first, then the user message.
func (c *Client) buildRequest(message string, opts ChatOptions, stream bool) openaicompat.ChatCompletionRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	var messages []openaicompat.ChatMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openaicompat.ChatMessage{Role: "system", Content: opts.SystemPrompt})
	}
	messages = append(messages, openaicompat.ChatMessage{Role: "user", Content: message})

	return openaicompat.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Stream:      stream,
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
