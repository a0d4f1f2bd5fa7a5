package client

import "time"

// Config holds configuration for the chat client.
type Config struct {
	// BaseURL is the server URL including the /v1 prefix
	// (e.g., "http://localhost:8000/v1").
	BaseURL string

	// APIKey for backend authentication (optional).
	APIKey string

	// Timeout for chat completion requests. Defaults to 60s.
	Timeout time.Duration

	// ModelTimeout for the one-time model discovery at construction.
	// Defaults to 5s.
	ModelTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      60 * time.Second,
		ModelTimeout: 5 * time.Second,
	}
}
