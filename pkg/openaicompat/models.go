package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rhuss/vllmctl/pkg/api"
)

// DefaultModelName is the model name used when discovery against /models
// fails for any reason. vLLM accepts it only when the server was started
// with a matching served-model-name; the fallback is kept regardless so
// that client construction never fails.
const DefaultModelName = "default"

// FetchModels queries the /models endpoint relative to baseURL and returns
// the parsed model list. baseURL is expected to already end in /v1.
func FetchModels(ctx context.Context, httpClient *http.Client, baseURL, apiKey string) (*ChatModelsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/models", nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	var modelsResp ChatModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	return &modelsResp, nil
}

// ResolveModelName returns the id of the first model served at baseURL,
// or DefaultModelName when the query fails, returns a non-200 status, or
// lists no models. It never returns an error.
func ResolveModelName(ctx context.Context, baseURL, apiKey string, timeout time.Duration) string {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpClient := &http.Client{Timeout: timeout}
	modelsResp, err := FetchModels(reqCtx, httpClient, baseURL, apiKey)
	if err != nil || len(modelsResp.Data) == 0 {
		return DefaultModelName
	}

	return modelsResp.Data[0].ID
}
