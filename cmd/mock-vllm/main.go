// Command mock-vllm runs a deterministic OpenAI-compatible backend for
// exercising vllmctl and the chat client without a GPU server. It serves
// the two endpoints this repository consumes: GET /v1/models and
// POST /v1/chat/completions (JSON and SSE).
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rhuss/vllmctl/pkg/openaicompat"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock vllm backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock vllm backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock vllm backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openaicompat.ChatModelsResponse{
		Object: "list",
		Data: []openaicompat.ChatModel{
			{ID: "mock-llama-8b", Object: "model", Created: 1700000000, OwnedBy: "vllm"},
		},
	})
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openaicompat.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	tokens := responseTokens(&req)

	if req.Stream {
		handleStreaming(w, req.Model, tokens)
		return
	}

	text := strings.Join(tokens, "")
	resp := openaicompat.ChatCompletionResponse{
		ID:     "chatcmpl-mock-1",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []openaicompat.ChatChoice{
			{
				Index:        0,
				Message:      openaicompat.ChatMessage{Role: "assistant", Content: text},
				FinishReason: "stop",
			},
		},
		Usage: &openaicompat.ChatUsage{PromptTokens: 10, CompletionTokens: len(tokens), TotalTokens: 10 + len(tokens)},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// responseTokens picks a deterministic response based on the last user
// message so the streaming and blocking paths stay in sync.
func responseTokens(req *openaicompat.ChatCompletionRequest) []string {
	var lastUser string
	for _, m := range req.Messages {
		if m.Role == "user" {
			lastUser = m.Content
		}
	}

	if strings.Contains(strings.ToLower(lastUser), "count from 1 to 5") {
		return []string{"1", ", ", "2", ", ", "3", ", ", "4", ", ", "5"}
	}
	return []string{"Hello", ", ", "nice", " ", "day", "!"}
}

func handleStreaming(w http.ResponseWriter, model string, tokens []string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	for _, token := range tokens {
		writeSSEChunk(w, model, token, nil)
		flusher.Flush()
		time.Sleep(20 * time.Millisecond)
	}

	stop := "stop"
	writeSSEChunk(w, model, "", &stop)
	flusher.Flush()

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeSSEChunk(w http.ResponseWriter, model, content string, finishReason *string) {
	chunk := openaicompat.ChatCompletionChunk{
		ID:     "chatcmpl-mock-1",
		Object: "chat.completion.chunk",
		Model:  model,
		Choices: []openaicompat.ChatChunkChoice{
			{
				Index:        0,
				Delta:        openaicompat.ChatChunkDelta{Content: &content},
				FinishReason: finishReason,
			},
		},
	}

	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}
