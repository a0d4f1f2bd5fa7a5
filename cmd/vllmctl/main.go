// Command vllmctl runs diagnostics against a vLLM server exposing the
// OpenAI-compatible API.
//
// Usage:
//
//	vllmctl --server http://localhost:8000/v1 --check
//	vllmctl --server http://localhost:8000/v1 --wait --timeout 300
//	vllmctl --server http://localhost:8000/v1 --status
//	vllmctl --server http://localhost:8000/v1 --test
//
// Each action prints a human-readable result and exits 0 on success,
// 1 on failure. Without an action the usage help is printed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/vllmctl/pkg/probe"
)

func main() {
	var (
		server  = flag.String("server", "http://localhost:8000/v1", "vLLM server base URL (including /v1)")
		check   = flag.Bool("check", false, "check if the server is responding")
		wait    = flag.Bool("wait", false, "wait for the server to become ready")
		status  = flag.Bool("status", false, "print server status and model info")
		test    = flag.Bool("test", false, "run an inference smoke test")
		timeout = flag.Int("timeout", 120, "timeout in seconds (for --wait)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *check:
		os.Exit(runCheck(ctx, *server))
	case *wait:
		os.Exit(runWait(ctx, *server, time.Duration(*timeout)*time.Second))
	case *status:
		os.Exit(runStatus(ctx, *server))
	case *test:
		os.Exit(runTest(ctx, *server))
	default:
		flag.Usage()
	}
}

func runCheck(ctx context.Context, server string) int {
	fmt.Printf("Checking server at %s...\n", server)
	if probe.CheckServerHealth(ctx, server, 5*time.Second) {
		fmt.Println("✓ Server is responding")
		return 0
	}
	fmt.Println("✗ Server not responding")
	return 1
}

func runWait(ctx context.Context, server string, timeout time.Duration) int {
	fmt.Printf("Waiting for server at %s...\n", server)

	opts := probe.DefaultWaitOptions()
	opts.Timeout = timeout
	opts.Verbose = true

	if probe.WaitForServerReady(ctx, server, opts) {
		fmt.Println("✓ Server ready")
		return 0
	}
	fmt.Println("✗ Server failed to start")
	return 1
}

func runStatus(ctx context.Context, server string) int {
	fmt.Printf("Getting status from %s...\n", server)

	status := probe.GetServerStatus(ctx, server, 5*time.Second)
	fmt.Printf("Status: %s\n", status.State)

	if status.State == probe.StateOnline {
		fmt.Printf("Model: %s\n", status.Model)
		fmt.Printf("Owner: %s\n", status.OwnedBy)
		return 0
	}
	if status.Err != "" {
		fmt.Printf("Error: %s\n", status.Err)
	}
	return 1
}

func runTest(ctx context.Context, server string) int {
	fmt.Printf("Testing inference at %s...\n", server)

	result := probe.TestInference(ctx, server, probe.TestOptions{})
	if result.Success {
		fmt.Println("✓ Inference test successful")
		fmt.Printf("Response: %s\n", truncate(result.Response, 100))
		if result.Usage != nil {
			fmt.Printf("Usage: %d prompt + %d completion = %d tokens\n",
				result.Usage.PromptTokens, result.Usage.CompletionTokens, result.Usage.TotalTokens)
		}
		return 0
	}

	fmt.Println("✗ Inference test failed")
	fmt.Printf("Error: %s\n", result.Err)
	return 1
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
