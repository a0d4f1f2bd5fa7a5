// Command chat-demo exercises the chat client against a running vLLM
// server: a plain chat call, a system-prompt chat call, and a streaming
// call. It assumes the server (or an SSH tunnel to it) is reachable at
// the given base URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rhuss/vllmctl/pkg/client"
)

func main() {
	server := flag.String("server", "http://localhost:8000/v1", "vLLM server base URL (including /v1)")
	flag.Parse()

	ctx := context.Background()

	fmt.Println("Connecting to vLLM server...")
	c := client.New(*server)
	defer c.Close()
	fmt.Printf("✓ Connected! Using model: %s\n\n", c.ModelName())

	exitCode := 0

	// 1. Simple chat.
	fmt.Println("[1] Simple chat")
	prompt := "Explain what a neural network is in one sentence."
	fmt.Printf("User: %s\n", prompt)
	if reply, err := c.Chat(ctx, prompt, client.ChatOptions{MaxTokens: 100}); err != nil {
		fmt.Printf("Error: %v\n", err)
		exitCode = 1
	} else {
		fmt.Printf("Assistant: %s\n", reply)
	}
	fmt.Println()

	// 2. With system prompt.
	fmt.Println("[2] With system prompt")
	systemPrompt := "You are a helpful assistant that speaks like a pirate."
	prompt = "What's the weather like today?"
	fmt.Printf("System: %s\n", systemPrompt)
	fmt.Printf("User: %s\n", prompt)
	temperature := 0.9
	opts := client.ChatOptions{MaxTokens: 100, Temperature: &temperature, SystemPrompt: systemPrompt}
	if reply, err := c.Chat(ctx, prompt, opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		exitCode = 1
	} else {
		fmt.Printf("Assistant: %s\n", reply)
	}
	fmt.Println()

	// 3. Streaming response.
	fmt.Println("[3] Streaming response")
	prompt = "Write a haiku about coding."
	fmt.Printf("User: %s\n", prompt)
	fmt.Print("Assistant: ")

	ch, err := c.StreamChat(ctx, prompt, client.ChatOptions{MaxTokens: 100})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for ev := range ch {
		switch ev.Type {
		case client.StreamDelta:
			fmt.Print(ev.Delta)
		case client.StreamError:
			fmt.Printf("\nError: %v\n", ev.Err)
			exitCode = 1
		}
	}
	fmt.Println()

	os.Exit(exitCode)
}
