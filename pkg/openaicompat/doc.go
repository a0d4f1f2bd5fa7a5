// Package openaicompat holds the Chat Completions wire types shared by the
// chat client and the probe helpers, plus the mapping of HTTP and network
// failures into api.APIError values. The types mirror the OpenAI Chat
// Completions API format as served by vLLM.
package openaicompat
