// Package llm provides the generative text providers used by the enrichment
// stages.
//
// Every provider satisfies Generator: a system prompt, a user prompt and an
// optional token cap go in, the completion text comes out verbatim.
//
// # Providers
//
//   - openai: go-openai chat completions
//   - openrouter: a plain HTTP chat-completions client for any OpenAI-compatible endpoint
//   - anthropic: go-anthropic messages
//   - gemini: generative-ai-go
//
// New picks one from config.LLMConfig.
//
// # Retry Behaviour
//
// All providers call through a Retrier. It retries HTTP 408/429/5xx errors and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default) and honours Retry-After when the provider exposes it.
// An empty completion is not retried; it surfaces as services.ErrContent.
// Context cancellation aborts retries immediately. Exhausted or
// non-retryable provider failures surface as services.ErrCapability.
package llm
