package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient generates text with the OpenAI chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	retrier *Retrier
}

// NewOpenAIClient builds a go-openai backed generator. baseURL may point at
// any OpenAI-compatible server.
func NewOpenAIClient(apiKey, model, baseURL string, timeoutSeconds int, opts ...Option) *OpenAIClient {
	o := applyOptions(timeoutSeconds, opts)
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = o.httpClient
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   strings.TrimSpace(model),
		retrier: o.retrier,
	}
}

// Generate issues a chat completion with retry.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	const op = "openai generate"
	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})
	payload := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}

	return c.retrier.Do(ctx, op, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, payload)
		if err != nil {
			return "", NormalizeOpenAIError(err)
		}
		if len(resp.Choices) == 0 {
			return "", &EmptyContentError{Op: op, Snippet: "<no choices>"}
		}
		choice := resp.Choices[0]
		content := strings.TrimSpace(choice.Message.Content)
		if content == "" {
			return "", &EmptyContentError{
				Op:           op,
				FinishReason: string(choice.FinishReason),
				Refusal:      choice.Message.Refusal,
				Snippet:      "<empty>",
			}
		}
		return content, nil
	})
}

// NormalizeOpenAIError converts go-openai error types into StatusError so the
// retrier can classify them. Other errors pass through unchanged.
func NormalizeOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &StatusError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &StatusError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body), Err: err}
	}
	return err
}
