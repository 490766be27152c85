package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient generates text with the Anthropic messages API.
type AnthropicClient struct {
	client  *anthropic.Client
	model   string
	retrier *Retrier
}

// NewAnthropicClient builds a go-anthropic backed generator.
func NewAnthropicClient(apiKey, model, baseURL string, timeoutSeconds int, opts ...Option) *AnthropicClient {
	o := applyOptions(timeoutSeconds, opts)
	clientOpts := []anthropic.ClientOption{anthropic.WithHTTPClient(o.httpClient)}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:  anthropic.NewClient(strings.TrimSpace(apiKey), clientOpts...),
		model:   strings.TrimSpace(model),
		retrier: o.retrier,
	}
}

// Generate sends one message request with retry. Anthropic requires a token
// cap, so an unset MaxTokens uses a generous default.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	const op = "anthropic generate"
	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	payload := anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: strings.TrimSpace(req.System),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.User)},
			},
		},
		MaxTokens: maxTokens,
	}

	return c.retrier.Do(ctx, op, func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateMessages(ctx, payload)
		if err != nil {
			return "", normalizeAnthropicError(err)
		}
		var parts []string
		for _, content := range resp.Content {
			if content.Text != nil && strings.TrimSpace(*content.Text) != "" {
				parts = append(parts, *content.Text)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, ""))
		if text == "" {
			return "", &EmptyContentError{Op: op, FinishReason: string(resp.StopReason), Snippet: "<empty>"}
		}
		return text, nil
	})
}

func normalizeAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode > 0 {
		return &StatusError{Provider: "anthropic", StatusCode: reqErr.StatusCode, Body: reqErr.Error(), Err: err}
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		if code := anthropicErrorStatus(string(apiErr.Type)); code > 0 {
			return &StatusError{Provider: "anthropic", StatusCode: code, Body: apiErr.Message, Err: err}
		}
	}
	return err
}

// anthropicErrorStatus maps documented error types to their HTTP status.
func anthropicErrorStatus(errType string) int {
	switch errType {
	case "invalid_request_error":
		return http.StatusBadRequest
	case "authentication_error":
		return http.StatusUnauthorized
	case "permission_error":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	case "request_too_large":
		return http.StatusRequestEntityTooLarge
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "api_error":
		return http.StatusInternalServerError
	case "overloaded_error":
		return 529
	}
	return 0
}
