package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request is a single system+user completion request.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Generator produces completion text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// StatusError carries a provider HTTP status so the retrier can classify it.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *StatusError) Error() string {
	provider := e.Provider
	if provider == "" {
		provider = "llm"
	}
	return fmt.Sprintf("%s request: http %d: %s", provider, e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// EmptyContentError reports a successful call that produced no text.
type EmptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

func validateRequest(op string, req Request) error {
	if strings.TrimSpace(req.User) == "" {
		return fmt.Errorf("%s: user prompt required", op)
	}
	return nil
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
