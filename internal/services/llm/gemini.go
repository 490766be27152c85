package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient generates text with the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	retrier *Retrier
}

// NewGeminiClient builds a generative-ai-go backed generator. Close releases
// the underlying connection.
func NewGeminiClient(ctx context.Context, apiKey, model string, opts ...Option) (*GeminiClient, error) {
	o := applyOptions(0, opts)
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(apiKey)))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:  client,
		model:   strings.TrimSpace(model),
		retrier: o.retrier,
	}, nil
}

// Generate issues a single-turn content request with retry.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	const op = "gemini generate"
	if err := validateRequest(op, req); err != nil {
		return "", err
	}
	model := c.client.GenerativeModel(c.model)
	if system := strings.TrimSpace(req.System); system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	return c.retrier.Do(ctx, op, func(ctx context.Context) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(req.User))
		if err != nil {
			return "", normalizeGeminiError(op, err)
		}
		return geminiText(op, resp)
	})
}

// Close releases the client.
func (c *GeminiClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func geminiText(op string, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &EmptyContentError{Op: op, Snippet: "<no candidates>"}
	}
	candidate := resp.Candidates[0]
	var parts []string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
				parts = append(parts, string(text))
			}
		}
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", &EmptyContentError{Op: op, FinishReason: candidate.FinishReason.String(), Snippet: "<empty>"}
	}
	return text, nil
}

func normalizeGeminiError(op string, err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &EmptyContentError{Op: op, Refusal: blocked.Error(), Snippet: "<blocked>"}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		return &StatusError{Provider: "gemini", StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return &StatusError{Provider: "gemini", StatusCode: coded.HTTPCode(), Body: err.Error(), Err: err}
	}
	return err
}
