package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"podenrich/internal/config"
	"podenrich/internal/services"
	"podenrich/internal/services/llm"
)

const defaultTimeout = 300 * time.Second

// Client transcribes audio files through the OpenAI transcription endpoint.
type Client struct {
	client   *openai.Client
	model    string
	language string
	retrier  *llm.Retrier
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	retrier    *llm.Retrier
	language   string
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithRetrier overrides the retry policy.
func WithRetrier(retrier *llm.Retrier) Option {
	return func(o *options) {
		if retrier != nil {
			o.retrier = retrier
		}
	}
}

// WithLanguage pins the spoken language as an ISO 639-1 code.
func WithLanguage(code string) Option {
	return func(o *options) {
		o.language = strings.ToLower(strings.TrimSpace(code))
	}
}

// New builds a transcription client from the resolved [transcription] settings.
func New(cfg config.LLMConfig, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	o := options{
		httpClient: &http.Client{Timeout: timeout},
		retrier:    llm.RetrierFromConfig(cfg),
	}
	for _, opt := range opts {
		opt(&o)
	}
	clientCfg := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	clientCfg.HTTPClient = o.httpClient
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	return &Client{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: o.language,
		retrier:  o.retrier,
	}
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Transcribe returns the text of one audio file.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	const op = "whisper transcribe"
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrValidation, "transcribe", op, "Audio path required", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrAcquisition, "transcribe", op, fmt.Sprintf("Segment %s missing", path), err)
		}
		return "", services.Wrap(services.ErrAcquisition, "transcribe", op, "Stat segment", err)
	}

	var text string
	err := c.retrier.Run(ctx, op, func(ctx context.Context) error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.model,
			FilePath: path,
			Language: c.language,
		})
		if err != nil {
			return llm.NormalizeOpenAIError(err)
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
