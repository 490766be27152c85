package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"podenrich/internal/services"
)

func noSleepRetrier() *Retrier {
	return NewRetrier(WithSleeper(func(time.Duration) {}))
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{
				"message":       map[string]any{"content": content},
				"finish_reason": "stop",
			},
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestClientGenerateSendsPromptsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "podenrich" {
			t.Fatalf("unexpected title header %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.com" {
			t.Fatalf("unexpected referer header %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "demo-model" || req.MaxTokens != 1000 {
			t.Fatalf("unexpected request %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages %+v", req.Messages)
		}
		if req.Messages[1].Content != "Transcript chunk:\nhello" {
			t.Fatalf("unexpected user content %q", req.Messages[1].Content)
		}
		writeCompletion(t, w, "Summary:\nFine.")
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "demo-model",
		Referer: "https://example.com",
		Title:   "podenrich",
	}, WithRetrier(noSleepRetrier()))
	text, err := client.Generate(context.Background(), Request{
		System:    "You are a transcript labeling assistant.",
		User:      "Transcript chunk:\nhello",
		MaxTokens: 1000,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "Summary:\nFine." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClientGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		writeCompletion(t, w, "ok")
	}))
	defer server.Close()

	var delays []time.Duration
	retrier := NewRetrier(WithSleeper(func(d time.Duration) { delays = append(delays, d) }))
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, WithRetrier(retrier))
	text, err := client.Generate(context.Background(), Request{User: "hi"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "ok" || calls != 2 {
		t.Fatalf("expected ok after 2 calls, got %q after %d", text, calls)
	}
	if len(delays) != 1 || delays[0] != time.Second {
		t.Fatalf("expected Retry-After delay, got %v", delays)
	}
}

func TestClientGenerateEmptyContent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"no"},"finish_reason":"content_filter"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, WithRetrier(noSleepRetrier()))
	_, err := client.Generate(context.Background(), Request{User: "hi"})
	if !errors.Is(err, services.ErrContent) {
		t.Fatalf("expected content error, got %v", err)
	}
	var empty *EmptyContentError
	if !errors.As(err, &empty) || empty.FinishReason != "content_filter" || empty.Refusal != "no" {
		t.Fatalf("unexpected empty content detail: %v", err)
	}
	if calls != 1 {
		t.Fatalf("empty content must not be retried, got %d calls", calls)
	}
}

func TestClientGenerateDeltaFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"streamed"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, WithRetrier(noSleepRetrier()))
	text, err := client.Generate(context.Background(), Request{User: "hi"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if text != "streamed" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClientGenerateUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"}, WithRetrier(noSleepRetrier()))
	_, err := client.Generate(context.Background(), Request{User: "hi"})
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientGenerateRequiresPrompt(t *testing.T) {
	client := NewClient(Config{APIKey: "test", Model: "demo"})
	if _, err := client.Generate(context.Background(), Request{System: "sys"}); err == nil {
		t.Fatal("expected missing user prompt to fail")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, "OK")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, WithRetrier(NewRetrier(WithRetryMaxAttempts(1))))
	if err := HealthCheck(context.Background(), client); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestSummarizePayloadSnippet(t *testing.T) {
	if got := summarizePayloadSnippet("  "); got != "<empty>" {
		t.Fatalf("unexpected snippet %q", got)
	}
	long := strings.Repeat("a\n", 200)
	got := summarizePayloadSnippet(long)
	if !strings.HasSuffix(got, "...") || strings.Contains(got, "\n") {
		t.Fatalf("unexpected snippet %q", got)
	}
}
