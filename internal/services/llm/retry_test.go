package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"podenrich/internal/config"
	"podenrich/internal/services"
)

func recordingSleeper(delays *[]time.Duration) RetryOption {
	return WithSleeper(func(d time.Duration) {
		*delays = append(*delays, d)
	})
}

func TestRetrierHonoursRetryAfter(t *testing.T) {
	var delays []time.Duration
	r := NewRetrier(recordingSleeper(&delays))
	calls := 0
	text, err := r.Do(context.Background(), "test", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if text != "ok" || calls != 2 {
		t.Fatalf("expected ok after 2 calls, got %q after %d", text, calls)
	}
	if len(delays) != 1 || delays[0] != 3*time.Second {
		t.Fatalf("expected a single 3s delay, got %v", delays)
	}
}

func TestRetrierRetryAfterIsCapped(t *testing.T) {
	var delays []time.Duration
	r := NewRetrier(recordingSleeper(&delays), WithRetryBackoff(time.Second, 2*time.Second))
	calls := 0
	_, err := r.Do(context.Background(), "test", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &StatusError{StatusCode: http.StatusServiceUnavailable, RetryAfter: time.Minute}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Fatalf("expected capped delay of 2s, got %v", delays)
	}
}

func TestRetrierBackoffDoubles(t *testing.T) {
	var delays []time.Duration
	r := NewRetrier(recordingSleeper(&delays), WithRetryMaxAttempts(5))
	_, err := r.Do(context.Background(), "test", func(context.Context) (string, error) {
		return "", &StatusError{StatusCode: http.StatusBadGateway}
	})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %s, want %s", i, delays[i], want[i])
		}
	}
}

func TestRetrierExhaustionIsCapability(t *testing.T) {
	r := NewRetrier(WithSleeper(func(time.Duration) {}), WithRetryMaxAttempts(3))
	calls := 0
	_, err := r.Do(context.Background(), "classify", func(context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: http.StatusInternalServerError, Body: "boom"}
	})
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected wrapped status error, got %v", err)
	}
}

func TestRetrierEmptyContentNotRetried(t *testing.T) {
	r := NewRetrier(WithSleeper(func(time.Duration) { t.Fatal("unexpected sleep") }))
	calls := 0
	_, err := r.Do(context.Background(), "label", func(context.Context) (string, error) {
		calls++
		return "   ", nil
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, services.ErrContent) {
		t.Fatalf("expected content error, got %v", err)
	}
	if services.KindOf(err) != services.KindContent {
		t.Fatalf("unexpected kind %q", services.KindOf(err))
	}
}

func TestRetrierClientErrorNotRetried(t *testing.T) {
	r := NewRetrier(WithSleeper(func(time.Duration) { t.Fatal("unexpected sleep") }))
	calls := 0
	_, err := r.Do(context.Background(), "label", func(context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: http.StatusUnauthorized}
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, services.ErrCapability) {
		t.Fatalf("expected capability error, got %v", err)
	}
}

func TestRetrierCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(WithSleeper(func(time.Duration) { cancel() }))
	calls := 0
	_, err := r.Do(ctx, "summarize", func(context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: http.StatusTooManyRequests}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrCapability) {
		t.Fatalf("cancellation must not be tagged as capability: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetrierRequestTimeoutRetried(t *testing.T) {
	r := NewRetrier(WithSleeper(func(time.Duration) {}))
	calls := 0
	text, err := r.Do(context.Background(), "test", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", context.DeadlineExceeded
		}
		return "done", nil
	})
	if err != nil || text != "done" {
		t.Fatalf("expected success, got %q %v", text, err)
	}
}

func TestRetrierFromConfig(t *testing.T) {
	r := RetrierFromConfig(config.LLMConfig{RetryAttempts: 2, RetryBaseMS: 10, RetryMaxMS: 20})
	if r.maxAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", r.maxAttempts)
	}
	if r.baseDelay != 10*time.Millisecond || r.maxDelay != 20*time.Millisecond {
		t.Fatalf("unexpected backoff %s/%s", r.baseDelay, r.maxDelay)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("expected 7s, got %s %v", d, ok)
	}
	if _, ok := parseRetryAfter("soon"); ok {
		t.Fatal("expected unparseable value to be rejected")
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected empty value to be rejected")
	}
}
