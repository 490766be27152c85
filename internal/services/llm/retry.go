package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podenrich/internal/config"
	"podenrich/internal/logging"
	"podenrich/internal/services"
)

const (
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 5
)

// Retrier runs provider calls with bounded exponential backoff.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	sleeper     func(time.Duration)
	logger      *slog.Logger
}

// RetryOption customizes a Retrier.
type RetryOption func(*Retrier)

// WithRetryMaxAttempts overrides the default attempt count (defaults to 5).
func WithRetryMaxAttempts(attempts int) RetryOption {
	return func(r *Retrier) {
		r.maxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) RetryOption {
	return func(r *Retrier) {
		r.baseDelay = baseDelay
		r.maxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) RetryOption {
	return func(r *Retrier) {
		r.sleeper = sleeper
	}
}

// WithRetryLogger reports scheduled retries.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetrier builds a Retrier with the default policy.
func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		maxAttempts: defaultRetryAttempts,
		baseDelay:   defaultRetryBaseDelay,
		maxDelay:    defaultRetryMaxDelay,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetrierFromConfig applies the [llm] retry settings.
func RetrierFromConfig(cfg config.LLMConfig, opts ...RetryOption) *Retrier {
	base := []RetryOption{}
	if cfg.RetryAttempts > 0 {
		base = append(base, WithRetryMaxAttempts(cfg.RetryAttempts))
	}
	if cfg.RetryBaseMS > 0 && cfg.RetryMaxMS > 0 {
		base = append(base, WithRetryBackoff(
			time.Duration(cfg.RetryBaseMS)*time.Millisecond,
			time.Duration(cfg.RetryMaxMS)*time.Millisecond,
		))
	}
	return NewRetrier(append(base, opts...)...)
}

// Do runs call until it succeeds, fails permanently, or attempts run out.
// Returned errors are tagged with services.ErrContent, services.ErrTimeout or
// services.ErrCapability; cancellation is returned unwrapped.
func (r *Retrier) Do(ctx context.Context, op string, call func(context.Context) (string, error)) (string, error) {
	var text string
	err := r.Run(ctx, op, func(ctx context.Context) error {
		out, err := call(ctx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) == "" {
			return &EmptyContentError{Op: op, Snippet: "<empty>"}
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Run is Do for calls whose result may legitimately be empty, such as
// transcription of a silent segment.
func (r *Retrier) Run(ctx context.Context, op string, call func(context.Context) error) error {
	attempts := r.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		delay, retry := r.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempt >= attempts && ctx.Err() == nil && isRetryable(err) {
				break
			}
			return r.classify(ctx, op, err)
		}
		r.logger.Warn("llm call retry scheduled",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return services.Wrap(services.ErrCapability, "llm", op,
		fmt.Sprintf("Failed after %d attempts", attempts), lastErr)
}

func (r *Retrier) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var empty *EmptyContentError
	if errors.As(err, &empty) {
		return services.Wrap(services.ErrContent, "llm", op, "Provider returned no text", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "llm", op, "Provider call timed out", err)
	}
	return services.Wrap(services.ErrCapability, "llm", op, "Provider call failed", err)
}

func (r *Retrier) attempts() int {
	if r == nil || r.maxAttempts <= 0 {
		return 1
	}
	return r.maxAttempts
}

// isRetryable reports whether err is worth another attempt. Callers check the
// parent context first; a deadline seen here comes from a per-request timeout.
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func (r *Retrier) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) {
		return 0, false
	}
	var empty *EmptyContentError
	if errors.As(err, &empty) {
		return 0, false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if !retryableStatus(statusErr.StatusCode) {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			return r.capDelay(statusErr.RetryAfter), true
		}
		return r.backoffDelay(attempt), true
	}

	if isRetryable(err) {
		return r.backoffDelay(attempt), true
	}
	return 0, false
}

func (r *Retrier) backoffDelay(attempt int) time.Duration {
	base := defaultRetryBaseDelay
	maxDelay := defaultRetryMaxDelay
	if r != nil {
		if r.baseDelay >= 0 {
			base = r.baseDelay
		}
		if r.maxDelay > 0 {
			maxDelay = r.maxDelay
		}
	}
	if base <= 0 {
		return 0
	}
	if attempt <= 0 {
		attempt = 1
	}

	// attempt 1 -> base, attempt 2 -> base*2, attempt 3 -> base*4, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	return r.capDelay(delay)
}

func (r *Retrier) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := defaultRetryMaxDelay
	if r != nil && r.maxDelay > 0 {
		maxDelay = r.maxDelay
	}
	if maxDelay > 0 && delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (r *Retrier) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if r != nil && r.sleeper != nil {
		r.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
