package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"podenrich/internal/config"
	"podenrich/internal/services/llm"
	"podenrich/internal/warehouse"
)

const (
	llmCheckTimeout  = 30 * time.Second
	sinkCheckTimeout = 15 * time.Second
)

// CheckLLM verifies that the generative API is reachable and the key is
// valid. It makes a single attempt with no retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig, opts ...llm.Option) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, llmCheckTimeout)
	defer cancel()

	opts = append([]llm.Option{llm.WithRetrier(llm.NewRetrier(llm.WithRetryMaxAttempts(1)))}, opts...)
	gen, err := llm.New(checkCtx, cfg, opts...)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if closer, ok := gen.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if err := llm.HealthCheck(checkCtx, gen); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (%s)", cfg.Provider, cfg.Model)}
}

// CheckTranscription verifies the speech-to-text provider is usable without
// spending a request on it.
func CheckTranscription(cfg *config.Config) Result {
	const name = "Transcription"
	switch cfg.Transcription.Provider {
	case config.ProviderWhisperX:
		return Result{Name: name, Passed: true, Detail: "whisperx " + cfg.Transcription.WhisperXModel}
	default:
		if cfg.TranscriptionLLM().APIKey == "" {
			return Result{Name: name, Detail: "API key missing"}
		}
		return Result{Name: name, Passed: true, Detail: "openai " + cfg.Transcription.Model}
	}
}

// CheckSink confirms the warehouse answers a table existence query.
func CheckSink(ctx context.Context, sink warehouse.Sink) Result {
	const name = "Warehouse"
	if sink == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, sinkCheckTimeout)
	defer cancel()

	exists, err := sink.TableExists(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", sink.Name(), err)}
	}
	if !exists {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (table created on first write)", sink.Name())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (table present)", sink.Name())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
