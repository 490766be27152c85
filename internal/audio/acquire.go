package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/textutil"
)

const defaultDownloadTimeout = 10 * time.Minute

// Acquirer downloads episode audio into the scratch directory.
type Acquirer struct {
	scratchDir string
	userAgent  string
	client     *http.Client
	logger     *slog.Logger
}

// AcquirerOption customizes an Acquirer.
type AcquirerOption func(*Acquirer)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) AcquirerOption {
	return func(a *Acquirer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with downloads.
func WithUserAgent(agent string) AcquirerOption {
	return func(a *Acquirer) {
		a.userAgent = strings.TrimSpace(agent)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) AcquirerOption {
	return func(a *Acquirer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAcquirer builds an Acquirer writing into scratchDir.
func NewAcquirer(scratchDir string, timeout time.Duration, opts ...AcquirerOption) *Acquirer {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	a := &Acquirer{
		scratchDir: scratchDir,
		client:     &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire streams audioURL to a scratch file named after title and returns
// its path. A partially written file is removed before returning an error.
func (a *Acquirer) Acquire(ctx context.Context, title, audioURL string) (string, error) {
	if strings.TrimSpace(audioURL) == "" {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "download", "Audio URL is empty", nil)
	}
	if err := os.MkdirAll(a.scratchDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "acquire", "ensure scratch", "Failed to create scratch directory", err)
	}
	dest := filepath.Join(a.scratchDir, textutil.ScratchName(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "build request", "Invalid audio URL", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", services.Wrap(services.ErrAcquisition, "acquire", "download", "Audio request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "download",
			fmt.Sprintf("Audio server returned %s", resp.Status), nil)
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", services.Wrap(services.ErrAcquisition, "acquire", "create file", "Failed to create scratch file", err)
	}
	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(dest)
		if errors.Is(copyErr, context.Canceled) {
			return "", copyErr
		}
		return "", services.Wrap(services.ErrAcquisition, "acquire", "write file", "Audio download interrupted", copyErr)
	}

	a.logger.Debug("audio downloaded",
		logging.String("path", dest),
		logging.Int64("bytes", written),
	)
	return dest, nil
}
