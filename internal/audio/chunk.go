package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"podenrich/internal/logging"
	"podenrich/internal/media/ffprobe"
	"podenrich/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

type durationProbe func(ctx context.Context, binary, path string) (time.Duration, error)

// Chunker splits downloaded audio into segments with ffmpeg.
type Chunker struct {
	ffmpegBinary  string
	ffprobeBinary string
	run           commandRunner
	probe         durationProbe
	logger        *slog.Logger
}

// ChunkerOption customizes a Chunker.
type ChunkerOption func(*Chunker)

// WithCommandRunner replaces the process runner (used by tests).
func WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) ChunkerOption {
	return func(c *Chunker) {
		if run != nil {
			c.run = run
		}
	}
}

// WithDurationProbe replaces the ffprobe duration lookup (used by tests).
func WithDurationProbe(probe func(ctx context.Context, binary, path string) (time.Duration, error)) ChunkerOption {
	return func(c *Chunker) {
		if probe != nil {
			c.probe = probe
		}
	}
}

// WithChunkLogger attaches a logger.
func WithChunkLogger(logger *slog.Logger) ChunkerOption {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChunker builds a Chunker using the given binaries.
func NewChunker(ffmpegBinary, ffprobeBinary string, opts ...ChunkerOption) *Chunker {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	c := &Chunker{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		run:           defaultCommandRunner,
		probe:         probeDuration,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SegmentPath returns the file used for segment index of source.
func SegmentPath(source string, index int) string {
	return fmt.Sprintf("%s_chunk_%d.mp3", source, index)
}

// Chunk probes source and writes one mp3 per planned span. On failure the
// segments already written are removed.
func (c *Chunker) Chunk(ctx context.Context, source string, maxDuration time.Duration) ([]Segment, error) {
	total, err := c.probe(ctx, c.ffprobeBinary, source)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrAcquisition, "acquire", "probe duration", "Could not determine audio duration", err)
	}

	spans := PlanSegments(total, maxDuration)
	if len(spans) == 0 {
		return nil, services.Wrap(services.ErrAcquisition, "acquire", "plan segments", "Audio has zero duration", nil)
	}

	segments := make([]Segment, 0, len(spans))
	for _, span := range spans {
		path := SegmentPath(source, span.Index)
		if err := c.run(ctx, c.ffmpegBinary, buildSegmentArgs(source, span, path)...); err != nil {
			_ = os.Remove(path)
			for _, done := range segments {
				_ = os.Remove(done.Path)
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, services.Wrap(services.ErrExternalTool, "acquire", "extract segment",
				fmt.Sprintf("ffmpeg failed on segment %d of %d", span.Index+1, len(spans)), err)
		}
		segments = append(segments, Segment{Span: span, Path: path})
	}

	c.logger.Debug("audio chunked",
		logging.String("source", source),
		logging.Duration("duration", total),
		logging.Int("segments", len(segments)),
	)
	return segments, nil
}

func buildSegmentArgs(source string, span Span, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(span.Start),
		"-t", formatSeconds(span.Duration),
		"-i", source,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "4",
		dest,
	}
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func probeDuration(ctx context.Context, binary, path string) (time.Duration, error) {
	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return 0, err
	}
	return result.Duration()
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
