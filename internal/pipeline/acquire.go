package pipeline

import (
	"context"
	"log/slog"
	"time"

	"podenrich/internal/audio"
	"podenrich/internal/episode"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/stage"
)

// Downloader fetches an episode's audio into scratch.
type Downloader interface {
	Acquire(ctx context.Context, title, audioURL string) (string, error)
}

// Chunker splits a local audio file into ordered segments.
type Chunker interface {
	Chunk(ctx context.Context, source string, maxDuration time.Duration) ([]audio.Segment, error)
}

// AcquireStage downloads the episode audio and cuts it into segments.
type AcquireStage struct {
	downloader  Downloader
	chunker     Chunker
	scratch     *audio.Scratch
	chunkLength time.Duration
	logger      *slog.Logger
}

// NewAcquireStage builds the stage. The full download is released as soon as
// the segments exist.
func NewAcquireStage(downloader Downloader, chunker Chunker, scratch *audio.Scratch, chunkLength time.Duration, logger *slog.Logger) *AcquireStage {
	if scratch == nil {
		scratch = audio.NewScratch(logger)
	}
	s := &AcquireStage{downloader: downloader, chunker: chunker, scratch: scratch, chunkLength: chunkLength}
	s.SetLogger(logger)
	return s
}

func (s *AcquireStage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "acquire")
}

func (s *AcquireStage) Prepare(_ context.Context, rec *episode.Record) error {
	if err := stage.RequireRecord("acquire", rec); err != nil {
		return err
	}
	return stage.RequireText("acquire", "audio url", rec.AudioURL)
}

func (s *AcquireStage) Execute(ctx context.Context, rec *episode.Record) error {
	if s.downloader == nil || s.chunker == nil {
		return services.Wrap(services.ErrConfiguration, "acquire", "execute", "Audio tools not configured", nil)
	}
	path, err := s.downloader.Acquire(ctx, rec.Title, rec.AudioURL)
	if err != nil {
		return err
	}
	rec.AudioPath = path

	segments, err := s.chunker.Chunk(ctx, path, s.chunkLength)
	if err != nil {
		return err
	}
	rec.Segments = segments

	if err := s.scratch.Release(path); err == nil {
		rec.AudioPath = ""
	}
	s.logger.Info("audio acquired", logging.Int("segments", len(segments)))
	return nil
}

func (s *AcquireStage) HealthCheck(context.Context) stage.Health {
	if s.downloader == nil || s.chunker == nil {
		return stage.Unhealthy("acquire", "audio tools not configured")
	}
	return stage.Healthy("acquire")
}
