package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podenrich/internal/audio"
	"podenrich/internal/episode"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/stage"
)

// Transcriber turns one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TranscribeStage transcribes an episode's segments in order.
type TranscribeStage struct {
	transcriber Transcriber
	scratch     *audio.Scratch
	logger      *slog.Logger
}

// NewTranscribeStage builds the stage. Each segment file is released through
// scratch as soon as its text is in hand.
func NewTranscribeStage(transcriber Transcriber, scratch *audio.Scratch, logger *slog.Logger) *TranscribeStage {
	if scratch == nil {
		scratch = audio.NewScratch(logger)
	}
	s := &TranscribeStage{transcriber: transcriber, scratch: scratch}
	s.SetLogger(logger)
	return s
}

// SetLogger swaps the stage logger.
func (s *TranscribeStage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "transcribe")
}

func (s *TranscribeStage) Prepare(_ context.Context, rec *episode.Record) error {
	if err := stage.RequireRecord("transcribe", rec); err != nil {
		return err
	}
	if len(rec.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "prepare", "No audio segments to transcribe", nil)
	}
	return nil
}

func (s *TranscribeStage) Execute(ctx context.Context, rec *episode.Record) error {
	if s.transcriber == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "execute", "Transcriber not configured", nil)
	}
	parts := make([]string, 0, len(rec.Segments))
	for i := range rec.Segments {
		seg := &rec.Segments[i]
		text, err := s.transcriber.Transcribe(ctx, seg.Path)
		if err != nil {
			return fmt.Errorf("segment %d of %d: %w", seg.Index+1, len(rec.Segments), err)
		}
		if err := s.scratch.Release(seg.Path); err == nil {
			seg.Path = ""
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
		s.logger.Debug("segment transcribed",
			logging.Int("segment", seg.Index),
			logging.Int("chars", len(text)),
		)
	}
	rec.RawTranscript = strings.Join(parts, " ")
	s.logger.Info("transcription complete",
		logging.Int("segments", len(rec.Segments)),
		logging.Int("chars", len(rec.RawTranscript)),
	)
	return nil
}

func (s *TranscribeStage) HealthCheck(context.Context) stage.Health {
	if s.transcriber == nil {
		return stage.Unhealthy("transcribe", "transcriber not configured")
	}
	return stage.Healthy("transcribe")
}
