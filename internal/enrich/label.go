package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"podenrich/internal/episode"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/services/llm"
	"podenrich/internal/stage"
)

// LabelStage attributes transcript text to the host and the guest.
type LabelStage struct {
	gen         llm.Generator
	host        string
	windowChars int
	logger      *slog.Logger
}

// NewLabelStage builds the stage.
func NewLabelStage(gen llm.Generator, host string, windowChars int, logger *slog.Logger) *LabelStage {
	if strings.TrimSpace(host) == "" {
		host = "Host"
	}
	if windowChars <= 0 {
		windowChars = DefaultWindowChars
	}
	s := &LabelStage{gen: gen, host: strings.TrimSpace(host), windowChars: windowChars}
	s.SetLogger(logger)
	return s
}

// SetLogger swaps the stage logger.
func (s *LabelStage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "label")
}

func (s *LabelStage) Prepare(_ context.Context, rec *episode.Record) error {
	if err := stage.RequireRecord("label", rec); err != nil {
		return err
	}
	if strings.TrimSpace(rec.RawTranscript) == "" {
		return services.Wrap(services.ErrContent, "label", "prepare", "Transcription produced no text", nil)
	}
	return nil
}

// Execute sends one request per window and joins the answers with newlines.
// Windows are labeled independently.
func (s *LabelStage) Execute(ctx context.Context, rec *episode.Record) error {
	if s.gen == nil {
		return services.Wrap(services.ErrConfiguration, "label", "execute", "Generator not configured", nil)
	}
	rec.Guest = GuestName(rec.Title)
	windows := SplitWindows(rec.RawTranscript, s.windowChars)
	rec.Windows = len(windows)

	labeled := make([]string, 0, len(windows))
	for i, window := range windows {
		text, err := s.gen.Generate(ctx, llm.Request{
			System: LabelSystemPrompt,
			User:   LabelPrompt(s.host, rec.Guest, i, len(windows), window),
		})
		if err != nil {
			return fmt.Errorf("window %d of %d: %w", i+1, len(windows), err)
		}
		labeled = append(labeled, text)
	}
	rec.Transcript = strings.Join(labeled, "\n")
	s.logger.Info("speaker labeling complete",
		logging.String("guest", rec.Guest),
		logging.Int("windows", len(windows)),
	)
	return nil
}

func (s *LabelStage) HealthCheck(context.Context) stage.Health {
	if s.gen == nil {
		return stage.Unhealthy("label", "generator not configured")
	}
	return stage.Healthy("label")
}
