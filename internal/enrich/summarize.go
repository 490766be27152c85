package enrich

import (
	"context"
	"log/slog"

	"podenrich/internal/episode"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/services/llm"
	"podenrich/internal/stage"
)

// DefaultSummaryMaxTokens caps the summary completion.
const DefaultSummaryMaxTokens = 1000

// SummarizeStage produces the summary, insights and quotes column.
type SummarizeStage struct {
	gen       llm.Generator
	maxTokens int
	logger    *slog.Logger
}

// NewSummarizeStage builds the stage.
func NewSummarizeStage(gen llm.Generator, maxTokens int, logger *slog.Logger) *SummarizeStage {
	if maxTokens <= 0 {
		maxTokens = DefaultSummaryMaxTokens
	}
	s := &SummarizeStage{gen: gen, maxTokens: maxTokens}
	s.SetLogger(logger)
	return s
}

// SetLogger swaps the stage logger.
func (s *SummarizeStage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "summarize")
}

func (s *SummarizeStage) Prepare(_ context.Context, rec *episode.Record) error {
	if err := stage.RequireRecord("summarize", rec); err != nil {
		return err
	}
	return stage.RequireText("summarize", "labeled transcript", rec.Transcript)
}

func (s *SummarizeStage) Execute(ctx context.Context, rec *episode.Record) error {
	if s.gen == nil {
		return services.Wrap(services.ErrConfiguration, "summarize", "execute", "Generator not configured", nil)
	}
	guest := rec.Guest
	if guest == "" {
		guest = GuestName(rec.Title)
	}
	text, err := s.gen.Generate(ctx, llm.Request{
		System:    SummarizeSystemPrompt,
		User:      SummaryPrompt(rec.Transcript, guest),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return err
	}
	rec.SummaryAndInsights = text
	s.logger.Info("summary complete", logging.Int("chars", len(text)))
	return nil
}

func (s *SummarizeStage) HealthCheck(context.Context) stage.Health {
	if s.gen == nil {
		return stage.Unhealthy("summarize", "generator not configured")
	}
	return stage.Healthy("summarize")
}
