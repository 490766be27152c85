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

// ClassifyOptions controls taxonomy checks on the classifier output.
type ClassifyOptions struct {
	// Validate flags records whose tags fall outside the taxonomy.
	Validate bool
	// Strict fails the episode instead of flagging it.
	Strict bool
}

// ClassifyStage tags an episode title against the taxonomy.
type ClassifyStage struct {
	gen      llm.Generator
	taxonomy *Taxonomy
	opts     ClassifyOptions
	logger   *slog.Logger
}

// NewClassifyStage builds the stage. A nil taxonomy uses DefaultTaxonomy.
func NewClassifyStage(gen llm.Generator, taxonomy *Taxonomy, opts ClassifyOptions, logger *slog.Logger) *ClassifyStage {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy
	}
	s := &ClassifyStage{gen: gen, taxonomy: taxonomy, opts: opts}
	s.SetLogger(logger)
	return s
}

// SetLogger swaps the stage logger.
func (s *ClassifyStage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, "classify")
}

func (s *ClassifyStage) Prepare(_ context.Context, rec *episode.Record) error {
	return stage.RequireRecord("classify", rec)
}

func (s *ClassifyStage) Execute(ctx context.Context, rec *episode.Record) error {
	if s.gen == nil {
		return services.Wrap(services.ErrConfiguration, "classify", "execute", "Generator not configured", nil)
	}
	text, err := s.gen.Generate(ctx, llm.Request{
		System: ClassifySystemPrompt,
		User:   ClassificationPrompt(rec.Title, s.taxonomy),
	})
	if err != nil {
		return err
	}
	rec.Classification = text

	parsed, note := s.taxonomy.Validate(text)
	rec.PrimaryTag = parsed.Primary
	if (!s.opts.Validate && !s.opts.Strict) || note == "" {
		return nil
	}
	if s.opts.Strict {
		return services.Wrap(services.ErrContent, "classify", "taxonomy", note, nil)
	}
	rec.FlagReview(note)
	s.logger.Warn("classification outside taxonomy",
		logging.String(logging.FieldEventType, "classification_review"),
		logging.String("primary_tag", parsed.Primary),
		logging.String("reason", note),
	)
	return nil
}

func (s *ClassifyStage) HealthCheck(context.Context) stage.Health {
	if s.gen == nil {
		return stage.Unhealthy("classify", "generator not configured")
	}
	return stage.Healthy("classify")
}
