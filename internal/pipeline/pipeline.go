package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"podenrich/internal/audio"
	"podenrich/internal/episode"
	"podenrich/internal/feed"
	"podenrich/internal/ledger"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/stage"
	"podenrich/internal/stageexec"
	"podenrich/internal/warehouse"
)

// FeedReader lists the audio-bearing entries of a feed.
type FeedReader interface {
	Fetch(ctx context.Context, feedURL string) ([]episode.Descriptor, error)
}

// Ledger is the subset of the ledger store the pipeline uses.
type Ledger interface {
	stageexec.Ledger
	Begin(ctx context.Context, audioURL, title, runID string) (*ledger.Entry, error)
	Get(ctx context.Context, audioURL string) (*ledger.Entry, error)
	RecordProgress(ctx context.Context, audioURL string, segments, windows int) error
	MarkWritten(ctx context.Context, audioURL, primaryTag string) error
	MarkReview(ctx context.Context, audioURL, primaryTag, reason string) error
	ResetInFlight(ctx context.Context) (int64, error)
}

// Step binds a stage handler to the ledger status it runs under.
type Step struct {
	Name       string
	Processing ledger.Status
	Handler    stage.Handler
}

// Options controls a single run.
type Options struct {
	FeedURL     string
	MaxEpisodes int
	Force       bool
	DryRun      bool
}

// Pipeline runs episodes through the enrichment steps and the writer.
type Pipeline struct {
	reader  FeedReader
	ledger  Ledger
	steps   []Step
	writer  *warehouse.Writer
	scratch *audio.Scratch
	logger  *slog.Logger
}

// New assembles a pipeline. ledger and writer may be nil, in which case
// progress is not recorded or rows are not written.
func New(reader FeedReader, store Ledger, steps []Step, writer *warehouse.Writer, scratch *audio.Scratch, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if scratch == nil {
		scratch = audio.NewScratch(logger)
	}
	return &Pipeline{
		reader:  reader,
		ledger:  store,
		steps:   steps,
		writer:  writer,
		scratch: scratch,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Steps exposes the configured enrichment steps.
func (p *Pipeline) Steps() []Step {
	return p.steps
}

// Writer exposes the warehouse writer, which may be nil.
func (p *Pipeline) Writer() *warehouse.Writer {
	return p.writer
}

// HealthCheck collects readiness from every step.
func (p *Pipeline) HealthCheck(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(p.steps))
	for _, step := range p.steps {
		if step.Handler == nil {
			out = append(out, stage.Unhealthy(step.Name, "handler not configured"))
			continue
		}
		out = append(out, step.Handler.HealthCheck(ctx))
	}
	return out
}

// Run processes the feed once. The returned error is non-nil only when the
// run could not start or was stopped; per-episode failures are reported in
// the Report.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	logger := logging.WithContext(ctx, p.logger)
	report := &Report{RunID: runID, DryRun: opts.DryRun, RowCount: -1}

	if p.reader == nil {
		return report, services.Wrap(services.ErrConfiguration, "feed", "run", "Feed reader not configured", nil)
	}
	store := p.ledger
	if opts.DryRun {
		store = nil
	}
	if store != nil {
		reset, err := store.ResetInFlight(ctx)
		if err != nil {
			return report, fmt.Errorf("reset in-flight episodes: %w", err)
		}
		if reset > 0 {
			logger.Info("reset interrupted episodes", logging.Int64("count", reset))
		}
	}

	descriptors, err := p.reader.Fetch(ctx, opts.FeedURL)
	if err != nil {
		return report, err
	}
	selected := feed.Select(descriptors, opts.MaxEpisodes)
	report.Selected = len(selected)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("episodes", len(selected)),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("force", opts.Force),
	)

	var runErr error
	for _, desc := range selected {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if !opts.Force && p.alreadyWritten(ctx, desc) {
			report.add(Result{Title: desc.Title, AudioURL: desc.AudioURL, Status: StatusSkipped})
			logger.Info("episode already written; skipping",
				logging.String(logging.FieldTitle, desc.Title),
			)
			continue
		}
		res, err := p.processEpisode(ctx, store, runID, desc, opts.DryRun)
		report.add(res)
		if err != nil && services.Decide(err) == services.DecisionAbortRun {
			runErr = err
			break
		}
	}
	if runErr != nil {
		report.Aborted = true
		logger.Warn("run stopped early",
			logging.String(logging.FieldErrorKind, services.KindOf(runErr)),
			logging.Error(runErr),
		)
	}

	if p.writer != nil && !opts.DryRun {
		countCtx := context.WithoutCancel(ctx)
		if n, err := p.writer.CountRows(countCtx); err != nil {
			logger.Warn("row count unavailable", logging.Error(err))
		} else {
			report.RowCount = n
		}
	}
	logger.Info(fmt.Sprintf("Processed %d episodes", report.Processed),
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("written", report.Written),
		logging.Int("review", report.Review),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Int64("row_count", report.RowCount),
	)
	return report, runErr
}

func (p *Pipeline) alreadyWritten(ctx context.Context, desc episode.Descriptor) bool {
	if p.ledger == nil {
		return false
	}
	entry, err := p.ledger.Get(ctx, desc.Key())
	if err != nil {
		p.logger.Warn("ledger lookup failed", logging.String(logging.FieldTitle, desc.Title), logging.Error(err))
		return false
	}
	return entry.Persisted()
}

// processEpisode runs every step for one descriptor. The returned error is
// the stage error that ended the episode, if any.
func (p *Pipeline) processEpisode(ctx context.Context, store Ledger, runID string, desc episode.Descriptor, dryRun bool) (Result, error) {
	ctx = services.WithEpisode(ctx, desc.Key())
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldTitle, desc.Title))
	rec := episode.NewRecord(desc)
	res := Result{Title: desc.Title, AudioURL: desc.AudioURL}
	started := time.Now()
	defer func() {
		_ = p.scratch.Release(rec.ScratchPaths()...)
	}()

	if store != nil {
		if _, err := store.Begin(ctx, desc.Key(), desc.Title, runID); err != nil {
			res.Status = ledger.StatusFailed
			res.ErrorKind = services.KindPersistence
			res.Message = err.Error()
			logger.Error("ledger begin failed", logging.Error(err))
			return res, services.Wrap(services.ErrPersistence, "ledger", "begin", "Could not record episode", err)
		}
	}

	var stageLedger stageexec.Ledger
	if store != nil {
		stageLedger = store
	}
	for _, step := range p.steps {
		err := stageexec.Run(ctx, stageexec.Options{
			Logger:     p.logger,
			Ledger:     stageLedger,
			Handler:    step.Handler,
			StageName:  step.Name,
			Processing: step.Processing,
			Record:     rec,
		})
		if err != nil {
			res.Status = ledger.StatusFailed
			res.Stage = step.Name
			res.ErrorKind = services.KindOf(err)
			res.Message = strings.TrimSpace(err.Error())
			res.Segments = len(rec.Segments)
			res.Windows = rec.Windows
			res.Elapsed = time.Since(started)
			return res, err
		}
	}
	res.PrimaryTag = rec.PrimaryTag
	res.Segments = len(rec.Segments)
	res.Windows = rec.Windows

	if store != nil {
		if err := store.RecordProgress(ctx, desc.Key(), res.Segments, res.Windows); err != nil {
			logger.Warn("ledger progress not recorded", logging.Error(err))
		}
	}

	if dryRun || p.writer == nil {
		res.Status = StatusEnriched
		res.Elapsed = time.Since(started)
		logger.Info("episode enriched (not written)", logging.String(logging.FieldEventType, "dry_run"))
		return res, nil
	}

	res.Status = p.persist(ctx, store, rec, &res)
	res.Elapsed = time.Since(started)
	return res, nil
}

// persist writes the row and records the outcome. Write failures end the
// episode but never the run.
func (p *Pipeline) persist(ctx context.Context, store Ledger, rec *episode.Record, res *Result) ledger.Status {
	ctx = services.WithStage(ctx, "persist")
	logger := logging.WithContext(ctx, p.logger)
	if store != nil {
		if err := store.Transition(ctx, rec.Key(), ledger.StatusPersisting); err != nil {
			logger.Warn("ledger transition failed", logging.Error(err))
		}
	}

	outcome := p.writer.Write(ctx, warehouse.RowFromRecord(rec))
	// the row may have landed even if the run is being cancelled
	bookkeeping := context.WithoutCancel(ctx)
	if !outcome.Written() {
		res.Stage = "persist"
		res.ErrorKind = services.KindPersistence + ":" + outcome.Kind
		if outcome.Err != nil {
			res.Message = outcome.Err.Error()
		}
		if store != nil {
			if err := store.Fail(bookkeeping, rec.Key(), ledger.StatusFailed, res.ErrorKind, res.Message); err != nil {
				logger.Error("failed to persist write failure", logging.Error(err))
			}
		}
		return ledger.StatusFailed
	}

	status := ledger.StatusWritten
	var err error
	if rec.NeedsReview() {
		status = ledger.StatusReview
		res.Message = rec.ReviewReason()
		if store != nil {
			err = store.MarkReview(bookkeeping, rec.Key(), rec.PrimaryTag, rec.ReviewReason())
		}
	} else if store != nil {
		err = store.MarkWritten(bookkeeping, rec.Key(), rec.PrimaryTag)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ledger not updated after write", logging.Error(err))
	}
	return status
}
