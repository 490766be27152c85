package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"podenrich/internal/audio"
	"podenrich/internal/config"
	"podenrich/internal/enrich"
	"podenrich/internal/feed"
	"podenrich/internal/ledger"
	"podenrich/internal/services"
	"podenrich/internal/services/llm"
	"podenrich/internal/warehouse"
)

// Components carries the collaborators a pipeline is assembled from.
type Components struct {
	Reader      FeedReader
	Downloader  Downloader
	Chunker     Chunker
	Transcriber enrich.Transcriber
	Generator   llm.Generator
	Ledger      Ledger
	Writer      *warehouse.Writer
}

// Assemble wires the standard step sequence from cfg and components.
func Assemble(cfg *config.Config, c Components, logger *slog.Logger) *Pipeline {
	scratch := audio.NewScratch(logger)
	chunkLength := time.Duration(cfg.Audio.ChunkMS) * time.Millisecond
	steps := []Step{
		{Name: "acquire", Processing: ledger.StatusAcquiring,
			Handler: NewAcquireStage(c.Downloader, c.Chunker, scratch, chunkLength, logger)},
		{Name: "transcribe", Processing: ledger.StatusTranscribing,
			Handler: enrich.NewTranscribeStage(c.Transcriber, scratch, logger)},
		{Name: "classify", Processing: ledger.StatusClassifying,
			Handler: enrich.NewClassifyStage(c.Generator, enrich.DefaultTaxonomy, enrich.ClassifyOptions{
				Validate: cfg.Classification.Validate,
				Strict:   cfg.Classification.Strict,
			}, logger)},
		{Name: "label", Processing: ledger.StatusLabeling,
			Handler: enrich.NewLabelStage(c.Generator, cfg.Pipeline.HostName, cfg.Pipeline.WindowChars, logger)},
		{Name: "summarize", Processing: ledger.StatusSummarizing,
			Handler: enrich.NewSummarizeStage(c.Generator, cfg.Pipeline.SummaryMaxTokens, logger)},
	}
	return New(c.Reader, c.Ledger, steps, c.Writer, scratch, logger)
}

// Build opens every external dependency named by cfg and assembles the
// pipeline. The returned close function releases what Build opened.
func Build(ctx context.Context, cfg *config.Config, store *ledger.Store, version string, logger *slog.Logger) (*Pipeline, func() error, error) {
	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i].Close())
		}
		return errors.Join(errs...)
	}

	gen, err := llm.New(ctx, cfg.GetLLM(), llm.WithRetrier(llm.RetrierFromConfig(cfg.GetLLM(), llm.WithRetryLogger(logger))))
	if err != nil {
		return nil, closeAll, services.Wrap(services.ErrConfiguration, "pipeline", "build", "Generator unavailable", err)
	}
	if c, ok := gen.(io.Closer); ok {
		closers = append(closers, c)
	}

	transcriber, err := enrich.NewTranscriber(cfg)
	if err != nil {
		_ = closeAll()
		return nil, func() error { return nil }, services.Wrap(services.ErrConfiguration, "pipeline", "build", "Transcriber unavailable", err)
	}

	sink, err := warehouse.Open(ctx, cfg.Warehouse, version)
	if err != nil {
		_ = closeAll()
		return nil, func() error { return nil }, err
	}
	writer := warehouse.NewWriter(sink, logger)
	closers = append(closers, writer)

	var ledgerStore Ledger
	if store != nil {
		ledgerStore = store
	}
	components := Components{
		Reader: feed.NewReader(time.Duration(cfg.Feed.TimeoutSeconds)*time.Second, cfg.Feed.UserAgent, feed.WithLogger(logger)),
		Downloader: audio.NewAcquirer(cfg.Paths.ScratchDir,
			time.Duration(cfg.Audio.DownloadTimeoutSeconds)*time.Second,
			audio.WithUserAgent(cfg.Feed.UserAgent),
			audio.WithLogger(logger),
		),
		Chunker:     audio.NewChunker(cfg.Audio.FFmpegBinary, cfg.Audio.FFprobeBinary, audio.WithChunkLogger(logger)),
		Transcriber: transcriber,
		Generator:   gen,
		Ledger:      ledgerStore,
		Writer:      writer,
	}
	return Assemble(cfg, components, logger), closeAll, nil
}
