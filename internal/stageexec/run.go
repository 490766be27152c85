package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"podenrich/internal/episode"
	"podenrich/internal/ledger"
	"podenrich/internal/logging"
	"podenrich/internal/services"
	"podenrich/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *episode.Record) error
	Execute(context.Context, *episode.Record) error
}

// Ledger is the subset of the ledger store the helper writes to.
type Ledger interface {
	Transition(ctx context.Context, audioURL string, status ledger.Status) error
	Fail(ctx context.Context, audioURL string, status ledger.Status, kind, message string) error
}

// Options controls stage execution and ledger persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Ledger     Ledger
	Handler    Handler
	StageName  string
	Processing ledger.Status
	Record     *episode.Record
}

// Run executes one stage against a record, moving the ledger entry into the
// processing status first and recording the failure when the stage errors.
// The stage error is returned unchanged.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Record == nil {
		return fmt.Errorf("episode record is required")
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String(logging.FieldTitle, strings.TrimSpace(opts.Record.Title)),
	)

	if opts.Ledger != nil && opts.Processing != "" {
		if err := opts.Ledger.Transition(stageCtx, opts.Record.Key(), opts.Processing); err != nil {
			return fmt.Errorf("persist processing transition: %w", err)
		}
	}

	started := time.Now()
	if err := opts.Handler.Prepare(stageCtx, opts.Record); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Ledger, opts.Record, err)
	}
	if err := opts.Handler.Execute(stageCtx, opts.Record); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Ledger, opts.Record, err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store Ledger, rec *episode.Record, stageErr error) error {
	status := ledger.StatusFailed
	kind := services.KindOf(stageErr)
	message := strings.TrimSpace(stageErr.Error())

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldErrorKind, kind),
		logging.String("resolved_status", string(status)),
		logging.Error(stageErr),
	)
	if store != nil {
		// The run context may already be cancelled; the failure must still land.
		if err := store.Fail(context.WithoutCancel(ctx), rec.Key(), status, kind, message); err != nil {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	return stageErr
}
