package stage

import (
	"context"
	"log/slog"

	"podenrich/internal/episode"
)

// Handler describes the contract the pipeline needs from each enrichment stage.
type Handler interface {
	Prepare(context.Context, *episode.Record) error
	Execute(context.Context, *episode.Record) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by stages that accept a per-episode logger.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
