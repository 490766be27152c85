package warehouse

import (
	"context"
	"errors"
	"log/slog"

	"podenrich/internal/logging"
	"podenrich/internal/services"
)

// WriteState is the per-episode persistence state.
type WriteState string

const (
	StateNew            WriteState = "NEW"
	StateSchemaChecked  WriteState = "SCHEMA_CHECKED"
	StateWriteAttempted WriteState = "WRITE_ATTEMPTED"
	StateWritten        WriteState = "WRITTEN"
	StateWriteFailed    WriteState = "WRITE_FAILED"
)

// Failure kinds reported in Outcome.Kind.
const (
	KindMalformed = "malformed"
	KindTransport = "transport"
)

// Outcome reports how a single write ended.
type Outcome struct {
	State WriteState
	Kind  string
	Err   error
}

// Written reports whether the row reached the table.
func (o Outcome) Written() bool {
	return o.State == StateWritten
}

// Writer runs the persistence contract against a Sink.
type Writer struct {
	sink   Sink
	logger *slog.Logger
}

// NewWriter wraps sink.
func NewWriter(sink Sink, logger *slog.Logger) *Writer {
	return &Writer{sink: sink, logger: logging.NewComponentLogger(logger, "warehouse")}
}

// Sink exposes the underlying sink.
func (w *Writer) Sink() Sink {
	return w.sink
}

// EnsureTable creates the table unless the sink confirms it exists. A failed
// existence check counts as absent; repeat calls are harmless.
func (w *Writer) EnsureTable(ctx context.Context) error {
	exists, err := w.sink.TableExists(ctx)
	if err == nil && exists {
		return nil
	}
	if err != nil {
		w.logger.Debug("table existence check failed; creating", logging.Error(err))
	}
	if err := w.sink.CreateTable(ctx); err != nil {
		return services.Wrap(services.ErrPersistence, "persist", "create table", w.sink.Name(), err)
	}
	w.logger.Info("warehouse table ensured",
		logging.String(logging.FieldEventType, "table_created"),
		logging.String("sink", w.sink.Name()),
	)
	return nil
}

// Write ensures the table, truncates and validates row, then inserts it.
// Failures are logged with the full row and reported through the Outcome;
// they are never returned as errors.
func (w *Writer) Write(ctx context.Context, row Row) Outcome {
	logger := logging.WithContext(ctx, w.logger).With(logging.String(logging.FieldTitle, row.Title))
	state := StateNew
	transition := func(next WriteState) {
		logger.Debug("write state changed",
			logging.String("from", string(state)),
			logging.String("to", string(next)),
		)
		state = next
	}

	if err := w.EnsureTable(ctx); err != nil {
		transition(StateWriteFailed)
		return w.fail(logger, row, KindTransport, err)
	}
	transition(StateSchemaChecked)

	row = row.Truncate()
	if err := row.Validate(); err != nil {
		transition(StateWriteFailed)
		return w.fail(logger, row, KindMalformed, err)
	}

	transition(StateWriteAttempted)
	if err := w.sink.Insert(ctx, row); err != nil {
		transition(StateWriteFailed)
		kind := KindTransport
		if errors.Is(err, ErrMalformed) {
			kind = KindMalformed
		}
		return w.fail(logger, row, kind, err)
	}
	transition(StateWritten)
	logger.Info("episode written",
		logging.String(logging.FieldEventType, "write_complete"),
		logging.String("sink", w.sink.Name()),
	)
	return Outcome{State: StateWritten}
}

func (w *Writer) fail(logger *slog.Logger, row Row, kind string, err error) Outcome {
	msg := "write failed"
	if kind == KindMalformed {
		msg = "write rejected"
	}
	logger.Error(msg,
		logging.String(logging.FieldEventType, "write_"+kind),
		logging.String(logging.FieldErrorKind, kind),
		logging.String("sink", w.sink.Name()),
		logging.Any("row", row.Map()),
		logging.Error(err),
	)
	return Outcome{State: StateWriteFailed, Kind: kind, Err: err}
}

// CountRows reads back the table size.
func (w *Writer) CountRows(ctx context.Context) (int64, error) {
	if exists, err := w.sink.TableExists(ctx); err == nil && !exists {
		return 0, nil
	}
	n, err := w.sink.CountRows(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, "persist", "count rows", w.sink.Name(), err)
	}
	return n, nil
}

// Close releases the sink.
func (w *Writer) Close() error {
	return w.sink.Close()
}
