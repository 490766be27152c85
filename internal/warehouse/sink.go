package warehouse

import (
	"context"
	"errors"
	"fmt"
)

// Sink is a table that accepts single-row inserts.
type Sink interface {
	Name() string
	TableExists(ctx context.Context) (bool, error)
	// CreateTable must succeed when the table already exists.
	CreateTable(ctx context.Context) error
	// Insert writes all columns of one row or none of them.
	Insert(ctx context.Context, row Row) error
	CountRows(ctx context.Context) (int64, error)
	Close() error
}

// ErrMalformed marks rows the sink refused because of their content rather
// than a transport problem.
var ErrMalformed = errors.New("malformed row")

// Malformed tags err as a content rejection.
func Malformed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformed, err)
}
