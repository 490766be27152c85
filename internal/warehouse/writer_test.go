package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"podenrich/internal/logging"
)

type fakeSink struct {
	exists    bool
	existsErr error
	createErr error
	insertErr error
	creates   int
	rows      []Row
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) TableExists(context.Context) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeSink) CreateTable(context.Context) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.exists = true
	return nil
}

func (f *fakeSink) Insert(_ context.Context, row Row) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeSink) CountRows(context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeSink) Close() error { return nil }

func TestWriterEnsureTableCreatesOnce(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink, logging.NewNop())
	for i := 0; i < 3; i++ {
		if err := w.EnsureTable(context.Background()); err != nil {
			t.Fatalf("ensure table: %v", err)
		}
	}
	if sink.creates != 1 {
		t.Fatalf("expected one create, got %d", sink.creates)
	}
}

func TestWriterEnsureTableCreatesWhenCheckFails(t *testing.T) {
	sink := &fakeSink{existsErr: errors.New("no permission")}
	w := NewWriter(sink, logging.NewNop())
	if err := w.EnsureTable(context.Background()); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	if sink.creates != 1 {
		t.Fatalf("expected create after failed check, got %d", sink.creates)
	}
}

func TestWriterWriteSuccess(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink, logging.NewNop())
	out := w.Write(context.Background(), Row{Title: "Episode", Description: strings.Repeat("x", 2000)})
	if !out.Written() || out.Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("expected one row, got %d", len(sink.rows))
	}
	if got := len(sink.rows[0].Description); got != DescriptionLimit {
		t.Fatalf("description not truncated: %d", got)
	}
	n, err := w.CountRows(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}

func TestWriterWriteRejectsMissingTitle(t *testing.T) {
	sink := &fakeSink{}
	w := NewWriter(sink, logging.NewNop())
	out := w.Write(context.Background(), Row{Description: "d"})
	if out.State != StateWriteFailed || out.Kind != KindMalformed {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(sink.rows) != 0 {
		t.Fatal("row should not reach the sink")
	}
}

func TestWriterWriteClassifiesSinkErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"malformed", Malformed(errors.New("constraint")), KindMalformed},
		{"transport", errors.New("connection reset"), KindTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := &fakeSink{exists: true, insertErr: tc.err}
			out := NewWriter(sink, logging.NewNop()).Write(context.Background(), Row{Title: "t"})
			if out.State != StateWriteFailed || out.Kind != tc.kind {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if !errors.Is(out.Err, tc.err) {
				t.Fatalf("outcome should carry the sink error: %v", out.Err)
			}
		})
	}
}

func TestWriterWriteTransportWhenCreateFails(t *testing.T) {
	sink := &fakeSink{createErr: errors.New("denied")}
	out := NewWriter(sink, logging.NewNop()).Write(context.Background(), Row{Title: "t"})
	if out.Kind != KindTransport {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}
