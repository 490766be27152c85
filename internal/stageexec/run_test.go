package stageexec

import (
	"context"
	"errors"
	"testing"

	"podenrich/internal/episode"
	"podenrich/internal/ledger"
	"podenrich/internal/services"
)

type fakeLedger struct {
	transitions []ledger.Status
	failStatus  ledger.Status
	failKind    string
	failCtxErr  error
}

func (f *fakeLedger) Transition(_ context.Context, _ string, status ledger.Status) error {
	f.transitions = append(f.transitions, status)
	return nil
}

func (f *fakeLedger) Fail(ctx context.Context, _ string, status ledger.Status, kind, _ string) error {
	f.failStatus = status
	f.failKind = kind
	f.failCtxErr = ctx.Err()
	return nil
}

type fakeHandler struct {
	prepareErr error
	executeErr error
	executed   bool
}

func (h *fakeHandler) Prepare(context.Context, *episode.Record) error { return h.prepareErr }

func (h *fakeHandler) Execute(_ context.Context, rec *episode.Record) error {
	h.executed = true
	if h.executeErr == nil {
		rec.Classification = "Primary Tag: [1.1 Business Intelligence]"
	}
	return h.executeErr
}

func newRecord() *episode.Record {
	return episode.NewRecord(episode.Descriptor{Title: "Episode", AudioURL: "https://a/1.mp3"})
}

func TestRunSuccessTransitions(t *testing.T) {
	store := &fakeLedger{}
	handler := &fakeHandler{}
	rec := newRecord()
	err := Run(context.Background(), Options{
		Ledger:     store,
		Handler:    handler,
		StageName:  "classify",
		Processing: ledger.StatusClassifying,
		Record:     rec,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(store.transitions) != 1 || store.transitions[0] != ledger.StatusClassifying {
		t.Fatalf("unexpected transitions %v", store.transitions)
	}
	if rec.Classification == "" {
		t.Fatal("expected execute to mutate record")
	}
}

func TestRunPrepareFailureSkipsExecute(t *testing.T) {
	store := &fakeLedger{}
	handler := &fakeHandler{prepareErr: services.Wrap(services.ErrValidation, "label", "prepare", "transcript missing", nil)}
	err := Run(context.Background(), Options{Ledger: store, Handler: handler, StageName: "label", Processing: ledger.StatusLabeling, Record: newRecord()})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if handler.executed {
		t.Fatal("execute must not run after prepare failure")
	}
	if store.failStatus != ledger.StatusFailed || store.failKind != services.KindValidation {
		t.Fatalf("unexpected failure record %s/%s", store.failStatus, store.failKind)
	}
}

func TestRunFailureRecordedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &fakeLedger{}
	handler := &fakeHandler{executeErr: context.Canceled}
	cancel()
	err := Run(ctx, Options{Ledger: store, Handler: handler, StageName: "transcribe", Processing: ledger.StatusTranscribing, Record: newRecord()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if store.failStatus != ledger.StatusFailed || store.failKind != services.KindCanceled {
		t.Fatalf("unexpected failure record %s/%s", store.failStatus, store.failKind)
	}
	if store.failCtxErr != nil {
		t.Fatalf("failure should be persisted with a live context, got %v", store.failCtxErr)
	}
}

func TestRunRequiresHandlerAndRecord(t *testing.T) {
	if err := Run(context.Background(), Options{StageName: "x", Record: newRecord()}); err == nil {
		t.Fatal("expected missing handler error")
	}
	if err := Run(context.Background(), Options{StageName: "x", Handler: &fakeHandler{}}); err == nil {
		t.Fatal("expected missing record error")
	}
}
