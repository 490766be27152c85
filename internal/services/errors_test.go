package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"podenrich/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrAcquisition, "acquire", "download", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"acquire", "download", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrContent, "label", "complete", "empty", nil), services.KindContent},
		{services.Wrap(services.ErrCapability, "transcribe", "whisper", "", errors.New("503")), services.KindCapability},
		{fmt.Errorf("outer: %w", context.Canceled), services.KindCanceled},
		{services.Wrap(services.ErrCapability, "label", "", "", context.Canceled), services.KindCanceled},
		{context.DeadlineExceeded, services.KindTimeout},
		{errors.New("plain"), services.KindTransient},
	}
	for _, tc := range cases {
		if got := services.KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestDecide(t *testing.T) {
	if d := services.Decide(services.Wrap(services.ErrAcquisition, "acquire", "", "", nil)); d != services.DecisionAbortEpisode {
		t.Fatalf("expected acquisition failure to abort only the episode, got %s", d)
	}
	if d := services.Decide(services.Wrap(services.ErrConfiguration, "llm", "", "missing key", nil)); d != services.DecisionAbortRun {
		t.Fatalf("expected configuration failure to abort the run, got %s", d)
	}
	if d := services.Decide(fmt.Errorf("stage: %w", context.Canceled)); d != services.DecisionAbortRun {
		t.Fatalf("expected cancellation to abort the run, got %s", d)
	}
}

