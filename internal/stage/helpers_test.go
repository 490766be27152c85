package stage

import (
	"errors"
	"strings"
	"testing"

	"podenrich/internal/episode"
	"podenrich/internal/services"
)

func TestRequireText(t *testing.T) {
	if err := RequireText("label", "transcript", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := RequireText("label", "transcript", "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "transcript missing") {
		t.Fatalf("expected field name in error, got %v", err)
	}
}

func TestRequireRecord(t *testing.T) {
	if err := RequireRecord("classify", nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for nil record, got %v", err)
	}
	rec := episode.NewRecord(episode.Descriptor{AudioURL: "https://a/1.mp3"})
	if err := RequireRecord("classify", rec); err == nil {
		t.Fatal("expected error for untitled record")
	}
	rec.Title = "Episode"
	if err := RequireRecord("classify", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHealthConstructors(t *testing.T) {
	ok := Healthy("transcribe")
	if !ok.Ready || ok.Name != "transcribe" {
		t.Fatalf("unexpected healthy record %+v", ok)
	}
	bad := Unhealthy("label", "no api key")
	if bad.Ready || bad.Detail != "no api key" {
		t.Fatalf("unexpected unhealthy record %+v", bad)
	}
}
