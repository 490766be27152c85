package services_test

import (
	"context"
	"testing"

	"podenrich/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithEpisode(ctx, "https://cdn.example.com/ep1.mp3")
	ctx = services.WithStage(ctx, "transcribe")
	ctx = services.WithRunID(ctx, "run-123")

	if key, ok := services.EpisodeFromContext(ctx); !ok || key != "https://cdn.example.com/ep1.mp3" {
		t.Fatalf("unexpected episode: %v %v", key, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
