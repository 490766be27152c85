package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podenrich/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func TestChunkerWritesSegmentsInOrder(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "temp_Ep.mp3")
	var calls []recordedCall
	chunker := NewChunker("ffmpeg-test", "ffprobe-test",
		WithDurationProbe(func(_ context.Context, binary, path string) (time.Duration, error) {
			if binary != "ffprobe-test" || path != source {
				t.Fatalf("unexpected probe %s %s", binary, path)
			}
			return 150 * time.Second, nil
		}),
		WithCommandRunner(func(_ context.Context, name string, args ...string) error {
			calls = append(calls, recordedCall{name: name, args: append([]string(nil), args...)})
			return os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
		}),
	)

	segments, err := chunker.Chunk(context.Background(), source, time.Minute)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(segments) != 3 || len(calls) != 3 {
		t.Fatalf("got %d segments / %d calls, want 3", len(segments), len(calls))
	}
	for i, seg := range segments {
		if want := source + "_chunk_" + string(rune('0'+i)) + ".mp3"; seg.Path != want {
			t.Fatalf("segment %d path %q, want %q", i, seg.Path, want)
		}
		if calls[i].name != "ffmpeg-test" {
			t.Fatalf("call %d used %q", i, calls[i].name)
		}
	}
	joined := strings.Join(calls[2].args, " ")
	if !strings.Contains(joined, "-ss 120.000 -t 30.000 -i "+source) {
		t.Fatalf("unexpected args for last segment: %s", joined)
	}
}

func TestChunkerCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "temp_Ep.mp3")
	call := 0
	chunker := NewChunker("", "",
		WithDurationProbe(func(context.Context, string, string) (time.Duration, error) { return 3 * time.Minute, nil }),
		WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
			call++
			if call == 3 {
				return errors.New("exit status 1")
			}
			return os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
		}),
	)

	_, err := chunker.Chunk(context.Background(), source, time.Minute)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*_chunk_*"))
	if len(matches) != 0 {
		t.Fatalf("segments left behind: %v", matches)
	}
}

func TestChunkerProbeFailureIsAcquisitionError(t *testing.T) {
	chunker := NewChunker("", "",
		WithDurationProbe(func(context.Context, string, string) (time.Duration, error) {
			return 0, errors.New("invalid data found when processing input")
		}),
	)
	_, err := chunker.Chunk(context.Background(), "/tmp/nothing.mp3", time.Minute)
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
}
