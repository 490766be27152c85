package episode

import (
	"testing"

	"podenrich/internal/audio"
)

func TestRecordReviewNotes(t *testing.T) {
	rec := NewRecord(Descriptor{Title: "Ep", AudioURL: "https://a/ep.mp3"})
	if rec.NeedsReview() {
		t.Fatal("fresh record should not need review")
	}
	rec.FlagReview("  ")
	if rec.NeedsReview() {
		t.Fatal("blank note should be ignored")
	}
	rec.FlagReview("unknown tag \"9.9 Quantum\"")
	rec.FlagReview("missing primary tag")
	if !rec.NeedsReview() {
		t.Fatal("expected review flag")
	}
	if got := rec.ReviewReason(); got != "unknown tag \"9.9 Quantum\"; missing primary tag" {
		t.Fatalf("ReviewReason = %q", got)
	}
	if rec.Key() != "https://a/ep.mp3" {
		t.Fatalf("Key = %q", rec.Key())
	}
}

func TestScratchPathsListsSegmentsThenDownload(t *testing.T) {
	rec := NewRecord(Descriptor{Title: "Ep"})
	if len(rec.ScratchPaths()) != 0 {
		t.Fatal("expected no scratch paths")
	}
	rec.AudioPath = "/tmp/temp_Ep.mp3"
	rec.Segments = []audio.Segment{{Path: "/tmp/temp_Ep.mp3_chunk_0.mp3"}, {Path: ""}, {Path: "/tmp/temp_Ep.mp3_chunk_2.mp3"}}
	paths := rec.ScratchPaths()
	want := []string{"/tmp/temp_Ep.mp3_chunk_0.mp3", "/tmp/temp_Ep.mp3_chunk_2.mp3", "/tmp/temp_Ep.mp3"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}
