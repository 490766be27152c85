package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"podenrich/internal/audio"
)

// mp3Frame is an ID3 header followed by one silent MPEG-1 Layer III frame
// header, enough for tools that sniff the file type.
var mp3Frame = []byte("ID3\x03\x00\x00\x00\x00\x00\x00\xff\xfb\x90\x00")

// WriteSegments writes n placeholder mp3 segments named the way the chunker
// names them for source, each spanning one minute.
func WriteSegments(t testing.TB, source string, n int) []audio.Segment {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", source, err)
	}
	segments := make([]audio.Segment, 0, n)
	for i := 0; i < n; i++ {
		path := audio.SegmentPath(source, i)
		if err := os.WriteFile(path, mp3Frame, 0o644); err != nil {
			t.Fatalf("write segment %s: %v", path, err)
		}
		segments = append(segments, audio.Segment{
			Span: audio.Span{Index: i, Start: time.Duration(i) * time.Minute, Duration: time.Minute},
			Path: path,
		})
	}
	return segments
}
