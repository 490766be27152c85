// Package episode defines the feed-derived episode descriptor and the record
// that accumulates enrichment results as it moves through the pipeline.
package episode

import (
	"strings"

	"podenrich/internal/audio"
)

// Descriptor is the immutable view of one feed entry that carries audio.
// Optional fields missing from the feed are empty strings.
type Descriptor struct {
	Title       string
	Link        string
	Description string
	Published   string
	AudioURL    string
}

// Key returns the identity used by the ledger.
func (d Descriptor) Key() string {
	return d.AudioURL
}

// Record accumulates enrichment output for a single descriptor. Stages fill
// fields in order; the record is discarded after persistence.
type Record struct {
	Descriptor

	AudioPath string
	Segments  []audio.Segment

	RawTranscript      string
	Guest              string
	Transcript         string
	Classification     string
	PrimaryTag         string
	SummaryAndInsights string

	Windows     int
	ReviewNotes []string
}

// NewRecord starts a record for d.
func NewRecord(d Descriptor) *Record {
	return &Record{Descriptor: d}
}

// FlagReview attaches a review note to the record.
func (r *Record) FlagReview(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	r.ReviewNotes = append(r.ReviewNotes, note)
}

// NeedsReview reports whether any stage flagged the record.
func (r *Record) NeedsReview() bool {
	return len(r.ReviewNotes) > 0
}

// ReviewReason joins review notes for logs and the ledger.
func (r *Record) ReviewReason() string {
	return strings.Join(r.ReviewNotes, "; ")
}

// ScratchPaths lists every local file owned by the record.
func (r *Record) ScratchPaths() []string {
	paths := make([]string, 0, len(r.Segments)+1)
	for _, seg := range r.Segments {
		if seg.Path != "" {
			paths = append(paths, seg.Path)
		}
	}
	if r.AudioPath != "" {
		paths = append(paths, r.AudioPath)
	}
	return paths
}
