package audio

import "time"

// DefaultSegmentLength is the maximum segment duration used for speech-to-text.
const DefaultSegmentLength = 60 * time.Second

// Span is a planned time range within a source file.
type Span struct {
	Index    int
	Start    time.Duration
	Duration time.Duration
}

// Segment is a materialized span on disk.
type Segment struct {
	Span
	Path string
}

// PlanSegments divides total into ceil(total/max) consecutive spans. Every span
// but the last lasts exactly max; the last covers the remainder. A non-positive
// total yields no spans and a non-positive max uses DefaultSegmentLength.
func PlanSegments(total, max time.Duration) []Span {
	if total <= 0 {
		return nil
	}
	if max <= 0 {
		max = DefaultSegmentLength
	}
	count := int((total + max - 1) / max)
	spans := make([]Span, 0, count)
	for i := 0; i < count; i++ {
		start := time.Duration(i) * max
		length := max
		if remaining := total - start; remaining < max {
			length = remaining
		}
		spans = append(spans, Span{Index: i, Start: start, Duration: length})
	}
	return spans
}
